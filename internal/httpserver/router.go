package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	checkoutrepo "github.com/Samuel1217/ShopifySDK/internal/repository/checkout"
	checkoutsvc "github.com/Samuel1217/ShopifySDK/internal/service/checkout"
)

type checkoutService interface {
	Create(ctx context.Context, in checkoutsvc.CreatePayload) (*checkoutrepo.Record, error)
	Get(ctx context.Context, token string) (*checkoutrepo.Record, error)
	Update(ctx context.Context, token string, in checkoutsvc.UpdatePayload) (*checkoutrepo.Record, error)
	Complete(ctx context.Context, token string) (*checkoutrepo.Record, error)
}

// Deps are the collaborators the router needs.
type Deps struct {
	CheckoutSvc checkoutService

	// APIKey guards all checkout routes when non-empty.
	APIKey string

	// PublicBaseURL prefixes the web checkout and policy URLs in
	// responses.
	PublicBaseURL string
}

// buildRouter wires routes for the sandbox API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders:    []string{"Content-Type", "X-Api-Key"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/", apiKeyMiddleware(deps.APIKey))
	api.POST("/checkouts", createCheckoutHandler(deps))
	api.GET("/checkouts/:token", getCheckoutHandler(deps))
	api.PUT("/checkouts/:token", updateCheckoutHandler(deps))
	api.POST("/checkouts/:token/complete", completeCheckoutHandler(deps))

	return router, nil
}

// apiKeyMiddleware rejects requests without the configured key. An
// empty key disables the check.
func apiKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && c.GetHeader("X-Api-Key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
