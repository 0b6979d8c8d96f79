package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Samuel1217/ShopifySDK/internal/config"
	"github.com/Samuel1217/ShopifySDK/internal/db"
	"github.com/Samuel1217/ShopifySDK/internal/httpserver"
	cartrepo "github.com/Samuel1217/ShopifySDK/internal/repository/cart"
	checkoutrepo "github.com/Samuel1217/ShopifySDK/internal/repository/checkout"
	checkoutsvc "github.com/Samuel1217/ShopifySDK/internal/service/checkout"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[sandbox] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	checkoutRepo := checkoutrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewPostgres(dbpool)
	checkoutService := checkoutsvc.New(checkoutRepo, cartRepo, checkoutsvc.Options{
		DefaultCurrency: cfg.DefaultCurrency,
		TaxRate:         cfg.TaxRate,
		DiscountCode:    cfg.DiscountCode,
		DiscountRate:    cfg.DiscountRate,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CheckoutSvc:   checkoutService,
		APIKey:        cfg.APIKey,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
