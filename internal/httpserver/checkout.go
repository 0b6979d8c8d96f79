package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
	checkoutrepo "github.com/Samuel1217/ShopifySDK/internal/repository/checkout"
	checkoutsvc "github.com/Samuel1217/ShopifySDK/internal/service/checkout"
)

// checkoutResponse is the wire shape of a checkout. Field names match
// what the client SDK parses.
type checkoutResponse struct {
	Token           string    `json:"token"`
	CartToken       string    `json:"cartToken,omitempty"`
	OrderID         *int64    `json:"orderId,omitempty"`
	CreationDate    time.Time `json:"creationDate"`
	LastUpdatedDate time.Time `json:"lastUpdatedDate"`

	Currency      string          `json:"currency"`
	TaxesIncluded bool            `json:"taxesIncluded"`
	SubtotalPrice decimal.Decimal `json:"subtotalPrice"`
	TotalTax      decimal.Decimal `json:"totalTax"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentDue    decimal.Decimal `json:"paymentDue"`

	ReservationTime     *int `json:"reservationTime,omitempty"`
	ReservationTimeLeft *int `json:"reservationTimeLeft,omitempty"`

	LineItems []checkoutrepo.Line     `json:"lineItems"`
	TaxLines  []checkoutrepo.TaxLine  `json:"taxLines,omitempty"`
	GiftCards []checkoutrepo.GiftCard `json:"giftCards,omitempty"`

	Email                string                 `json:"email,omitempty"`
	BillingAddress       json.RawMessage        `json:"billingAddress,omitempty"`
	ShippingAddress      json.RawMessage        `json:"shippingAddress,omitempty"`
	ShippingRate         *checkoutrepo.Rate     `json:"shippingRate,omitempty"`
	Discount             *checkoutrepo.Discount `json:"discount,omitempty"`
	ChannelID            string                 `json:"channelId,omitempty"`
	MarketingAttribution map[string]string      `json:"marketingAttribution,omitempty"`
	WebReturnToURL       string                 `json:"webReturnToURL,omitempty"`
	WebReturnToLabel     string                 `json:"webReturnToLabel,omitempty"`

	RequiresShipping  bool   `json:"requiresShipping"`
	WebCheckoutURL    string `json:"webCheckoutURL,omitempty"`
	OrderStatusURL    string `json:"orderStatusURL,omitempty"`
	PrivacyPolicyURL  string `json:"privacyPolicyURL,omitempty"`
	RefundPolicyURL   string `json:"refundPolicyURL,omitempty"`
	TermsOfServiceURL string `json:"termsOfServiceURL,omitempty"`
	SourceName        string `json:"sourceName,omitempty"`
	CustomerID        string `json:"customerId,omitempty"`
}

func renderCheckout(rec *checkoutrepo.Record, baseURL string, now time.Time) checkoutResponse {
	resp := checkoutResponse{
		Token:                rec.Token,
		CartToken:            rec.CartToken,
		OrderID:              rec.OrderID,
		CreationDate:         rec.CreatedAt,
		LastUpdatedDate:      rec.UpdatedAt,
		Currency:             rec.Currency,
		TaxesIncluded:        rec.TaxesIncluded,
		SubtotalPrice:        rec.SubtotalPrice,
		TotalTax:             rec.TotalTax,
		TotalPrice:           rec.TotalPrice,
		PaymentDue:           rec.PaymentDue,
		ReservationTime:      rec.ReservationTime,
		LineItems:            rec.LineItems,
		TaxLines:             rec.TaxLines,
		GiftCards:            rec.GiftCards,
		Email:                rec.Email,
		BillingAddress:       rec.BillingAddress,
		ShippingAddress:      rec.ShippingAddress,
		ShippingRate:         rec.ShippingRate,
		Discount:             rec.Discount,
		ChannelID:            rec.ChannelID,
		MarketingAttribution: rec.MarketingAttribution,
		WebReturnToURL:       rec.WebReturnToURL,
		WebReturnToLabel:     rec.WebReturnToLabel,
		RequiresShipping:     rec.RequiresShipping,
		SourceName:           rec.SourceName,
		CustomerID:           rec.CustomerID,
		WebCheckoutURL:       baseURL + "/checkouts/" + rec.Token + "/web",
		PrivacyPolicyURL:     baseURL + "/policies/privacy",
		RefundPolicyURL:      baseURL + "/policies/refund",
		TermsOfServiceURL:    baseURL + "/policies/terms",
	}
	if rec.ReservationExpiresAt != nil {
		left := int(rec.ReservationExpiresAt.Sub(now).Seconds())
		if left < 0 {
			left = 0
		}
		resp.ReservationTimeLeft = &left
	}
	if rec.OrderID != nil {
		resp.OrderStatusURL = baseURL + "/checkouts/" + rec.Token + "/order_status"
	}
	return resp
}

func createCheckoutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutsvc.CreatePayload
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
			return
		}
		rec, err := deps.CheckoutSvc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, renderCheckout(rec, deps.PublicBaseURL, time.Now()))
	}
}

func getCheckoutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := deps.CheckoutSvc.Get(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCheckout(rec, deps.PublicBaseURL, time.Now()))
	}
}

func updateCheckoutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutsvc.UpdatePayload
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
			return
		}
		rec, err := deps.CheckoutSvc.Update(c.Request.Context(), c.Param("token"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCheckout(rec, deps.PublicBaseURL, time.Now()))
	}
}

func completeCheckoutHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := deps.CheckoutSvc.Complete(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, renderCheckout(rec, deps.PublicBaseURL, time.Now()))
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, checkoutsvc.ErrCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
