// Package checkout persists server-side checkout records for the
// sandbox API.
package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Line is a priced checkout position. The JSON tags match the wire
// names so records marshal straight into API responses.
type Line struct {
	ID               string          `json:"id,omitempty"`
	VariantID        int64           `json:"variantId,omitempty"`
	Title            string          `json:"title,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	RequiresShipping bool            `json:"requiresShipping,omitempty"`
}

// TaxLine is one tax component of the checkout total.
type TaxLine struct {
	Title string          `json:"title"`
	Rate  decimal.Decimal `json:"rate"`
	Price decimal.Decimal `json:"price"`
}

// GiftCard is a gift card redeemed against the checkout.
type GiftCard struct {
	ID             string          `json:"id"`
	LastCharacters string          `json:"lastCharacters,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	AmountUsed     decimal.Decimal `json:"amountUsed"`
}

// Rate is the shipping rate chosen by the client.
type Rate struct {
	ID    string          `json:"id"`
	Title string          `json:"title,omitempty"`
	Price decimal.Decimal `json:"price"`
}

// Discount is a discount code with its server-side evaluation.
type Discount struct {
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
	Applicable bool            `json:"applicable"`
}

// Record is the stored state of one checkout. Addresses are kept as
// raw JSON since the sandbox only echoes them back.
type Record struct {
	Token     string
	CartToken string
	OrderID   *int64

	Currency      string
	TaxesIncluded bool
	SubtotalPrice decimal.Decimal
	TotalTax      decimal.Decimal
	TotalPrice    decimal.Decimal
	PaymentDue    decimal.Decimal

	ReservationTime      *int
	ReservationExpiresAt *time.Time

	Email            string
	ChannelID        string
	WebReturnToURL   string
	WebReturnToLabel string

	BillingAddress       json.RawMessage
	ShippingAddress      json.RawMessage
	ShippingRate         *Rate
	Discount             *Discount
	MarketingAttribution map[string]string

	LineItems []Line
	TaxLines  []TaxLine
	GiftCards []GiftCard

	RequiresShipping bool
	SourceName       string
	CustomerID       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, rec Record) (*Record, error)
	GetByToken(ctx context.Context, token string) (*Record, error)
	Update(ctx context.Context, rec Record) (*Record, error)
	NextOrderID(ctx context.Context) (int64, error)
}
