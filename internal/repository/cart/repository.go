// Package cart stores the server-side carts that checkouts can be
// created from by token.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Line is a single cart position.
type Line struct {
	VariantID        int64
	Title            string
	Price            decimal.Decimal
	Quantity         int
	RequiresShipping bool
}

// Cart is a stored cart with its lines.
type Cart struct {
	Token     string
	Currency  string
	Lines     []Line
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, cart Cart) (*Cart, error)
	GetByToken(ctx context.Context, token string) (*Cart, error)
}
