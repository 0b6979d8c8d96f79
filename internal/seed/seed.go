// Package seed loads a demo cart so the cart-token checkout path can
// be exercised manually.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type lineSeed struct {
	VariantID        int64
	Title            string
	Price            string
	Quantity         int
	RequiresShipping bool
}

// Apply inserts basic seed data for manual testing. It is idempotent:
// the demo cart is rebuilt on every run.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	const cartToken = "demo-cart"

	lines := []lineSeed{
		{VariantID: 1001, Title: "Demo T-Shirt", Price: "19.99", Quantity: 1, RequiresShipping: true},
		{VariantID: 1002, Title: "Demo Mug", Price: "12.99", Quantity: 2, RequiresShipping: true},
		{VariantID: 1003, Title: "Demo Gift Card", Price: "25.00", Quantity: 1},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const cartQuery = `
INSERT INTO carts (token, currency)
VALUES ($1, 'USD')
ON CONFLICT (token) DO UPDATE SET currency = EXCLUDED.currency
`
	if _, err := tx.Exec(ctx, cartQuery, cartToken); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_token = $1`, cartToken); err != nil {
		return fmt.Errorf("clear cart lines: %w", err)
	}

	const lineQuery = `
INSERT INTO cart_lines (cart_token, variant_id, title, price, quantity, requires_shipping)
VALUES ($1, $2, $3, $4, $5, $6)
`
	for _, line := range lines {
		price, err := decimal.NewFromString(line.Price)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", line.Title, err)
		}
		if _, err := tx.Exec(ctx, lineQuery,
			cartToken, line.VariantID, line.Title, price, line.Quantity, line.RequiresShipping,
		); err != nil {
			return fmt.Errorf("insert line %s: %w", line.Title, err)
		}
	}

	return tx.Commit(ctx)
}
