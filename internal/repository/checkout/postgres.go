package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
)

const recordColumns = `
token, cart_token, order_id, currency, taxes_included,
subtotal_price, total_tax, total_price, payment_due,
reservation_time, reservation_expires_at,
email, channel_id, web_return_to_url, web_return_to_label,
billing_address, shipping_address, shipping_rate, discount, marketing_attribution,
line_items, tax_lines, gift_cards,
requires_shipping, source_name, customer_id, created_at, updated_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, rec Record) (*Record, error) {
	const q = `
INSERT INTO checkouts (
    token, cart_token, order_id, currency, taxes_included,
    subtotal_price, total_tax, total_price, payment_due,
    reservation_time, reservation_expires_at,
    email, channel_id, web_return_to_url, web_return_to_label,
    billing_address, shipping_address, shipping_rate, discount, marketing_attribution,
    line_items, tax_lines, gift_cards,
    requires_shipping, source_name, customer_id
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9,
    $10, $11,
    $12, $13, $14, $15,
    $16, $17, $18, $19, $20,
    $21, $22, $23,
    $24, $25, $26
)
RETURNING` + recordColumns

	row := r.pool.QueryRow(ctx, q,
		rec.Token, rec.CartToken, rec.OrderID, rec.Currency, rec.TaxesIncluded,
		rec.SubtotalPrice, rec.TotalTax, rec.TotalPrice, rec.PaymentDue,
		rec.ReservationTime, rec.ReservationExpiresAt,
		rec.Email, rec.ChannelID, rec.WebReturnToURL, rec.WebReturnToLabel,
		rec.BillingAddress, rec.ShippingAddress, rec.ShippingRate, rec.Discount, rec.MarketingAttribution,
		rec.LineItems, rec.TaxLines, rec.GiftCards,
		rec.RequiresShipping, rec.SourceName, rec.CustomerID,
	)
	created, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("insert checkout: %w", err)
	}
	return created, nil
}

func (r *postgresRepo) GetByToken(ctx context.Context, token string) (*Record, error) {
	const q = `SELECT` + recordColumns + `
FROM checkouts
WHERE token = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, q, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select checkout: %w", err)
	}
	return rec, nil
}

func (r *postgresRepo) Update(ctx context.Context, rec Record) (*Record, error) {
	const q = `
UPDATE checkouts SET
    order_id = $2,
    currency = $3,
    taxes_included = $4,
    subtotal_price = $5,
    total_tax = $6,
    total_price = $7,
    payment_due = $8,
    reservation_time = $9,
    reservation_expires_at = $10,
    email = $11,
    channel_id = $12,
    web_return_to_url = $13,
    web_return_to_label = $14,
    billing_address = $15,
    shipping_address = $16,
    shipping_rate = $17,
    discount = $18,
    marketing_attribution = $19,
    line_items = $20,
    tax_lines = $21,
    gift_cards = $22,
    requires_shipping = $23,
    customer_id = $24,
    updated_at = now()
WHERE token = $1
RETURNING` + recordColumns

	row := r.pool.QueryRow(ctx, q,
		rec.Token,
		rec.OrderID, rec.Currency, rec.TaxesIncluded,
		rec.SubtotalPrice, rec.TotalTax, rec.TotalPrice, rec.PaymentDue,
		rec.ReservationTime, rec.ReservationExpiresAt,
		rec.Email, rec.ChannelID, rec.WebReturnToURL, rec.WebReturnToLabel,
		rec.BillingAddress, rec.ShippingAddress, rec.ShippingRate, rec.Discount, rec.MarketingAttribution,
		rec.LineItems, rec.TaxLines, rec.GiftCards,
		rec.RequiresShipping, rec.CustomerID,
	)
	updated, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update checkout: %w", err)
	}
	return updated, nil
}

func (r *postgresRepo) NextOrderID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('order_ids')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next order id: %w", err)
	}
	return id, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	if err := row.Scan(
		&rec.Token, &rec.CartToken, &rec.OrderID, &rec.Currency, &rec.TaxesIncluded,
		&rec.SubtotalPrice, &rec.TotalTax, &rec.TotalPrice, &rec.PaymentDue,
		&rec.ReservationTime, &rec.ReservationExpiresAt,
		&rec.Email, &rec.ChannelID, &rec.WebReturnToURL, &rec.WebReturnToLabel,
		&rec.BillingAddress, &rec.ShippingAddress, &rec.ShippingRate, &rec.Discount, &rec.MarketingAttribution,
		&rec.LineItems, &rec.TaxLines, &rec.GiftCards,
		&rec.RequiresShipping, &rec.SourceName, &rec.CustomerID, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}
