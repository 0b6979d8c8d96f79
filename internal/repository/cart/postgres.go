package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, cart Cart) (*Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const cartQuery = `
INSERT INTO carts (token, currency)
VALUES ($1, $2)
RETURNING token, currency, created_at
`
	var created Cart
	if err := tx.QueryRow(ctx, cartQuery, cart.Token, cart.Currency).Scan(
		&created.Token,
		&created.Currency,
		&created.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}

	const lineQuery = `
INSERT INTO cart_lines (cart_token, variant_id, title, price, quantity, requires_shipping)
VALUES ($1, $2, $3, $4, $5, $6)
`
	for _, line := range cart.Lines {
		if _, err := tx.Exec(ctx, lineQuery,
			cart.Token, line.VariantID, line.Title, line.Price, line.Quantity, line.RequiresShipping,
		); err != nil {
			return nil, fmt.Errorf("insert cart line: %w", err)
		}
	}
	created.Lines = append(created.Lines, cart.Lines...)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &created, nil
}

func (r *postgresRepo) GetByToken(ctx context.Context, token string) (*Cart, error) {
	const cartQuery = `
SELECT token, currency, created_at
FROM carts
WHERE token = $1
`
	var cart Cart
	if err := r.pool.QueryRow(ctx, cartQuery, token).Scan(
		&cart.Token,
		&cart.Currency,
		&cart.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	const lineQuery = `
SELECT variant_id, title, price, quantity, requires_shipping
FROM cart_lines
WHERE cart_token = $1
ORDER BY id
`
	rows, err := r.pool.Query(ctx, lineQuery, token)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.VariantID, &line.Title, &line.Price, &line.Quantity, &line.RequiresShipping); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return &cart, nil
}
