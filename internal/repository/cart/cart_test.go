package cart

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
	"github.com/Samuel1217/ShopifySDK/internal/migrate"
)

func TestPostgres_CreateAndGetByToken(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool)
	created, err := repo.Create(ctx, Cart{
		Token:    "cart-abc",
		Currency: "USD",
		Lines: []Line{
			{VariantID: 11, Title: "Tee", Price: decimal.RequireFromString("19.99"), Quantity: 2, RequiresShipping: true},
			{VariantID: 12, Title: "Gift Card", Price: decimal.RequireFromString("25.00"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Token != "cart-abc" || created.Currency != "USD" {
		t.Fatalf("unexpected cart %+v", created)
	}

	fetched, err := repo.GetByToken(ctx, "cart-abc")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if len(fetched.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(fetched.Lines))
	}
	if fetched.Lines[0].VariantID != 11 || !fetched.Lines[0].Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected first line %+v", fetched.Lines[0])
	}
	if !fetched.Lines[0].RequiresShipping || fetched.Lines[1].RequiresShipping {
		t.Fatalf("requires_shipping flags mismatch %+v", fetched.Lines)
	}
}

func TestPostgres_GetByTokenMissing(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool)
	if _, err := repo.GetByToken(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts, checkouts RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
