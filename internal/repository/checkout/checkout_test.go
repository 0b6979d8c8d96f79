package checkout

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
	"github.com/Samuel1217/ShopifySDK/internal/migrate"
)

func TestPostgres_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool)
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)
	resTime := 300
	created, err := repo.Create(ctx, Record{
		Token:         "tok-1",
		CartToken:     "cart-1",
		Currency:      "USD",
		SubtotalPrice: decimal.RequireFromString("20.00"),
		TotalTax:      decimal.RequireFromString("1.00"),
		TotalPrice:    decimal.RequireFromString("21.00"),
		PaymentDue:    decimal.RequireFromString("21.00"),
		ReservationTime:      &resTime,
		ReservationExpiresAt: &expires,
		Email:                "buyer@example.com",
		LineItems: []Line{
			{ID: "li-1", VariantID: 7, Title: "Tee", Price: decimal.RequireFromString("10.00"), Quantity: 2, RequiresShipping: true},
		},
		TaxLines: []TaxLine{
			{Title: "Sales Tax", Rate: decimal.RequireFromString("0.05"), Price: decimal.RequireFromString("1.00")},
		},
		MarketingAttribution: map[string]string{"medium": "email"},
		RequiresShipping:     true,
		SourceName:           "sandbox",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Token != "tok-1" || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created record %+v", created)
	}

	fetched, err := repo.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if !fetched.TotalPrice.Equal(decimal.RequireFromString("21.00")) {
		t.Fatalf("total price mismatch: %s", fetched.TotalPrice)
	}
	if len(fetched.LineItems) != 1 || fetched.LineItems[0].VariantID != 7 {
		t.Fatalf("line items mismatch %+v", fetched.LineItems)
	}
	if fetched.ReservationTime == nil || *fetched.ReservationTime != 300 {
		t.Fatalf("reservation time mismatch %+v", fetched.ReservationTime)
	}
	if fetched.MarketingAttribution["medium"] != "email" {
		t.Fatalf("marketing attribution mismatch %+v", fetched.MarketingAttribution)
	}

	orderID, err := repo.NextOrderID(ctx)
	if err != nil {
		t.Fatalf("NextOrderID: %v", err)
	}
	fetched.OrderID = &orderID
	fetched.PaymentDue = decimal.Zero
	updated, err := repo.Update(ctx, *fetched)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.OrderID == nil || *updated.OrderID != orderID {
		t.Fatalf("order id not persisted %+v", updated.OrderID)
	}
	if !updated.PaymentDue.IsZero() {
		t.Fatalf("payment due not cleared: %s", updated.PaymentDue)
	}
}

func TestPostgres_MissingCheckout(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool)
	if _, err := repo.GetByToken(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, Record{Token: "missing", Currency: "USD"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
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
