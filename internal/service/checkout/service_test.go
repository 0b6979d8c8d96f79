package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
	cartrepo "github.com/Samuel1217/ShopifySDK/internal/repository/cart"
	checkoutrepo "github.com/Samuel1217/ShopifySDK/internal/repository/checkout"
)

type stubCheckoutRepo struct {
	created    *checkoutrepo.Record
	stored     *checkoutrepo.Record
	updated    *checkoutrepo.Record
	nextOrder  int64
	getErr     error
	createErr  error
	updateErr  error
}

func (s *stubCheckoutRepo) Create(_ context.Context, rec checkoutrepo.Record) (*checkoutrepo.Record, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	s.created = &rec
	return &rec, nil
}

func (s *stubCheckoutRepo) GetByToken(_ context.Context, _ string) (*checkoutrepo.Record, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.stored, nil
}

func (s *stubCheckoutRepo) Update(_ context.Context, rec checkoutrepo.Record) (*checkoutrepo.Record, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updated = &rec
	return &rec, nil
}

func (s *stubCheckoutRepo) NextOrderID(_ context.Context) (int64, error) {
	s.nextOrder++
	return 900000 + s.nextOrder, nil
}

type stubCartRepo struct {
	cart *cartrepo.Cart
	err  error
}

func (s *stubCartRepo) Create(_ context.Context, cart cartrepo.Cart) (*cartrepo.Cart, error) {
	return &cart, nil
}

func (s *stubCartRepo) GetByToken(_ context.Context, _ string) (*cartrepo.Cart, error) {
	return s.cart, s.err
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func testService(repo checkoutrepo.Repository, carts cartrepo.Repository) *Service {
	return New(repo, carts, Options{
		DefaultCurrency: "USD",
		TaxRate:         decimal.RequireFromString("0.05"),
		DiscountCode:    "WELCOME10",
		DiscountRate:    decimal.RequireFromString("0.10"),
		Now:             func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func TestCreateRequiresCartTokenOrLines(t *testing.T) {
	svc := testService(&stubCheckoutRepo{}, &stubCartRepo{})
	_, err := svc.Create(context.Background(), CreatePayload{})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreateFromLineItemsPrices(t *testing.T) {
	repo := &stubCheckoutRepo{}
	svc := testService(repo, &stubCartRepo{err: domain.ErrNotFound})

	rec, err := svc.Create(context.Background(), CreatePayload{
		LineItems: []checkoutrepo.Line{
			{VariantID: 1, Title: "Tee", Price: dec(t, "10.00"), Quantity: 1, RequiresShipping: true},
			{VariantID: 2, Title: "Sticker", Price: dec(t, "5.00"), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Token == "" {
		t.Fatal("expected a minted token")
	}
	if !rec.SubtotalPrice.Equal(dec(t, "20.00")) {
		t.Fatalf("subtotal = %s, want 20.00", rec.SubtotalPrice)
	}
	if !rec.TotalTax.Equal(dec(t, "1.00")) {
		t.Fatalf("tax = %s, want 1.00", rec.TotalTax)
	}
	if !rec.TotalPrice.Equal(dec(t, "21.00")) {
		t.Fatalf("total = %s, want 21.00", rec.TotalPrice)
	}
	if !rec.PaymentDue.Equal(rec.TotalPrice) {
		t.Fatalf("payment due = %s, want %s", rec.PaymentDue, rec.TotalPrice)
	}
	if !rec.RequiresShipping {
		t.Fatal("expected requiresShipping true")
	}
	if rec.Currency != "USD" {
		t.Fatalf("currency = %q", rec.Currency)
	}
	for _, line := range rec.LineItems {
		if line.ID == "" {
			t.Fatalf("line %d missing id", line.VariantID)
		}
	}
	if len(rec.TaxLines) != 1 || !rec.TaxLines[0].Price.Equal(dec(t, "1.00")) {
		t.Fatalf("tax lines = %+v", rec.TaxLines)
	}
}

func TestCreateFromCartToken(t *testing.T) {
	carts := &stubCartRepo{cart: &cartrepo.Cart{
		Token:    "cart-1",
		Currency: "EUR",
		Lines: []cartrepo.Line{
			{VariantID: 9, Title: "Mug", Price: dec(t, "12.50"), Quantity: 2, RequiresShipping: true},
		},
	}}
	svc := testService(&stubCheckoutRepo{}, carts)

	rec, err := svc.Create(context.Background(), CreatePayload{CartToken: "cart-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR", rec.Currency)
	}
	if rec.CartToken != "cart-1" {
		t.Fatalf("cart token = %q", rec.CartToken)
	}
	if !rec.SubtotalPrice.Equal(dec(t, "25.00")) {
		t.Fatalf("subtotal = %s, want 25.00", rec.SubtotalPrice)
	}
}

func TestCreateUnknownCartToken(t *testing.T) {
	svc := testService(&stubCheckoutRepo{}, &stubCartRepo{err: domain.ErrNotFound})
	_, err := svc.Create(context.Background(), CreatePayload{CartToken: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	svc := testService(&stubCheckoutRepo{}, &stubCartRepo{})
	_, err := svc.Create(context.Background(), CreatePayload{
		LineItems: []checkoutrepo.Line{{VariantID: 1, Price: dec(t, "1.00"), Quantity: 0}},
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateAppliesDiscountAndShippingRate(t *testing.T) {
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{
		Token:    "tok",
		Currency: "USD",
		LineItems: []checkoutrepo.Line{
			{ID: "li-1", VariantID: 1, Price: dec(t, "100.00"), Quantity: 1},
		},
	}}
	svc := testService(repo, &stubCartRepo{})

	rec, err := svc.Update(context.Background(), "tok", UpdatePayload{
		Email:        "buyer@example.com",
		Discount:     &DiscountInput{Code: "WELCOME10"},
		ShippingRate: &checkoutrepo.Rate{ID: "standard", Title: "Standard", Price: dec(t, "4.99")},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Email != "buyer@example.com" {
		t.Fatalf("email = %q", rec.Email)
	}
	if rec.Discount == nil || !rec.Discount.Applicable || !rec.Discount.Amount.Equal(dec(t, "10.00")) {
		t.Fatalf("discount = %+v", rec.Discount)
	}
	// 100 - 10 discount = 90, tax 4.50, plus 4.99 shipping
	if !rec.TotalPrice.Equal(dec(t, "99.49")) {
		t.Fatalf("total = %s, want 99.49", rec.TotalPrice)
	}
}

func TestUpdateUnknownDiscountNotApplicable(t *testing.T) {
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{
		Token:    "tok",
		Currency: "USD",
		LineItems: []checkoutrepo.Line{
			{ID: "li-1", VariantID: 1, Price: dec(t, "50.00"), Quantity: 1},
		},
	}}
	svc := testService(repo, &stubCartRepo{})

	rec, err := svc.Update(context.Background(), "tok", UpdatePayload{
		Discount: &DiscountInput{Code: "BOGUS"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Discount == nil || rec.Discount.Applicable || !rec.Discount.Amount.IsZero() {
		t.Fatalf("discount = %+v", rec.Discount)
	}
	if !rec.TotalPrice.Equal(dec(t, "52.50")) {
		t.Fatalf("total = %s, want 52.50", rec.TotalPrice)
	}
}

func TestUpdateReservation(t *testing.T) {
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{Token: "tok", Currency: "USD"}}
	svc := testService(repo, &stubCartRepo{})

	seconds := 300
	rec, err := svc.Update(context.Background(), "tok", UpdatePayload{ReservationTime: &seconds})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.ReservationTime == nil || *rec.ReservationTime != 300 {
		t.Fatalf("reservation time = %+v", rec.ReservationTime)
	}
	want := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	if rec.ReservationExpiresAt == nil || !rec.ReservationExpiresAt.Equal(want) {
		t.Fatalf("expires at = %+v, want %s", rec.ReservationExpiresAt, want)
	}

	zero := 0
	rec, err = svc.Update(context.Background(), "tok", UpdatePayload{ReservationTime: &zero})
	if err != nil {
		t.Fatalf("Update release: %v", err)
	}
	if rec.ReservationTime != nil || rec.ReservationExpiresAt != nil {
		t.Fatalf("reservation not released: %+v %+v", rec.ReservationTime, rec.ReservationExpiresAt)
	}

	negative := -1
	if _, err := svc.Update(context.Background(), "tok", UpdatePayload{ReservationTime: &negative}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdateOmittedFieldsUnchanged(t *testing.T) {
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{
		Token:    "tok",
		Currency: "USD",
		Email:    "kept@example.com",
		Discount: &checkoutrepo.Discount{Code: "WELCOME10", Amount: dec(t, "1.00"), Applicable: true},
	}}
	svc := testService(repo, &stubCartRepo{})

	rec, err := svc.Update(context.Background(), "tok", UpdatePayload{ChannelID: "pos"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Email != "kept@example.com" {
		t.Fatalf("email overwritten: %q", rec.Email)
	}
	if rec.Discount == nil || rec.Discount.Code != "WELCOME10" {
		t.Fatalf("discount dropped: %+v", rec.Discount)
	}
	if rec.ChannelID != "pos" {
		t.Fatalf("channel = %q", rec.ChannelID)
	}
}

func TestUpdateCompletedCheckout(t *testing.T) {
	orderID := int64(900001)
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{Token: "tok", Currency: "USD", OrderID: &orderID}}
	svc := testService(repo, &stubCartRepo{})

	if _, err := svc.Update(context.Background(), "tok", UpdatePayload{Email: "x@y.z"}); !errors.Is(err, ErrCompleted) {
		t.Fatalf("expected ErrCompleted, got %v", err)
	}
}

func TestCompleteAssignsOrderAndClearsPaymentDue(t *testing.T) {
	seconds := 300
	expires := time.Now().Add(5 * time.Minute)
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{
		Token:                "tok",
		Currency:             "USD",
		TotalPrice:           dec(t, "21.00"),
		PaymentDue:           dec(t, "21.00"),
		ReservationTime:      &seconds,
		ReservationExpiresAt: &expires,
	}}
	svc := testService(repo, &stubCartRepo{})

	rec, err := svc.Complete(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if rec.OrderID == nil || *rec.OrderID != 900001 {
		t.Fatalf("order id = %+v", rec.OrderID)
	}
	if !rec.PaymentDue.IsZero() {
		t.Fatalf("payment due = %s", rec.PaymentDue)
	}
	if rec.ReservationTime != nil || rec.ReservationExpiresAt != nil {
		t.Fatal("reservation not released on completion")
	}
	if !rec.TotalPrice.Equal(dec(t, "21.00")) {
		t.Fatalf("total changed: %s", rec.TotalPrice)
	}
}

func TestCompleteIdempotent(t *testing.T) {
	orderID := int64(900123)
	repo := &stubCheckoutRepo{stored: &checkoutrepo.Record{Token: "tok", Currency: "USD", OrderID: &orderID}}
	svc := testService(repo, &stubCartRepo{})

	rec, err := svc.Complete(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if rec.OrderID == nil || *rec.OrderID != 900123 {
		t.Fatalf("order id = %+v", rec.OrderID)
	}
	if repo.updated != nil {
		t.Fatal("completed checkout should not be rewritten")
	}
}
