// Package checkout implements the sandbox checkout lifecycle: token
// minting, pricing, reservations and order completion.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Samuel1217/ShopifySDK/internal/domain"
	cartrepo "github.com/Samuel1217/ShopifySDK/internal/repository/cart"
	checkoutrepo "github.com/Samuel1217/ShopifySDK/internal/repository/checkout"
)

// ErrCompleted is returned when a checkout that already has an order
// is modified.
var ErrCompleted = errors.New("checkout already completed")

type checkoutRepo interface {
	Create(ctx context.Context, rec checkoutrepo.Record) (*checkoutrepo.Record, error)
	GetByToken(ctx context.Context, token string) (*checkoutrepo.Record, error)
	Update(ctx context.Context, rec checkoutrepo.Record) (*checkoutrepo.Record, error)
	NextOrderID(ctx context.Context) (int64, error)
}

type cartRepo interface {
	GetByToken(ctx context.Context, token string) (*cartrepo.Cart, error)
}

// Options carries the pricing knobs the sandbox applies to every
// checkout.
type Options struct {
	DefaultCurrency string
	TaxRate         decimal.Decimal
	DiscountCode    string
	DiscountRate    decimal.Decimal
	Now             func() time.Time
}

type Service struct {
	repo  checkoutRepo
	carts cartRepo
	opts  Options
}

func New(repo checkoutrepo.Repository, carts cartrepo.Repository, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}
	return &Service{repo: repo, carts: carts, opts: opts}
}

// DiscountInput is the client's discount submission; only the code is
// trusted, amount and applicability are recomputed here.
type DiscountInput struct {
	Code string `json:"code"`
}

// UpdatePayload mirrors the client-owned fields of the wire format.
type UpdatePayload struct {
	Email                string              `json:"email"`
	BillingAddress       json.RawMessage     `json:"billingAddress"`
	ShippingAddress      json.RawMessage     `json:"shippingAddress"`
	ShippingRate         *checkoutrepo.Rate  `json:"shippingRate"`
	Discount             *DiscountInput      `json:"discount"`
	ChannelID            string              `json:"channelId"`
	MarketingAttribution map[string]string   `json:"marketingAttribution"`
	WebReturnToURL       string              `json:"webReturnToURL"`
	WebReturnToLabel     string              `json:"webReturnToLabel"`
	ReservationTime      *int                `json:"reservationTime"`
}

// CreatePayload additionally carries either a cart token or explicit
// line items to seed the checkout from.
type CreatePayload struct {
	UpdatePayload
	CartToken string              `json:"cartToken"`
	LineItems []checkoutrepo.Line `json:"lineItems"`
}

func (s *Service) Create(ctx context.Context, in CreatePayload) (*checkoutrepo.Record, error) {
	if in.CartToken == "" && len(in.LineItems) == 0 {
		return nil, fmt.Errorf("%w: cart token or line items required", domain.ErrInvalidArgument)
	}
	if in.ReservationTime != nil && *in.ReservationTime < 0 {
		return nil, fmt.Errorf("%w: reservation time must not be negative", domain.ErrInvalidArgument)
	}

	rec := checkoutrepo.Record{
		Token:      uuid.NewString(),
		CartToken:  in.CartToken,
		Currency:   s.opts.DefaultCurrency,
		SourceName: "sandbox",
	}

	if in.CartToken != "" {
		cart, err := s.carts.GetByToken(ctx, in.CartToken)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: cart %q", domain.ErrNotFound, in.CartToken)
			}
			return nil, fmt.Errorf("resolve cart: %w", err)
		}
		rec.Currency = cart.Currency
		for _, line := range cart.Lines {
			rec.LineItems = append(rec.LineItems, checkoutrepo.Line{
				ID:               uuid.NewString(),
				VariantID:        line.VariantID,
				Title:            line.Title,
				Price:            line.Price,
				Quantity:         line.Quantity,
				RequiresShipping: line.RequiresShipping,
			})
		}
	} else {
		for _, line := range in.LineItems {
			if line.Quantity <= 0 {
				return nil, fmt.Errorf("%w: line item quantity must be positive", domain.ErrInvalidArgument)
			}
			line.ID = uuid.NewString()
			rec.LineItems = append(rec.LineItems, line)
		}
	}

	s.applyClientFields(&rec, in.UpdatePayload)
	s.price(&rec)

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, token string) (*checkoutrepo.Record, error) {
	return s.repo.GetByToken(ctx, token)
}

func (s *Service) Update(ctx context.Context, token string, in UpdatePayload) (*checkoutrepo.Record, error) {
	if in.ReservationTime != nil && *in.ReservationTime < 0 {
		return nil, fmt.Errorf("%w: reservation time must not be negative", domain.ErrInvalidArgument)
	}

	rec, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec.OrderID != nil {
		return nil, ErrCompleted
	}

	s.applyClientFields(rec, in)
	s.price(rec)

	updated, err := s.repo.Update(ctx, *rec)
	if err != nil {
		return nil, fmt.Errorf("update checkout: %w", err)
	}
	return updated, nil
}

// Complete turns the checkout into an order. Completing twice returns
// the same order.
func (s *Service) Complete(ctx context.Context, token string) (*checkoutrepo.Record, error) {
	rec, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec.OrderID != nil {
		return rec, nil
	}

	orderID, err := s.repo.NextOrderID(ctx)
	if err != nil {
		return nil, err
	}
	rec.OrderID = &orderID
	rec.PaymentDue = decimal.Zero
	rec.ReservationTime = nil
	rec.ReservationExpiresAt = nil

	updated, err := s.repo.Update(ctx, *rec)
	if err != nil {
		return nil, fmt.Errorf("complete checkout: %w", err)
	}
	return updated, nil
}

// applyClientFields overwrites the client-owned part of the record.
// Absent fields (empty strings, nil pointers) leave stored values
// untouched.
func (s *Service) applyClientFields(rec *checkoutrepo.Record, in UpdatePayload) {
	if in.Email != "" {
		rec.Email = in.Email
	}
	if in.ChannelID != "" {
		rec.ChannelID = in.ChannelID
	}
	if in.WebReturnToURL != "" {
		rec.WebReturnToURL = in.WebReturnToURL
	}
	if in.WebReturnToLabel != "" {
		rec.WebReturnToLabel = in.WebReturnToLabel
	}
	if in.BillingAddress != nil {
		rec.BillingAddress = in.BillingAddress
	}
	if in.ShippingAddress != nil {
		rec.ShippingAddress = in.ShippingAddress
	}
	if in.ShippingRate != nil {
		rec.ShippingRate = in.ShippingRate
	}
	if in.Discount != nil {
		rec.Discount = &checkoutrepo.Discount{Code: in.Discount.Code}
	}
	if in.MarketingAttribution != nil {
		rec.MarketingAttribution = in.MarketingAttribution
	}
	if in.ReservationTime != nil {
		if *in.ReservationTime == 0 {
			rec.ReservationTime = nil
			rec.ReservationExpiresAt = nil
		} else {
			seconds := *in.ReservationTime
			expires := s.opts.Now().Add(time.Duration(seconds) * time.Second).UTC()
			rec.ReservationTime = &seconds
			rec.ReservationExpiresAt = &expires
		}
	}
}

// price recomputes the money fields from the line items, discount,
// shipping rate and gift cards.
func (s *Service) price(rec *checkoutrepo.Record) {
	subtotal := decimal.Zero
	requiresShipping := false
	for _, line := range rec.LineItems {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		if line.RequiresShipping {
			requiresShipping = true
		}
	}
	subtotal = subtotal.Round(2)

	discounted := subtotal
	if rec.Discount != nil {
		if s.opts.DiscountCode != "" && rec.Discount.Code == s.opts.DiscountCode {
			amount := subtotal.Mul(s.opts.DiscountRate).Round(2)
			rec.Discount.Amount = amount
			rec.Discount.Applicable = true
			discounted = subtotal.Sub(amount)
		} else {
			rec.Discount.Amount = decimal.Zero
			rec.Discount.Applicable = false
		}
	}

	tax := discounted.Mul(s.opts.TaxRate).Round(2)
	total := discounted.Add(tax)
	if rec.ShippingRate != nil {
		total = total.Add(rec.ShippingRate.Price)
	}

	if tax.IsPositive() {
		rec.TaxLines = []checkoutrepo.TaxLine{
			{Title: "Sales Tax", Rate: s.opts.TaxRate, Price: tax},
		}
	} else {
		rec.TaxLines = nil
	}

	redeemed := decimal.Zero
	for _, gc := range rec.GiftCards {
		redeemed = redeemed.Add(gc.AmountUsed)
	}
	due := total.Sub(redeemed)
	if due.IsNegative() {
		due = decimal.Zero
	}
	if rec.OrderID != nil {
		due = decimal.Zero
	}

	rec.SubtotalPrice = subtotal
	rec.TotalTax = tax
	rec.TotalPrice = total
	rec.PaymentDue = due
	rec.RequiresShipping = requiresShipping
}
