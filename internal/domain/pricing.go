package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pricing is the group of mutually derived monetary fields the server
// recomputes on every round trip. It is replaced wholesale whenever a
// response carries any of its members, so a checkout can never expose a
// stale mix of old and new pricing. Values are arbitrary-precision
// decimals; the client never does pricing arithmetic on them.
type Pricing struct {
	SubtotalPrice decimal.Decimal
	TotalTax      decimal.Decimal
	TotalPrice    decimal.Decimal
	PaymentDue    decimal.Decimal
}

// validate checks the invariants that must hold among pricing fields.
// TotalPrice is authoritative as sent; it is never recomputed here from
// subtotal, tax and taxesIncluded.
func (p Pricing) validate() error {
	if p.TotalPrice.IsNegative() {
		return fmt.Errorf("totalPrice %s is negative", p.TotalPrice)
	}
	if p.TotalTax.IsNegative() {
		return fmt.Errorf("totalTax %s is negative", p.TotalTax)
	}
	if p.PaymentDue.GreaterThan(p.TotalPrice) {
		return fmt.Errorf("paymentDue %s exceeds totalPrice %s", p.PaymentDue, p.TotalPrice)
	}
	return nil
}
