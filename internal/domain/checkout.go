package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState describes where a checkout sits in its lifecycle.
type CheckoutState string

const (
	// StateDraft is a checkout with no server-issued token yet.
	StateDraft CheckoutState = "draft"
	// StatePriced is a checkout that has synced with the server at least once.
	StatePriced CheckoutState = "priced"
	// StateCompleted is a checkout that has been converted into an order.
	StateCompleted CheckoutState = "completed"
	// StateExpired is a checkout whose inventory reservation ran out.
	StateExpired CheckoutState = "expired"
)

// Address is a mailing address attached to a checkout for billing or shipping.
type Address struct {
	FirstName   string
	LastName    string
	Address1    string
	Address2    string
	City        string
	Province    string
	CountryCode string
	Zip         string
	Phone       string
}

// ShippingRate is a shipping option chosen for the checkout. Rates themselves
// are computed server-side; the client only selects one.
type ShippingRate struct {
	ID    string
	Title string
	Price decimal.Decimal
}

// Discount is a discount code applied to the checkout. Amount and Applicable
// are filled in by the server once the code has been evaluated.
type Discount struct {
	Code       string
	Amount     decimal.Decimal
	Applicable bool
}

// LineItem is a priced, quantified snapshot of one product selection. Unlike
// a cart line item it carries no reference to the full product variant.
type LineItem struct {
	ID               string
	VariantID        int64
	Title            string
	Price            decimal.Decimal
	Quantity         int
	RequiresShipping bool
}

// TaxLine records one tax jurisdiction/type applied to the checkout.
type TaxLine struct {
	Title string
	Rate  decimal.Decimal
	Price decimal.Decimal
}

// GiftCard is a gift card the server has applied against the payment due.
type GiftCard struct {
	ID             string
	LastCharacters string
	Balance        decimal.Decimal
	AmountUsed     decimal.Decimal
}

// clientFields groups everything the host application edits locally. These
// round-trip verbatim until the server overwrites them with normalized values.
type clientFields struct {
	email                string
	billingAddress       *Address
	shippingAddress      *Address
	shippingRate         *ShippingRate
	discount             *Discount
	channelID            string
	marketingAttribution map[string]string
	webReturnToURL       string
	webReturnToLabel     string
	reservationTime      *int
}

// serverFields groups everything the server owns. The only write path is
// ApplyResponse, which replaces members from a validated server payload;
// nothing here has a public setter.
type serverFields struct {
	orderID             *int64
	creationDate        time.Time
	lastUpdatedDate     time.Time
	pricing             Pricing
	currency            string
	taxesIncluded       bool
	reservationTimeLeft *int
	lineItems           []LineItem
	taxLines            []TaxLine
	giftCards           []GiftCard
	requiresShipping    bool
	paymentSessionID    string
	paymentURL          string
	webCheckoutURL      string
	orderStatusURL      string
	privacyPolicyURL    string
	refundPolicyURL     string
	termsOfServiceURL   string
	sourceName          string
	sourceID            string
	sourceURL           string
	creditCard          string
	customerID          string
}

// Checkout is the transactional object tracking a shopper from cart to paid
// order. Construct one with NewCheckoutFromCart or NewCheckoutFromCartToken;
// the zero value has no cart origin and is unusable.
//
// The entity is a plain value holder: it performs no I/O. Client-owned fields
// are edited through setters, server-owned fields change only via
// ApplyResponse. At most one sync round trip may be in flight per instance;
// BeginSync/EndSync enforce that.
type Checkout struct {
	mu      sync.Mutex
	syncing bool

	token     string
	cartToken string
	client    clientFields
	server    serverFields
}

// NewCheckoutFromCart builds a draft checkout from a fully populated cart.
// Line items are derived from the cart's items, stripped of their variant
// references; pricing is left for the server to fill on the first sync.
func NewCheckoutFromCart(cart *Cart) (*Checkout, error) {
	if cart == nil {
		return nil, fmt.Errorf("%w: cart is nil", ErrInvalidArgument)
	}
	items := make([]LineItem, 0, len(cart.LineItems))
	for _, line := range cart.LineItems {
		items = append(items, LineItem{
			VariantID:        line.VariantID,
			Title:            line.Title,
			Price:            line.Price,
			Quantity:         line.Quantity,
			RequiresShipping: line.RequiresShipping,
		})
	}
	c := &Checkout{}
	c.server.lineItems = items
	return c, nil
}

// NewCheckoutFromCartToken builds a draft checkout from a bare cart token.
// Line items stay empty until the first sync resolves them server-side.
func NewCheckoutFromCartToken(cartToken string) (*Checkout, error) {
	trimmed := strings.TrimSpace(cartToken)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: cart token is empty", ErrInvalidArgument)
	}
	return &Checkout{cartToken: trimmed}, nil
}

// HasToken reports whether the server has issued an identity for this
// checkout. Operations that require server identity (completing payment,
// refreshing) are only valid once this returns true.
func (c *Checkout) HasToken() bool {
	return c.token != ""
}

// State derives the lifecycle state from identity, order and reservation.
func (c *Checkout) State() CheckoutState {
	if c.server.orderID != nil {
		return StateCompleted
	}
	if c.token == "" {
		return StateDraft
	}
	if left := c.server.reservationTimeLeft; left != nil && *left <= 0 {
		if want := c.client.reservationTime; want != nil && *want > 0 {
			return StateExpired
		}
	}
	return StatePriced
}

// BeginSync marks a sync round trip as in flight. It returns ErrSyncInFlight
// if another round trip has begun and not yet ended; the caller must hold the
// claim across the full request/response pair and release it with EndSync.
func (c *Checkout) BeginSync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.syncing {
		return ErrSyncInFlight
	}
	c.syncing = true
	return nil
}

// EndSync releases the in-flight claim taken by BeginSync.
func (c *Checkout) EndSync() {
	c.mu.Lock()
	c.syncing = false
	c.mu.Unlock()
}

// Token returns the server-issued checkout identifier, empty before the
// first successful sync.
func (c *Checkout) Token() string { return c.token }

// CartToken returns the originating cart token, set only when the checkout
// was constructed from one.
func (c *Checkout) CartToken() string { return c.cartToken }

// OrderID returns the order the checkout was converted into, if completed.
func (c *Checkout) OrderID() (int64, bool) {
	if c.server.orderID == nil {
		return 0, false
	}
	return *c.server.orderID, true
}

// CreationDate returns the server-stamped creation time.
func (c *Checkout) CreationDate() time.Time { return c.server.creationDate }

// LastUpdatedDate returns the server-stamped last update time.
func (c *Checkout) LastUpdatedDate() time.Time { return c.server.lastUpdatedDate }

// Pricing returns the server-computed pricing group. All four monetary
// members were received together in one response.
func (c *Checkout) Pricing() Pricing { return c.server.pricing }

// Currency returns the ISO 4217 code shared by every monetary field.
func (c *Checkout) Currency() string { return c.server.currency }

// TaxesIncluded reports whether tax is embedded in the subtotal.
func (c *Checkout) TaxesIncluded() bool { return c.server.taxesIncluded }

// ReservationTime returns the requested inventory hold in seconds.
func (c *Checkout) ReservationTime() (int, bool) {
	if c.client.reservationTime == nil {
		return 0, false
	}
	return *c.client.reservationTime, true
}

// ReservationTimeLeft returns the server-owned hold countdown in seconds.
func (c *Checkout) ReservationTimeLeft() (int, bool) {
	if c.server.reservationTimeLeft == nil {
		return 0, false
	}
	return *c.server.reservationTimeLeft, true
}

// LineItems returns a copy of the checkout's line-item snapshots.
func (c *Checkout) LineItems() []LineItem {
	out := make([]LineItem, len(c.server.lineItems))
	copy(out, c.server.lineItems)
	return out
}

// TaxLines returns a copy of the applied tax lines.
func (c *Checkout) TaxLines() []TaxLine {
	out := make([]TaxLine, len(c.server.taxLines))
	copy(out, c.server.taxLines)
	return out
}

// GiftCards returns a copy of the gift cards applied by the server.
func (c *Checkout) GiftCards() []GiftCard {
	out := make([]GiftCard, len(c.server.giftCards))
	copy(out, c.server.giftCards)
	return out
}

// RequiresShipping reports whether any line item needs physical fulfillment.
func (c *Checkout) RequiresShipping() bool { return c.server.requiresShipping }

// Email returns the customer email set on the checkout.
func (c *Checkout) Email() string { return c.client.email }

// BillingAddress returns the billing address, nil if unset.
func (c *Checkout) BillingAddress() *Address { return c.client.billingAddress }

// ShippingAddress returns the shipping address, nil if unset.
func (c *Checkout) ShippingAddress() *Address { return c.client.shippingAddress }

// SelectedShippingRate returns the chosen shipping rate, nil if unset.
func (c *Checkout) SelectedShippingRate() *ShippingRate { return c.client.shippingRate }

// ShippingRateID returns the identifier of the chosen shipping rate.
func (c *Checkout) ShippingRateID() string {
	if c.client.shippingRate == nil {
		return ""
	}
	return c.client.shippingRate.ID
}

// AppliedDiscount returns the discount on the checkout, nil if unset.
func (c *Checkout) AppliedDiscount() *Discount { return c.client.discount }

// ChannelID returns the sales channel the checkout was created in.
func (c *Checkout) ChannelID() string { return c.client.channelID }

// MarketingAttribution returns a copy of the attribution mapping.
func (c *Checkout) MarketingAttribution() map[string]string {
	if c.client.marketingAttribution == nil {
		return nil
	}
	out := make(map[string]string, len(c.client.marketingAttribution))
	for k, v := range c.client.marketingAttribution {
		out[k] = v
	}
	return out
}

// WebReturnToURL returns the URL used to return from the web checkout.
func (c *Checkout) WebReturnToURL() string { return c.client.webReturnToURL }

// WebReturnToLabel returns the button label shown for the return link.
func (c *Checkout) WebReturnToLabel() string { return c.client.webReturnToLabel }

// PaymentSessionID returns the session id of the credit card transaction.
func (c *Checkout) PaymentSessionID() string { return c.server.paymentSessionID }

// PaymentURL returns the payment gateway URL.
func (c *Checkout) PaymentURL() string { return c.server.paymentURL }

// WebCheckoutURL returns the hosted web checkout URL.
func (c *Checkout) WebCheckoutURL() string { return c.server.webCheckoutURL }

// OrderStatusURL returns the order status page URL, set after completion.
func (c *Checkout) OrderStatusURL() string { return c.server.orderStatusURL }

// PrivacyPolicyURL returns the shop's privacy policy URL.
func (c *Checkout) PrivacyPolicyURL() string { return c.server.privacyPolicyURL }

// RefundPolicyURL returns the shop's refund policy URL.
func (c *Checkout) RefundPolicyURL() string { return c.server.refundPolicyURL }

// TermsOfServiceURL returns the shop's terms of service URL.
func (c *Checkout) TermsOfServiceURL() string { return c.server.termsOfServiceURL }

// SourceName returns the server-attributed source of the checkout.
func (c *Checkout) SourceName() string { return c.server.sourceName }

// SourceID returns the server-attributed source identifier.
func (c *Checkout) SourceID() string { return c.server.sourceID }

// SourceURL returns the server-attributed source URL.
func (c *Checkout) SourceURL() string { return c.server.sourceURL }

// CreditCard returns the masked credit card stored on the checkout.
func (c *Checkout) CreditCard() string { return c.server.creditCard }

// CustomerID returns the customer associated with the checkout.
func (c *Checkout) CustomerID() string { return c.server.customerID }

// SetEmail sets the customer email.
func (c *Checkout) SetEmail(email string) { c.client.email = email }

// SetBillingAddress sets the address associated with the payment method.
func (c *Checkout) SetBillingAddress(a *Address) { c.client.billingAddress = a }

// SetShippingAddress sets the address the order ships to.
func (c *Checkout) SetShippingAddress(a *Address) { c.client.shippingAddress = a }

// SetShippingRate selects one of the server-computed shipping rates.
func (c *Checkout) SetShippingRate(r *ShippingRate) { c.client.shippingRate = r }

// SetDiscount applies a discount to the checkout. The server evaluates the
// code and fills in Amount/Applicable on the next sync.
func (c *Checkout) SetDiscount(d *Discount) { c.client.discount = d }

// SetDiscountCode is shorthand for applying a discount by code alone.
func (c *Checkout) SetDiscountCode(code string) {
	c.client.discount = &Discount{Code: code}
}

// SetChannelID sets the sales channel identifier.
func (c *Checkout) SetChannelID(id string) { c.client.channelID = id }

// SetMarketingAttribution sets the attribution mapping sent with updates.
func (c *Checkout) SetMarketingAttribution(attrs map[string]string) {
	c.client.marketingAttribution = attrs
}

// SetWebReturnToURL sets the URL used to return to the host app from the
// web checkout.
func (c *Checkout) SetWebReturnToURL(u string) { c.client.webReturnToURL = u }

// SetWebReturnToLabel sets the label of the return button shown after the
// web checkout.
func (c *Checkout) SetWebReturnToLabel(label string) { c.client.webReturnToLabel = label }

// SetReservationTime requests an inventory hold of the given number of
// seconds. Zero releases the hold on the next sync. Negative values have no
// semantic meaning and are rejected with ErrInvalidArgument, leaving the
// prior value in place.
func (c *Checkout) SetReservationTime(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("%w: reservation time %d is negative", ErrInvalidArgument, seconds)
	}
	c.client.reservationTime = &seconds
	return nil
}

// ClearReservationTime removes the reservation request entirely, as opposed
// to SetReservationTime(0) which asks the server to release a held one.
func (c *Checkout) ClearReservationTime() {
	c.client.reservationTime = nil
}
