package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Wire representation of the checkout. Keys map 1:1 to the checkout's
// fields; monetary values travel as decimal strings so repeated round trips
// never lose precision, dates as ISO-8601 strings.

type wireAddress struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	Province    string `json:"province,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type wireShippingRate struct {
	ID    string          `json:"id"`
	Title string          `json:"title,omitempty"`
	Price decimal.Decimal `json:"price"`
}

type wireDiscount struct {
	Code       string          `json:"code"`
	Amount     decimal.Decimal `json:"amount"`
	Applicable bool            `json:"applicable"`
}

type wireLineItem struct {
	ID               string          `json:"id,omitempty"`
	VariantID        int64           `json:"variantId,omitempty"`
	Title            string          `json:"title,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	RequiresShipping bool            `json:"requiresShipping"`
}

type wireTaxLine struct {
	Title string          `json:"title"`
	Rate  decimal.Decimal `json:"rate"`
	Price decimal.Decimal `json:"price"`
}

type wireGiftCard struct {
	ID             string          `json:"id"`
	LastCharacters string          `json:"lastCharacters,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	AmountUsed     decimal.Decimal `json:"amountUsed"`
}

// updatePayload is the outbound shape for update syncs: client-owned fields
// plus whichever identity field addresses the checkout. Server-owned fields
// (pricing, orderId, lineItems, taxLines, giftCards, URLs) are deliberately
// absent so the client can never freeze stale server state.
type updatePayload struct {
	Token                string            `json:"token,omitempty"`
	CartToken            string            `json:"cartToken,omitempty"`
	Email                string            `json:"email,omitempty"`
	BillingAddress       *wireAddress      `json:"billingAddress,omitempty"`
	ShippingAddress      *wireAddress      `json:"shippingAddress,omitempty"`
	ShippingRate         *wireShippingRate `json:"shippingRate,omitempty"`
	Discount             *wireDiscount     `json:"discount,omitempty"`
	ChannelID            string            `json:"channelId,omitempty"`
	MarketingAttribution map[string]string `json:"marketingAttribution,omitempty"`
	WebReturnToURL       string            `json:"webReturnToURL,omitempty"`
	WebReturnToLabel     string            `json:"webReturnToLabel,omitempty"`
	ReservationTime      *int              `json:"reservationTime,omitempty"`
}

// createPayload is the outbound shape for the first sync of a
// cart-constructed checkout. It additionally carries the draft line-item
// snapshots, since without them the server has nothing to materialize the
// checkout from when no cart token is involved.
type createPayload struct {
	updatePayload
	LineItems []wireLineItem `json:"lineItems,omitempty"`
}

// responsePayload is the inbound shape. Every field is optional: a field
// absent from the response means "unchanged", not "cleared", which is why
// everything is a pointer (or a nilable map/slice pointer).
type responsePayload struct {
	Token                *string            `json:"token"`
	CartToken            *string            `json:"cartToken"`
	OrderID              *int64             `json:"orderId"`
	CreationDate         *time.Time         `json:"creationDate"`
	LastUpdatedDate      *time.Time         `json:"lastUpdatedDate"`
	SubtotalPrice        *decimal.Decimal   `json:"subtotalPrice"`
	TotalTax             *decimal.Decimal   `json:"totalTax"`
	TotalPrice           *decimal.Decimal   `json:"totalPrice"`
	PaymentDue           *decimal.Decimal   `json:"paymentDue"`
	Currency             *string            `json:"currency"`
	TaxesIncluded        *bool              `json:"taxesIncluded"`
	ReservationTime      *int               `json:"reservationTime"`
	ReservationTimeLeft  *int               `json:"reservationTimeLeft"`
	LineItems            *[]wireLineItem    `json:"lineItems"`
	TaxLines             *[]wireTaxLine     `json:"taxLines"`
	GiftCards            *[]wireGiftCard    `json:"giftCards"`
	Email                *string            `json:"email"`
	BillingAddress       *wireAddress       `json:"billingAddress"`
	ShippingAddress      *wireAddress       `json:"shippingAddress"`
	ShippingRate         *wireShippingRate  `json:"shippingRate"`
	Discount             *wireDiscount      `json:"discount"`
	ChannelID            *string            `json:"channelId"`
	MarketingAttribution map[string]string  `json:"marketingAttribution"`
	WebReturnToURL       *string            `json:"webReturnToURL"`
	WebReturnToLabel     *string            `json:"webReturnToLabel"`
	RequiresShipping     *bool              `json:"requiresShipping"`
	PaymentSessionID     *string            `json:"paymentSessionId"`
	PaymentURL           *string            `json:"paymentURL"`
	WebCheckoutURL       *string            `json:"webCheckoutURL"`
	OrderStatusURL       *string            `json:"orderStatusURL"`
	PrivacyPolicyURL     *string            `json:"privacyPolicyURL"`
	RefundPolicyURL      *string            `json:"refundPolicyURL"`
	TermsOfServiceURL    *string            `json:"termsOfServiceURL"`
	SourceName           *string            `json:"sourceName"`
	SourceID             *string            `json:"sourceId"`
	SourceURL            *string            `json:"sourceURL"`
	CreditCard           *string            `json:"creditCard"`
	CustomerID           *string            `json:"customerId"`
}

// MarshalUpdate serializes the checkout for the update operation. Only
// client-owned fields and the addressing identity (token when issued, cart
// token otherwise) go out; all server-owned fields are omitted.
func (c *Checkout) MarshalUpdate() ([]byte, error) {
	return json.Marshal(c.buildUpdatePayload())
}

// MarshalCreate serializes the checkout for the create operation (first
// sync). In addition to the update payload it carries the draft line items
// derived from the originating cart.
func (c *Checkout) MarshalCreate() ([]byte, error) {
	p := createPayload{updatePayload: c.buildUpdatePayload()}
	if c.cartToken == "" {
		p.LineItems = lineItemsToWire(c.server.lineItems)
	}
	return json.Marshal(p)
}

func (c *Checkout) buildUpdatePayload() updatePayload {
	p := updatePayload{
		Email:                c.client.email,
		BillingAddress:       addressToWire(c.client.billingAddress),
		ShippingAddress:      addressToWire(c.client.shippingAddress),
		ShippingRate:         shippingRateToWire(c.client.shippingRate),
		Discount:             discountToWire(c.client.discount),
		ChannelID:            c.client.channelID,
		MarketingAttribution: c.client.marketingAttribution,
		WebReturnToURL:       c.client.webReturnToURL,
		WebReturnToLabel:     c.client.webReturnToLabel,
		ReservationTime:      c.client.reservationTime,
	}
	if c.token != "" {
		p.Token = c.token
	} else {
		p.CartToken = c.cartToken
	}
	return p
}

// ApplyResponse overwrites the checkout from a server response. The whole
// payload is validated before the first field is written, so a failure
// leaves the checkout exactly as it was. Fields absent from the payload keep
// their current values; the pricing group is the one exception and is
// swapped wholesale whenever any of its members is present.
func (c *Checkout) ApplyResponse(data []byte) error {
	var p responsePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if c.token == "" && (p.Token == nil || *p.Token == "") {
		return fmt.Errorf("%w: first sync response carries no checkout token", ErrMalformedResponse)
	}
	if p.Currency != nil {
		if _, err := currency.ParseISO(*p.Currency); err != nil {
			return fmt.Errorf("%w: unrecognized currency %q", ErrMalformedResponse, *p.Currency)
		}
	}
	if p.ReservationTime != nil && *p.ReservationTime < 0 {
		return fmt.Errorf("%w: negative reservationTime", ErrMalformedResponse)
	}
	if p.ReservationTimeLeft != nil && *p.ReservationTimeLeft < 0 {
		return fmt.Errorf("%w: negative reservationTimeLeft", ErrMalformedResponse)
	}
	if p.CreationDate != nil && p.LastUpdatedDate != nil && p.LastUpdatedDate.Before(*p.CreationDate) {
		return fmt.Errorf("%w: lastUpdatedDate precedes creationDate", ErrMalformedResponse)
	}

	pricingPresent := p.SubtotalPrice != nil || p.TotalTax != nil || p.TotalPrice != nil || p.PaymentDue != nil
	var pricing Pricing
	if pricingPresent {
		if p.SubtotalPrice != nil {
			pricing.SubtotalPrice = *p.SubtotalPrice
		}
		if p.TotalTax != nil {
			pricing.TotalTax = *p.TotalTax
		}
		if p.TotalPrice != nil {
			pricing.TotalPrice = *p.TotalPrice
		}
		if p.PaymentDue != nil {
			pricing.PaymentDue = *p.PaymentDue
		}
		if err := pricing.validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	// Validation done; from here on every write must succeed.
	if p.Token != nil && *p.Token != "" {
		c.token = *p.Token
	}
	if p.CartToken != nil {
		c.cartToken = *p.CartToken
	}
	if p.OrderID != nil {
		id := *p.OrderID
		c.server.orderID = &id
	}
	if p.CreationDate != nil {
		c.server.creationDate = *p.CreationDate
	}
	if p.LastUpdatedDate != nil {
		c.server.lastUpdatedDate = *p.LastUpdatedDate
	}
	if pricingPresent {
		c.server.pricing = pricing
	}
	if p.Currency != nil {
		c.server.currency = *p.Currency
	}
	if p.TaxesIncluded != nil {
		c.server.taxesIncluded = *p.TaxesIncluded
	}
	if p.ReservationTime != nil {
		seconds := *p.ReservationTime
		c.client.reservationTime = &seconds
	}
	if p.ReservationTimeLeft != nil {
		left := *p.ReservationTimeLeft
		c.server.reservationTimeLeft = &left
	}
	if p.LineItems != nil {
		c.server.lineItems = lineItemsFromWire(*p.LineItems)
	}
	if p.TaxLines != nil {
		c.server.taxLines = taxLinesFromWire(*p.TaxLines)
	}
	if p.GiftCards != nil {
		c.server.giftCards = giftCardsFromWire(*p.GiftCards)
	}
	if p.Email != nil {
		c.client.email = *p.Email
	}
	if p.BillingAddress != nil {
		c.client.billingAddress = addressFromWire(p.BillingAddress)
	}
	if p.ShippingAddress != nil {
		c.client.shippingAddress = addressFromWire(p.ShippingAddress)
	}
	if p.ShippingRate != nil {
		c.client.shippingRate = &ShippingRate{ID: p.ShippingRate.ID, Title: p.ShippingRate.Title, Price: p.ShippingRate.Price}
	}
	if p.Discount != nil {
		c.client.discount = &Discount{Code: p.Discount.Code, Amount: p.Discount.Amount, Applicable: p.Discount.Applicable}
	}
	if p.ChannelID != nil {
		c.client.channelID = *p.ChannelID
	}
	if p.MarketingAttribution != nil {
		c.client.marketingAttribution = p.MarketingAttribution
	}
	if p.WebReturnToURL != nil {
		c.client.webReturnToURL = *p.WebReturnToURL
	}
	if p.WebReturnToLabel != nil {
		c.client.webReturnToLabel = *p.WebReturnToLabel
	}
	if p.RequiresShipping != nil {
		c.server.requiresShipping = *p.RequiresShipping
	}
	if p.PaymentSessionID != nil {
		c.server.paymentSessionID = *p.PaymentSessionID
	}
	if p.PaymentURL != nil {
		c.server.paymentURL = *p.PaymentURL
	}
	if p.WebCheckoutURL != nil {
		c.server.webCheckoutURL = *p.WebCheckoutURL
	}
	if p.OrderStatusURL != nil {
		c.server.orderStatusURL = *p.OrderStatusURL
	}
	if p.PrivacyPolicyURL != nil {
		c.server.privacyPolicyURL = *p.PrivacyPolicyURL
	}
	if p.RefundPolicyURL != nil {
		c.server.refundPolicyURL = *p.RefundPolicyURL
	}
	if p.TermsOfServiceURL != nil {
		c.server.termsOfServiceURL = *p.TermsOfServiceURL
	}
	if p.SourceName != nil {
		c.server.sourceName = *p.SourceName
	}
	if p.SourceID != nil {
		c.server.sourceID = *p.SourceID
	}
	if p.SourceURL != nil {
		c.server.sourceURL = *p.SourceURL
	}
	if p.CreditCard != nil {
		c.server.creditCard = *p.CreditCard
	}
	if p.CustomerID != nil {
		c.server.customerID = *p.CustomerID
	}
	return nil
}

func addressToWire(a *Address) *wireAddress {
	if a == nil {
		return nil
	}
	return &wireAddress{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		Province:    a.Province,
		CountryCode: a.CountryCode,
		Zip:         a.Zip,
		Phone:       a.Phone,
	}
}

func addressFromWire(w *wireAddress) *Address {
	if w == nil {
		return nil
	}
	return &Address{
		FirstName:   w.FirstName,
		LastName:    w.LastName,
		Address1:    w.Address1,
		Address2:    w.Address2,
		City:        w.City,
		Province:    w.Province,
		CountryCode: w.CountryCode,
		Zip:         w.Zip,
		Phone:       w.Phone,
	}
}

func shippingRateToWire(r *ShippingRate) *wireShippingRate {
	if r == nil {
		return nil
	}
	return &wireShippingRate{ID: r.ID, Title: r.Title, Price: r.Price}
}

func discountToWire(d *Discount) *wireDiscount {
	if d == nil {
		return nil
	}
	return &wireDiscount{Code: d.Code, Amount: d.Amount, Applicable: d.Applicable}
}

func lineItemsToWire(items []LineItem) []wireLineItem {
	out := make([]wireLineItem, 0, len(items))
	for _, item := range items {
		out = append(out, wireLineItem{
			ID:               item.ID,
			VariantID:        item.VariantID,
			Title:            item.Title,
			Price:            item.Price,
			Quantity:         item.Quantity,
			RequiresShipping: item.RequiresShipping,
		})
	}
	return out
}

func lineItemsFromWire(items []wireLineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, LineItem{
			ID:               item.ID,
			VariantID:        item.VariantID,
			Title:            item.Title,
			Price:            item.Price,
			Quantity:         item.Quantity,
			RequiresShipping: item.RequiresShipping,
		})
	}
	return out
}

func taxLinesFromWire(lines []wireTaxLine) []TaxLine {
	out := make([]TaxLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, TaxLine{Title: line.Title, Rate: line.Rate, Price: line.Price})
	}
	return out
}

func giftCardsFromWire(cards []wireGiftCard) []GiftCard {
	out := make([]GiftCard, 0, len(cards))
	for _, card := range cards {
		out = append(out, GiftCard{
			ID:             card.ID,
			LastCharacters: card.LastCharacters,
			Balance:        card.Balance,
			AmountUsed:     card.AmountUsed,
		})
	}
	return out
}
