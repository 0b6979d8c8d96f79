package domain

import "github.com/shopspring/decimal"

// Cart is the pre-checkout collection of product-variant selections.
// The checkout only reads what it needs to seed its line-item snapshots;
// building and editing carts is the host application's concern.
type Cart struct {
	LineItems []CartLineItem
}

// CartLineItem pairs a product-variant reference with a quantity, plus the
// snapshot data (title, unit price, shipping requirement) a checkout line
// item is derived from.
type CartLineItem struct {
	VariantID        int64
	Title            string
	Price            decimal.Decimal
	Quantity         int
	RequiresShipping bool
}
