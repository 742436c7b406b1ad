// Package quote implements the monetary total computation for quotes: line
// aggregation, per-item package discounts, the quote-level discount, and the
// final subtotal/total assembly. The computation is pure; persistence lives in
// Store.
package quote

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	// DiscountPercentage interprets the value as a percentage in [0, 100].
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixed interprets the value as a fixed amount.
	DiscountFixed DiscountType = "FIXED"
)

// Discount pairs a discount type with its value. The same shape is used for
// the quote-level discount and for package discount terms.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// LineItem is one priced entry on a quote. PackageDiscount is nil for
// standalone items; when set, the item belongs to a bundled package and
// carries that package's discount terms.
type LineItem struct {
	Price           decimal.Decimal
	Quantity        int64
	PackageDiscount *Discount
}

// Totals holds the two derived fields written back to a quote record.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// StoredQuote is a persisted quote together with the inputs the engine needs
// to re-derive its totals: its items and, for package-linked items, the
// package's discount terms resolved at read time.
type StoredQuote struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Discount   Discount
	Subtotal   decimal.Decimal
	Total      decimal.Decimal
	Items      []LineItem
}
