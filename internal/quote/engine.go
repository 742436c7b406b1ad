package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quotes/internal/money"
)

var (
	// ErrInvalidLineItem is returned when an item carries a negative price or
	// a non-positive quantity. These indicate a caller bug, not a legitimate
	// discount case, so they are surfaced instead of clamped.
	ErrInvalidLineItem = errors.New("quote: invalid line item")
	// ErrDiscountOutOfRange is returned when a discount value has no valid
	// clamped interpretation, such as a negative value or an unknown type.
	ErrDiscountOutOfRange = errors.New("quote: discount out of range")
)

var hundred = decimal.NewFromInt(100)

// LineTotal returns price × quantity for a single item.
func LineTotal(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}

// ComputeTotals derives a quote's subtotal and total from its items and the
// quote-level discount. The computation is exact decimal arithmetic end to
// end; rounding to the external scale happens once, on the returned values.
//
// Pipeline: sum line totals, subtract each package-linked item's discount
// (computed independently against that item's unit price), then apply the
// quote-level discount to what remains. The result is never negative.
func ComputeTotals(items []LineItem, discount Discount) (Totals, error) {
	subtotal := decimal.Zero
	for i, it := range items {
		if it.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: item %d has quantity %d", ErrInvalidLineItem, i, it.Quantity)
		}
		if it.Price.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d has negative price %s", ErrInvalidLineItem, i, it.Price)
		}
		subtotal = subtotal.Add(LineTotal(it.Price, it.Quantity))
	}

	packageTotal := decimal.Zero
	for i, it := range items {
		if it.PackageDiscount == nil {
			continue
		}
		unitDiscount, err := unitPackageDiscount(it.Price, *it.PackageDiscount)
		if err != nil {
			return Totals{}, fmt.Errorf("item %d: %w", i, err)
		}
		packageTotal = packageTotal.Add(unitDiscount.Mul(decimal.NewFromInt(it.Quantity)))
	}

	remaining := subtotal.Sub(packageTotal)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	discountAmount, err := discountOn(remaining, discount)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal: money.Round(subtotal),
		Total:    money.Round(remaining.Sub(discountAmount)),
	}, nil
}

// unitPackageDiscount computes the package discount for one unit of an item.
// Percentages apply to the unit price; fixed amounts never exceed it.
func unitPackageDiscount(price decimal.Decimal, d Discount) (decimal.Decimal, error) {
	if d.Value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: package discount value %s", ErrDiscountOutOfRange, d.Value)
	}
	switch d.Type {
	case DiscountPercentage:
		return money.Percent(price, money.Clamp(d.Value, decimal.Zero, hundred)), nil
	case DiscountFixed:
		return money.Min(d.Value, price), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown package discount type %q", ErrDiscountOutOfRange, d.Type)
	}
}

// discountOn computes the quote-level discount against the subtotal that
// remains after package discounts. A fixed discount cannot take the total
// below zero.
func discountOn(available decimal.Decimal, d Discount) (decimal.Decimal, error) {
	if d.Value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: discount value %s", ErrDiscountOutOfRange, d.Value)
	}
	switch d.Type {
	case DiscountPercentage:
		return money.Percent(available, money.Clamp(d.Value, decimal.Zero, hundred)), nil
	case DiscountFixed:
		return money.Min(d.Value, available), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown discount type %q", ErrDiscountOutOfRange, d.Type)
	}
}
