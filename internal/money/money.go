// Package money owns the exact-decimal representation of monetary values and
// the two places binary floating point is allowed to touch them: deserializing
// external input and serializing for storage or display. Everything between
// those edges stays in decimal.Decimal.
package money

import "github.com/shopspring/decimal"

// Scale is the externally visible precision in fractional digits. Rounding to
// Scale happens only on values leaving the pipeline, never mid-computation.
const Scale = 2

// Zero is the zero monetary amount.
var Zero = decimal.Zero

// FromFloat64 converts a previously serialized floating-point amount into an
// exact decimal. Precision loss is accepted at this one conversion boundary;
// values that have already passed through the pipeline must never round-trip
// through a float again.
func FromFloat64(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FromString parses a decimal literal such as "10.50".
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// ToFloat64 rounds to Scale and converts for storage or display. One-way:
// the result must not be fed back into the pipeline.
func ToFloat64(d decimal.Decimal) float64 {
	f, _ := Round(d).Float64()
	return f
}

// Round applies round-half-up at the external Scale.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent computes base × pct / 100 exactly. The divide-by-100 is an exponent
// shift, so no division precision is involved.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Shift(-2)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Clamp restricts d to the inclusive range [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
