package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSumHasNoBinaryFloatDrift(t *testing.T) {
	// 10.10 + 20.20 + 5.55 must be exactly 35.85, not 35.849999999999994.
	sum := FromFloat64(10.10).Add(FromFloat64(20.20)).Add(FromFloat64(5.55))
	if sum.String() != "35.85" {
		t.Fatalf("expected 35.85, got %s", sum.String())
	}
}

func TestPercentIsExact(t *testing.T) {
	got := Percent(decimal.NewFromInt(100), decimal.NewFromInt(20))
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected 20, got %s", got.String())
	}
	got = Percent(decimal.RequireFromString("33.33"), decimal.NewFromInt(10))
	if got.String() != "3.333" {
		t.Fatalf("expected 3.333, got %s", got.String())
	}
}

func TestRoundHalfUp(t *testing.T) {
	if got := Round(decimal.RequireFromString("1.005")); got.String() != "1.01" {
		t.Fatalf("expected 1.01, got %s", got.String())
	}
	if got := Round(decimal.RequireFromString("1.004")); got.String() != "1" {
		t.Fatalf("expected 1, got %s", got.String())
	}
}

func TestToFloat64RoundsToScale(t *testing.T) {
	if got := ToFloat64(decimal.RequireFromString("35.849")); got != 35.85 {
		t.Fatalf("expected 35.85, got %v", got)
	}
}

func TestClamp(t *testing.T) {
	lo, hi := decimal.Zero, decimal.NewFromInt(100)
	if got := Clamp(decimal.NewFromInt(150), lo, hi); !got.Equal(hi) {
		t.Fatalf("expected clamp to 100, got %s", got.String())
	}
	if got := Clamp(decimal.NewFromInt(-5), lo, hi); !got.Equal(lo) {
		t.Fatalf("expected clamp to 0, got %s", got.String())
	}
	if got := Clamp(decimal.NewFromInt(42), lo, hi); !got.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("expected 42, got %s", got.String())
	}
}
