package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParsePercent parses a percentage expressed as a decimal string ("10", "7.25").
func ParsePercent(value string) (decimal.Decimal, error) {
	pct, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid percent %q: %w", value, err)
	}
	if pct.IsNegative() {
		return decimal.Zero, fmt.Errorf("percent must be non-negative, got %q", value)
	}
	return pct, nil
}

// PercentOf returns percent% of amountCents, rounded half-up to the nearest cent.
// Rounding happens here, at the point of computation, so repeated percentage
// applications never accumulate sub-cent drift.
func PercentOf(amountCents int64, percent decimal.Decimal) int64 {
	if amountCents <= 0 || percent.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amountCents).
		Mul(percent).
		Div(hundred).
		Round(0).
		IntPart()
}

// ClampNonNegative floors a cents amount at zero.
func ClampNonNegative(amountCents int64) int64 {
	if amountCents < 0 {
		return 0
	}
	return amountCents
}
