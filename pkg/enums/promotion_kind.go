package enums

import "fmt"

// PromotionKind distinguishes how a promotion rule reduces the payable total.
type PromotionKind string

const (
	PromotionKindPercentage   PromotionKind = "percentage"
	PromotionKindFixedAmount  PromotionKind = "fixed_amount"
	PromotionKindFreeShipping PromotionKind = "free_shipping"
)

var validPromotionKinds = []PromotionKind{
	PromotionKindPercentage,
	PromotionKindFixedAmount,
	PromotionKindFreeShipping,
}

// String implements fmt.Stringer.
func (k PromotionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known PromotionKind.
func (k PromotionKind) IsValid() bool {
	for _, candidate := range validPromotionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePromotionKind converts raw input into a PromotionKind.
func ParsePromotionKind(value string) (PromotionKind, error) {
	for _, candidate := range validPromotionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion kind %q", value)
}
