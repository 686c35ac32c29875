package enums

// DiscountKind labels a line in a price breakdown.
type DiscountKind string

const (
	DiscountKindBulk      DiscountKind = "bulk"
	DiscountKindPromotion DiscountKind = "promotion"
)

// String implements fmt.Stringer.
func (k DiscountKind) String() string {
	return string(k)
}
