package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dcortes/shopline-backend/internal/promotions"
	"github.com/dcortes/shopline-backend/pkg/config"
	"github.com/dcortes/shopline-backend/pkg/db/models"
	"github.com/dcortes/shopline-backend/pkg/enums"
	"github.com/dcortes/shopline-backend/pkg/money"
)

const bulkDiscountMinQty = 5

var bulkDiscountPercent = decimal.NewFromInt(10)

// PriceOptions control which rule layers the engine applies.
type PriceOptions struct {
	ApplyDiscounts    bool
	ApplyBulkDiscount bool
	PromotionCode     *string
}

// DiscountLine is one itemized reduction in a breakdown.
type DiscountLine struct {
	Kind        enums.DiscountKind `json:"kind"`
	AmountCents int64              `json:"amount_cents"`
	Description string             `json:"description"`
}

// PromotionFailureReason classifies why a supplied code did not apply.
type PromotionFailureReason string

const (
	PromotionFailureUnknownCode               PromotionFailureReason = "UNKNOWN_CODE"
	PromotionFailureExpired                   PromotionFailureReason = "EXPIRED"
	PromotionFailureBelowMinimum              PromotionFailureReason = "BELOW_MINIMUM"
	PromotionFailureMissingRequiredCategories PromotionFailureReason = "MISSING_REQUIRED_CATEGORIES"
)

// PromotionFailure reports a soft promotion rejection. Pricing still succeeds;
// the caller relays the reason to the shopper.
type PromotionFailure struct {
	Code    string                 `json:"code"`
	Reason  PromotionFailureReason `json:"reason"`
	Message string                 `json:"message"`
}

// PriceBreakdown is the itemized result of pricing a set of line items. It is
// derived fresh per request and never persisted.
type PriceBreakdown struct {
	SubtotalCents        int64             `json:"subtotal_cents"`
	TotalItemCount       int               `json:"total_item_count"`
	DiscountLines        []DiscountLine    `json:"discount_lines"`
	DiscountCents        int64             `json:"discount_cents"`
	TaxCents             int64             `json:"tax_cents"`
	ShippingCents        int64             `json:"shipping_cents"`
	TotalCents           int64             `json:"total_cents"`
	AppliedPromotionCode *string           `json:"applied_promotion_code,omitempty"`
	PromotionFailure     *PromotionFailure `json:"promotion_failure,omitempty"`
}

// Pricer layers bulk, promotion, tax and shipping rules over a base subtotal.
// It has no persistence side effects.
type Pricer struct {
	promotions                 promotionResolver
	taxPercent                 decimal.Decimal
	shippingFeeCents           int64
	freeShippingThresholdCents int64
	now                        func() time.Time
}

// NewPricer builds a pricing engine from the flat-rate configuration.
func NewPricer(resolver promotionResolver, cfg config.PricingConfig) (*Pricer, error) {
	if resolver == nil {
		return nil, fmt.Errorf("promotion resolver required")
	}
	taxPercent, err := money.ParsePercent(cfg.TaxRatePercent)
	if err != nil {
		return nil, fmt.Errorf("tax rate: %w", err)
	}
	if cfg.ShippingFeeCents < 0 || cfg.FreeShippingThresholdCents < 0 {
		return nil, fmt.Errorf("shipping configuration must be non-negative")
	}
	return &Pricer{
		promotions:                 resolver,
		taxPercent:                 taxPercent,
		shippingFeeCents:           int64(cfg.ShippingFeeCents),
		freeShippingThresholdCents: int64(cfg.FreeShippingThresholdCents),
		now:                        time.Now,
	}, nil
}

// Price computes the full breakdown for the given items. A promotion that does
// not apply degrades to a reported failure; only collaborator unavailability
// aborts.
func (p *Pricer) Price(ctx context.Context, items []models.CartLineItem, opts PriceOptions) (*PriceBreakdown, error) {
	breakdown := &PriceBreakdown{}

	for _, item := range items {
		breakdown.SubtotalCents += item.LineSubtotalCents()
		breakdown.TotalItemCount += item.Quantity
	}

	if opts.ApplyBulkDiscount {
		p.applyBulkDiscount(items, breakdown)
	}

	freeShipping := false
	if opts.ApplyDiscounts && opts.PromotionCode != nil && *opts.PromotionCode != "" {
		applied, err := p.applyPromotion(ctx, *opts.PromotionCode, items, breakdown)
		if err != nil {
			return nil, err
		}
		freeShipping = applied
	}

	for _, line := range breakdown.DiscountLines {
		breakdown.DiscountCents += line.AmountCents
	}

	net := money.ClampNonNegative(breakdown.SubtotalCents - breakdown.DiscountCents)

	if !freeShipping && net < p.freeShippingThresholdCents && breakdown.TotalItemCount > 0 {
		breakdown.ShippingCents = p.shippingFeeCents
	}

	breakdown.TaxCents = money.PercentOf(net, p.taxPercent)
	breakdown.TotalCents = net + breakdown.TaxCents + breakdown.ShippingCents

	return breakdown, nil
}

// Each line with quantity at or above the threshold earns 10% off that line's
// own subtotal. One discount line is recorded per qualifying product.
func (p *Pricer) applyBulkDiscount(items []models.CartLineItem, breakdown *PriceBreakdown) {
	for _, item := range items {
		if item.Quantity < bulkDiscountMinQty {
			continue
		}
		amount := money.PercentOf(item.LineSubtotalCents(), bulkDiscountPercent)
		if amount <= 0 {
			continue
		}
		breakdown.DiscountLines = append(breakdown.DiscountLines, DiscountLine{
			Kind:        enums.DiscountKindBulk,
			AmountCents: amount,
			Description: fmt.Sprintf("10%% bulk discount on %s (x%d)", item.DisplayName, item.Quantity),
		})
	}
}

// applyPromotion resolves and validates the code, mutating the breakdown on
// success. It returns whether a free-shipping rule applied.
func (p *Pricer) applyPromotion(ctx context.Context, code string, items []models.CartLineItem, breakdown *PriceBreakdown) (bool, error) {
	rule, err := p.promotions.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, promotions.ErrUnknownCode) {
			breakdown.PromotionFailure = &PromotionFailure{
				Code:    code,
				Reason:  PromotionFailureUnknownCode,
				Message: "promotion code is not recognized",
			}
			return false, nil
		}
		return false, err
	}

	if failure := p.validateRule(rule, items, breakdown.SubtotalCents); failure != nil {
		failure.Code = code
		breakdown.PromotionFailure = failure
		return false, nil
	}

	switch rule.Kind {
	case enums.PromotionKindPercentage:
		amount := money.PercentOf(breakdown.SubtotalCents, decimal.NewFromInt(rule.Value))
		breakdown.DiscountLines = append(breakdown.DiscountLines, DiscountLine{
			Kind:        enums.DiscountKindPromotion,
			AmountCents: amount,
			Description: fmt.Sprintf("%d%% off with code %s", rule.Value, rule.Code),
		})
	case enums.PromotionKindFixedAmount:
		breakdown.DiscountLines = append(breakdown.DiscountLines, DiscountLine{
			Kind:        enums.DiscountKindPromotion,
			AmountCents: rule.Value,
			Description: fmt.Sprintf("fixed discount with code %s", rule.Code),
		})
	case enums.PromotionKindFreeShipping:
		breakdown.DiscountLines = append(breakdown.DiscountLines, DiscountLine{
			Kind:        enums.DiscountKindPromotion,
			AmountCents: 0,
			Description: fmt.Sprintf("free shipping with code %s", rule.Code),
		})
		breakdown.AppliedPromotionCode = &rule.Code
		return true, nil
	default:
		breakdown.PromotionFailure = &PromotionFailure{
			Code:    code,
			Reason:  PromotionFailureUnknownCode,
			Message: "promotion rule kind is not supported",
		}
		return false, nil
	}

	breakdown.AppliedPromotionCode = &rule.Code
	return false, nil
}

func (p *Pricer) validateRule(rule *models.Promotion, items []models.CartLineItem, subtotalCents int64) *PromotionFailure {
	if p.now().After(rule.ExpiresAt) {
		return &PromotionFailure{
			Reason:  PromotionFailureExpired,
			Message: "promotion code has expired",
		}
	}
	if subtotalCents < rule.MinimumOrderCents {
		return &PromotionFailure{
			Reason:  PromotionFailureBelowMinimum,
			Message: fmt.Sprintf("order subtotal is below the %d minimum", rule.MinimumOrderCents),
		}
	}
	if len(rule.RequiredCategories) > 0 {
		needed := rule.RequiredCategoryCount
		if needed <= 0 {
			needed = len(rule.RequiredCategories)
		}
		if distinctRequiredCategories(items, rule.RequiredCategories) < needed {
			return &PromotionFailure{
				Reason:  PromotionFailureMissingRequiredCategories,
				Message: fmt.Sprintf("cart must contain items from at least %d of the required categories", needed),
			}
		}
	}
	return nil
}

func distinctRequiredCategories(items []models.CartLineItem, required []string) int {
	allowed := make(map[string]struct{}, len(required))
	for _, category := range required {
		allowed[category] = struct{}{}
	}
	seen := map[string]struct{}{}
	for _, item := range items {
		if _, ok := allowed[item.Category]; ok {
			seen[item.Category] = struct{}{}
		}
	}
	return len(seen)
}
