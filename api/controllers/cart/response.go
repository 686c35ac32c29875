package cart

import (
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/dcortes/shopline-backend/internal/cart"
	"github.com/dcortes/shopline-backend/pkg/db/models"
)

type CartItemView struct {
	ProductID         uuid.UUID `json:"product_id"`
	DisplayName       string    `json:"display_name"`
	Category          string    `json:"category"`
	Quantity          int       `json:"quantity"`
	UnitPriceCents    int64     `json:"unit_price_cents"`
	LineSubtotalCents int64     `json:"line_subtotal_cents"`
	Thumbnail         *string   `json:"thumbnail,omitempty"`
}

type CartView struct {
	ID                   uuid.UUID      `json:"id"`
	TotalItemCount       int            `json:"total_item_count"`
	TotalPriceCents      int64          `json:"total_price_cents"`
	AppliedPromotionCode *string        `json:"applied_promotion_code,omitempty"`
	ExpiresAt            *time.Time     `json:"expires_at,omitempty"`
	Items                []CartItemView `json:"items"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

type QuoteView struct {
	Cart      CartView                `json:"cart"`
	Breakdown *cartsvc.PriceBreakdown `json:"breakdown"`
}

func newCartView(record *models.Cart) CartView {
	items := make([]CartItemView, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, CartItemView{
			ProductID:         item.ProductID,
			DisplayName:       item.DisplayName,
			Category:          item.Category,
			Quantity:          item.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			LineSubtotalCents: item.LineSubtotalCents(),
			Thumbnail:         item.Thumbnail,
		})
	}

	return CartView{
		ID:                   record.ID,
		TotalItemCount:       record.TotalItemCount,
		TotalPriceCents:      record.TotalPriceCents,
		AppliedPromotionCode: record.AppliedPromotionCode,
		ExpiresAt:            record.ExpiresAt,
		Items:                items,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
}
