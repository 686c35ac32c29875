package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLineItem is one product entry in a cart. Display name, category, price
// and thumbnail are snapshots taken at add time; at most one line exists per
// product per cart.
type CartLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_product"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_product"`
	DisplayName    string    `gorm:"column:display_name;not null"`
	Category       string    `gorm:"column:category;not null;default:''"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Thumbnail      *string   `gorm:"column:thumbnail"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LineSubtotalCents is quantity times the snapshotted unit price.
func (i CartLineItem) LineSubtotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}
