package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents the canonical catalog listing consumed by the cart.
type Product struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string    `gorm:"column:name;not null"`
	Category           string    `gorm:"column:category;not null;default:''"`
	PriceCents         int64     `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int64    `gorm:"column:discount_price_cents"`
	Stock              int       `gorm:"column:stock;not null;default:0"`
	Thumbnail          *string   `gorm:"column:thumbnail"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents returns the discounted price when present, else the list price.
func (p Product) EffectivePriceCents() int64 {
	if p.DiscountPriceCents != nil {
		return *p.DiscountPriceCents
	}
	return p.PriceCents
}
