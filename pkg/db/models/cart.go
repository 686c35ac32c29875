package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the durable record of a shopper's selected items. Exactly one of
// AccountID or SessionToken is set; anonymous carts carry an ExpiresAt used by
// the retention sweeper.
type Cart struct {
	ID                   uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID            *uuid.UUID     `gorm:"column:account_id;type:uuid;uniqueIndex"`
	SessionToken         *string        `gorm:"column:session_token;uniqueIndex"`
	TotalItemCount       int            `gorm:"column:total_item_count;not null;default:0"`
	TotalPriceCents      int64          `gorm:"column:total_price_cents;not null;default:0"`
	AppliedPromotionCode *string        `gorm:"column:applied_promotion_code"`
	ExpiresAt            *time.Time     `gorm:"column:expires_at"`
	Items                []CartLineItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
