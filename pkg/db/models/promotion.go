package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dcortes/shopline-backend/pkg/enums"
)

// Promotion is a discount rule resolved by code. Value is a whole percent for
// percentage promotions and cents for fixed-amount ones; free-shipping ignores it.
type Promotion struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                  string              `gorm:"column:code;not null;uniqueIndex"`
	Kind                  enums.PromotionKind `gorm:"column:kind;not null"`
	Value                 int64               `gorm:"column:value;not null;default:0"`
	MinimumOrderCents     int64               `gorm:"column:minimum_order_cents;not null;default:0"`
	ExpiresAt             time.Time           `gorm:"column:expires_at;not null"`
	RequiredCategories    pq.StringArray      `gorm:"column:required_categories;type:text[]"`
	RequiredCategoryCount int                 `gorm:"column:required_category_count;not null;default:0"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
