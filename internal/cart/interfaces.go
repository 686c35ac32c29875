package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/internal/products"
	"github.com/dcortes/shopline-backend/pkg/db/models"
)

// CartRepository encapsulates cart persistence.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartLineItem) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteExpiredAnonymous(ctx context.Context, cutoff time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotLoader interface {
	GetSnapshot(ctx context.Context, id uuid.UUID) (*products.Snapshot, error)
}

type promotionResolver interface {
	Resolve(ctx context.Context, code string) (*models.Promotion, error)
}
