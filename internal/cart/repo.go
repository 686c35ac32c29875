package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/pkg/db/models"
)

// Repository is the GORM-backed cart store. It holds no business rules; the
// service layer owns invariants and calls through here inside a transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByOwner returns the cart keyed by the given owner, items preloaded in
// insertion order.
func (r *Repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})

	if owner.IsAnonymous() {
		query = query.Where("session_token = ?", *owner.SessionToken)
	} else {
		query = query.Where("account_id = ?", *owner.AccountID)
	}

	var cart models.Cart
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts the provided cart record.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// Save updates the cart's scalar columns. Items are written via ReplaceItems.
func (r *Repository) Save(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"total_item_count":       cart.TotalItemCount,
			"total_price_cents":      cart.TotalPriceCents,
			"applied_promotion_code": cart.AppliedPromotionCode,
			"expires_at":             cart.ExpiresAt,
		}).Error
}

// ReplaceItems swaps the cart's full item list in one statement pair.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartLineItem) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// DeleteByID removes a cart record and, via cascade, its line items.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Cart{}).Error
}

// DeleteExpiredAnonymous removes anonymous carts whose retention window passed.
func (r *Repository) DeleteExpiredAnonymous(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_token IS NOT NULL AND expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.Cart{})
	return result.RowsAffected, result.Error
}
