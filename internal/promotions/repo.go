package promotions

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/pkg/db/models"
)

// Repository encapsulates promotion rule persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCode returns the promotion registered for the given code.
// Codes are matched case-insensitively and stored upper-cased.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promotion).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}
