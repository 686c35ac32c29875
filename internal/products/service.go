package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/pkg/db/models"
	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
)

// Snapshot is the read-only product view the cart consumes: current price,
// optional discounted price, stock and display metadata.
type Snapshot struct {
	ID                 uuid.UUID
	Name               string
	Category           string
	PriceCents         int64
	DiscountPriceCents *int64
	Stock              int
	Thumbnail          *string
}

// EffectivePriceCents returns the discounted price when present, else the list price.
func (s Snapshot) EffectivePriceCents() int64 {
	if s.DiscountPriceCents != nil {
		return *s.DiscountPriceCents
	}
	return s.PriceCents
}

type productFinder interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the product snapshot provider surface.
type Service interface {
	GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error)
}

type service struct {
	repo productFinder
}

// NewService builds a snapshot provider backed by the product repository.
func NewService(repo productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// GetSnapshot resolves the current catalog state for a product.
func (s *service) GetSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
				WithDetails(map[string]any{"product_id": id.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	return &Snapshot{
		ID:                 product.ID,
		Name:               product.Name,
		Category:           product.Category,
		PriceCents:         product.PriceCents,
		DiscountPriceCents: product.DiscountPriceCents,
		Stock:              product.Stock,
		Thumbnail:          product.Thumbnail,
	}, nil
}
