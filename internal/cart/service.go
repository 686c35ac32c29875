package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/pkg/config"
	"github.com/dcortes/shopline-backend/pkg/db/models"
	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
	"github.com/dcortes/shopline-backend/pkg/logger"
)

// Service owns every cart mutation: line-item reconciliation, clearing,
// pricing reads and the login-time merge. All mutations run under a per-owner
// lock and inside a single transaction, so totals never drift from the item
// list and overlapping requests for one owner cannot lose updates.
type Service interface {
	GetCart(ctx context.Context, owner Owner) (*models.Cart, error)
	UpsertItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error)
	SetItemQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, owner Owner) (*models.Cart, error)
	GetPricedCart(ctx context.Context, owner Owner, promotionCode *string) (*PricedCart, error)
	MergeOnLogin(ctx context.Context, accountID uuid.UUID, sessionToken string) (*models.Cart, error)
}

// PricedCart pairs a cart with its freshly derived breakdown.
type PricedCart struct {
	Cart      *models.Cart    `json:"cart"`
	Breakdown *PriceBreakdown `json:"breakdown"`
}

// ServiceParams configure the cart service.
type ServiceParams struct {
	Repo     CartRepository
	Tx       txRunner
	Products snapshotLoader
	Pricer   *Pricer
	Config   config.CartConfig
	Logger   *logger.Logger
}

type service struct {
	repo         CartRepository
	tx           txRunner
	products     snapshotLoader
	pricer       *Pricer
	locks        *ownerLocks
	anonymousTTL time.Duration
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product snapshot provider required")
	}
	if params.Pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.Config.AnonymousTTL
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		products:     params.Products,
		pricer:       params.Pricer,
		locks:        newOwnerLocks(),
		anonymousTTL: ttl,
		logg:         params.Logger,
		now:          time.Now,
	}, nil
}

// GetCart returns the owner's cart.
func (s *service) GetCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "no cart for owner")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// UpsertItem adds quantity units of the product to the cart, creating the cart
// and the line as needed. Adding to an existing line increments its quantity;
// the resulting quantity is validated against current stock.
func (s *service) UpsertItem(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error) {
	return s.reconcile(ctx, owner, productID, quantity, false)
}

// SetItemQuantity replaces the line's quantity outright, still validating the
// new quantity against current stock.
func (s *service) SetItemQuantity(ctx context.Context, owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error) {
	return s.reconcile(ctx, owner, productID, quantity, true)
}

func (s *service) reconcile(ctx context.Context, owner Owner, productID uuid.UUID, quantity int, replace bool) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be >= 1").
			WithDetails(map[string]any{"quantity": quantity})
	}

	release := s.locks.Acquire(owner.Key())
	defer release()

	// Resolving the snapshot is a hard failure on this path: a product that
	// cannot be resolved cannot be added.
	snapshot, err := s.products.GetSnapshot(ctx, productID)
	if err != nil {
		return nil, err
	}

	var saved *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, created, err := s.findOrNewCart(ctx, repo, owner)
		if err != nil {
			return err
		}

		idx := findLine(cart.Items, productID)
		switch {
		case idx >= 0 && replace:
			if quantity > snapshot.Stock {
				return insufficientStock(snapshot.Stock, productID)
			}
			cart.Items[idx].Quantity = quantity
		case idx >= 0:
			resulting := cart.Items[idx].Quantity + quantity
			if resulting > snapshot.Stock {
				return insufficientStock(snapshot.Stock, productID)
			}
			cart.Items[idx].Quantity = resulting
		default:
			if quantity > snapshot.Stock {
				return insufficientStock(snapshot.Stock, productID)
			}
			cart.Items = append(cart.Items, models.CartLineItem{
				CartID:         cart.ID,
				ProductID:      snapshot.ID,
				DisplayName:    snapshot.Name,
				Category:       snapshot.Category,
				Quantity:       quantity,
				UnitPriceCents: snapshot.EffectivePriceCents(),
				Thumbnail:      snapshot.Thumbnail,
			})
		}

		recomputeTotals(cart)
		saved = cart
		return s.persist(ctx, repo, cart, created)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// RemoveItem drops the matching line if present. Removing an absent line is a
// no-op, so retried removals converge on the same state.
func (s *service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(owner.Key())
	defer release()

	var saved *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.findCart(ctx, repo, owner)
		if err != nil {
			return err
		}

		idx := findLine(cart.Items, productID)
		if idx >= 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		}

		recomputeTotals(cart)
		saved = cart
		return s.persist(ctx, repo, cart, false)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Clear empties the cart and zeroes its totals. The record itself survives.
func (s *service) Clear(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(owner.Key())
	defer release()

	var saved *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.findCart(ctx, repo, owner)
		if err != nil {
			return err
		}

		cart.Items = nil
		cart.AppliedPromotionCode = nil
		recomputeTotals(cart)
		saved = cart
		return s.persist(ctx, repo, cart, false)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// GetPricedCart derives a fresh breakdown for the owner's cart. The applied
// promotion code is persisted on the cart when the rule applies and cleared
// when the supplied code is rejected.
func (s *service) GetPricedCart(ctx context.Context, owner Owner, promotionCode *string) (*PricedCart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	release := s.locks.Acquire(owner.Key())
	defer release()

	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.pricer.Price(ctx, cart.Items, PriceOptions{
		ApplyDiscounts:    true,
		ApplyBulkDiscount: true,
		PromotionCode:     promotionCode,
	})
	if err != nil {
		return nil, err
	}

	if !promoCodeEqual(cart.AppliedPromotionCode, breakdown.AppliedPromotionCode) {
		cart.AppliedPromotionCode = breakdown.AppliedPromotionCode
		if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).Save(ctx, cart)
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist applied promotion")
		}
	}

	return &PricedCart{Cart: cart, Breakdown: breakdown}, nil
}

func (s *service) findCart(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "no cart for owner")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) findOrNewCart(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, bool, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.newCart(owner), true, nil
}

func (s *service) newCart(owner Owner) *models.Cart {
	cart := &models.Cart{
		ID:           uuid.New(),
		AccountID:    owner.AccountID,
		SessionToken: owner.SessionToken,
	}
	if owner.IsAnonymous() {
		expires := s.now().Add(s.anonymousTTL)
		cart.ExpiresAt = &expires
	}
	return cart
}

func (s *service) persist(ctx context.Context, repo CartRepository, cart *models.Cart, created bool) error {
	if created {
		return repo.Create(ctx, cart)
	}
	if err := repo.ReplaceItems(ctx, cart.ID, cart.Items); err != nil {
		return err
	}
	return repo.Save(ctx, cart)
}

// Totals are always recomputed from the item list, never patched
// incrementally, so they cannot drift from the lines.
func recomputeTotals(cart *models.Cart) {
	count := 0
	var price int64
	for _, item := range cart.Items {
		count += item.Quantity
		price += item.LineSubtotalCents()
	}
	cart.TotalItemCount = count
	cart.TotalPriceCents = price
}

func findLine(items []models.CartLineItem, productID uuid.UUID) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func insufficientStock(available int, productID uuid.UUID) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
		WithDetails(map[string]any{
			"available":  available,
			"product_id": productID.String(),
		})
}

func promoCodeEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
