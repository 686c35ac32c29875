package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/pkg/db/models"
	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
)

// MergeOnLogin folds the anonymous cart behind sessionToken into the account's
// cart. Quantities for the same product sum, the account cart's unit price
// wins, lines new to the account cart carry a freshly resolved price, and the
// anonymous record is deleted in the same transaction. Lines whose product can
// no longer be resolved are skipped, never failing the merge. Replaying the
// merge after the anonymous cart is gone is a no-op.
func (s *service) MergeOnLogin(ctx context.Context, accountID uuid.UUID, sessionToken string) (*models.Cart, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if sessionToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}

	account := AccountOwner(accountID)
	session := SessionOwner(sessionToken)

	// Account lock first, then session, so concurrent merges for the same
	// pair cannot deadlock.
	releaseAccount := s.locks.Acquire(account.Key())
	defer releaseAccount()
	releaseSession := s.locks.Acquire(session.Key())
	defer releaseSession()

	var merged *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		anon, err := repo.FindByOwner(ctx, session)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				merged, err = s.accountCartOrNil(ctx, repo, account)
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load anonymous cart")
		}

		target, created, err := s.findOrNewCart(ctx, repo, account)
		if err != nil {
			return err
		}

		for _, item := range anon.Items {
			idx := findLine(target.Items, item.ProductID)
			if idx >= 0 {
				// Same product on both sides: quantities sum, the
				// account cart's unit price is kept.
				target.Items[idx].Quantity += item.Quantity
				continue
			}

			snapshot, err := s.products.GetSnapshot(ctx, item.ProductID)
			if err != nil {
				warnCtx := s.logg.WithFields(ctx, map[string]any{
					"product_id": item.ProductID.String(),
					"error":      err.Error(),
				})
				s.logg.Warn(warnCtx, "merge skipping unresolvable product")
				continue
			}

			target.Items = append(target.Items, models.CartLineItem{
				CartID:         target.ID,
				ProductID:      snapshot.ID,
				DisplayName:    snapshot.Name,
				Category:       snapshot.Category,
				Quantity:       item.Quantity,
				UnitPriceCents: snapshot.EffectivePriceCents(),
				Thumbnail:      snapshot.Thumbnail,
			})
		}

		recomputeTotals(target)
		if err := s.persist(ctx, repo, target, created); err != nil {
			return err
		}
		if err := repo.DeleteByID(ctx, anon.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete anonymous cart")
		}

		merged = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// accountCartOrNil returns the account cart when one exists and nil when none
// does, so a merge with nothing on either side stays a successful no-op.
func (s *service) accountCartOrNil(ctx context.Context, repo CartRepository, account Owner) (*models.Cart, error) {
	cart, err := repo.FindByOwner(ctx, account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account cart")
	}
	return cart, nil
}
