package cart

import (
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/internal/products"
	"github.com/dcortes/shopline-backend/pkg/config"
	"github.com/dcortes/shopline-backend/pkg/db/models"
	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
	"github.com/dcortes/shopline-backend/pkg/logger"
)

type fakeCartRepo struct {
	carts map[uuid.UUID]*models.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (f *fakeCartRepo) WithTx(tx *gorm.DB) CartRepository { return f }

func (f *fakeCartRepo) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	for _, cart := range f.carts {
		if owner.IsAnonymous() {
			if cart.SessionToken != nil && *cart.SessionToken == *owner.SessionToken {
				return cloneCart(cart), nil
			}
			continue
		}
		if cart.AccountID != nil && *cart.AccountID == *owner.AccountID {
			return cloneCart(cart), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCartRepo) Create(ctx context.Context, cart *models.Cart) error {
	f.carts[cart.ID] = cloneCart(cart)
	return nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *models.Cart) error {
	stored, ok := f.carts[cart.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.TotalItemCount = cart.TotalItemCount
	stored.TotalPriceCents = cart.TotalPriceCents
	stored.AppliedPromotionCode = cart.AppliedPromotionCode
	stored.ExpiresAt = cart.ExpiresAt
	return nil
}

func (f *fakeCartRepo) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartLineItem) error {
	stored, ok := f.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	replaced := make([]models.CartLineItem, len(items))
	copy(replaced, items)
	for i := range replaced {
		replaced[i].CartID = cartID
	}
	stored.Items = replaced
	return nil
}

func (f *fakeCartRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	delete(f.carts, id)
	return nil
}

func (f *fakeCartRepo) DeleteExpiredAnonymous(ctx context.Context, cutoff time.Time) (int64, error) {
	var swept int64
	for id, cart := range f.carts {
		if cart.SessionToken != nil && cart.ExpiresAt != nil && cart.ExpiresAt.Before(cutoff) {
			delete(f.carts, id)
			swept++
		}
	}
	return swept, nil
}

func cloneCart(cart *models.Cart) *models.Cart {
	cloned := *cart
	cloned.Items = make([]models.CartLineItem, len(cart.Items))
	copy(cloned.Items, cart.Items)
	return &cloned
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSnapshotLoader struct {
	byID map[uuid.UUID]*products.Snapshot
	err  error
}

func (s *stubSnapshotLoader) GetSnapshot(ctx context.Context, id uuid.UUID) (*products.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	if snapshot, ok := s.byID[id]; ok {
		return snapshot, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
		WithDetails(map[string]any{"product_id": id.String()})
}

type harness struct {
	repo      *fakeCartRepo
	snapshots *stubSnapshotLoader
	rules     *stubResolver
	svc       Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := newFakeCartRepo()
	snapshots := &stubSnapshotLoader{byID: map[uuid.UUID]*products.Snapshot{}}
	rules := &stubResolver{rules: map[string]*models.Promotion{}}

	pricer, err := NewPricer(rules, config.PricingConfig{
		TaxRatePercent:             "10",
		ShippingFeeCents:           3000,
		FreeShippingThresholdCents: 50000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pricer.now = func() time.Time { return pricingNow }

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       stubTxRunner{},
		Products: snapshots,
		Pricer:   pricer,
		Config:   config.CartConfig{AnonymousTTL: 14 * 24 * time.Hour},
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return &harness{repo: repo, snapshots: snapshots, rules: rules, svc: svc}
}

func (h *harness) addProduct(name, category string, priceCents int64, stock int) uuid.UUID {
	id := uuid.New()
	h.snapshots.byID[id] = &products.Snapshot{
		ID:         id,
		Name:       name,
		Category:   category,
		PriceCents: priceCents,
		Stock:      stock,
	}
	return id
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestUpsertItemCreatesCartAndLine(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	productID := h.addProduct("Turntable", "audio", 25000, 10)
	owner := SessionOwner("sess-1")

	cart, err := h.svc.UpsertItem(context.Background(), owner, productID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Fatalf("expected a single line of 2, got %+v", cart.Items)
	}
	if cart.TotalItemCount != 2 || cart.TotalPriceCents != 50000 {
		t.Fatalf("unexpected totals: %d items, %d cents", cart.TotalItemCount, cart.TotalPriceCents)
	}
	if cart.ExpiresAt == nil {
		t.Fatal("anonymous carts must carry a retention deadline")
	}
}

func TestUpsertItemIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	productID := h.addProduct("Turntable", "audio", 25000, 10)
	owner := SessionOwner("sess-1")

	if _, err := h.svc.UpsertItem(context.Background(), owner, productID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, err := h.svc.UpsertItem(context.Background(), owner, productID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("expected the line to accumulate to 5, got %+v", cart.Items)
	}
}

func TestSetItemQuantityReplaces(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	productID := h.addProduct("Turntable", "audio", 25000, 10)
	owner := SessionOwner("sess-1")

	if _, err := h.svc.UpsertItem(context.Background(), owner, productID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, err := h.svc.SetItemQuantity(context.Background(), owner, productID, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Items[0].Quantity != 7 {
		t.Fatalf("set must replace, not add: got %d", cart.Items[0].Quantity)
	}
}

func TestUpsertItemRejectsInvalidQuantity(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	productID := h.addProduct("Turntable", "audio", 25000, 10)
	owner := SessionOwner("sess-1")

	_, err := h.svc.UpsertItem(context.Background(), owner, productID, 0)
	assertCode(t, err, pkgerrors.CodeInvalidQuantity)
	if len(h.repo.carts) != 0 {
		t.Fatal("a rejected mutation must not create a cart")
	}
}

func TestUpsertItemRejectsInsufficientStock(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	productID := h.addProduct("Rare Pressing", "vinyl", 9000, 3)
	owner := SessionOwner("sess-1")

	if _, err := h.svc.UpsertItem(context.Background(), owner, productID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := h.svc.UpsertItem(context.Background(), owner, productID, 2)
	assertCode(t, err, pkgerrors.CodeInsufficientStock)

	cart, err := h.svc.GetCart(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Items[0].Quantity != 2 || cart.TotalItemCount != 2 {
		t.Fatalf("rejected mutation must leave the cart unchanged: %+v", cart)
	}
}

func TestUpsertItemUnknownProduct(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.UpsertItem(context.Background(), SessionOwner("sess-1"), uuid.New(), 1)
	assertCode(t, err, pkgerrors.CodeProductNotFound)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	productID := h.addProduct("Turntable", "audio", 25000, 10)
	owner := SessionOwner("sess-1")

	if _, err := h.svc.UpsertItem(context.Background(), owner, productID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart, err := h.svc.RemoveItem(context.Background(), owner, productID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 0 || cart.TotalItemCount != 0 || cart.TotalPriceCents != 0 {
		t.Fatalf("remove must zero the cart: %+v", cart)
	}

	again, err := h.svc.RemoveItem(context.Background(), owner, productID)
	if err != nil {
		t.Fatalf("removing an absent line must succeed: %v", err)
	}
	if len(again.Items) != 0 {
		t.Fatalf("unexpected items: %+v", again.Items)
	}
}

func TestRemoveItemMissingCart(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.RemoveItem(context.Background(), SessionOwner("sess-1"), uuid.New())
	assertCode(t, err, pkgerrors.CodeCartNotFound)
}

func TestClearKeepsRecord(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	first := h.addProduct("Turntable", "audio", 25000, 10)
	second := h.addProduct("Record Crate", "vinyl", 1000, 50)
	owner := SessionOwner("sess-1")

	if _, err := h.svc.UpsertItem(context.Background(), owner, first, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.UpsertItem(context.Background(), owner, second, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cleared, err := h.svc.Clear(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleared.Items) != 0 || cleared.TotalItemCount != 0 || cleared.TotalPriceCents != 0 {
		t.Fatalf("clear must empty the cart: %+v", cleared)
	}

	if _, err := h.svc.GetCart(context.Background(), owner); err != nil {
		t.Fatalf("the cart record must survive a clear: %v", err)
	}
}

func TestOwnerValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.svc.GetCart(context.Background(), Owner{})
	assertCode(t, err, pkgerrors.CodeValidation)

	accountID := uuid.New()
	token := "sess-1"
	both := Owner{AccountID: &accountID, SessionToken: &token}
	_, err = h.svc.GetCart(context.Background(), both)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestGetPricedCartPersistsAppliedCode(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.rules.rules["SPRING10"] = percentRule("SPRING10", 10)
	productID := h.addProduct("Turntable", "audio", 25000, 10)
	owner := SessionOwner("sess-1")

	if _, err := h.svc.UpsertItem(context.Background(), owner, productID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code := "SPRING10"
	priced, err := h.svc.GetPricedCart(context.Background(), owner, &code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if priced.Breakdown.AppliedPromotionCode == nil {
		t.Fatalf("expected applied code, got %+v", priced.Breakdown)
	}

	stored, err := h.svc.GetCart(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.AppliedPromotionCode == nil || *stored.AppliedPromotionCode != "SPRING10" {
		t.Fatalf("applied code must persist on the cart: %+v", stored.AppliedPromotionCode)
	}

	bad := "NOPE"
	rejected, err := h.svc.GetPricedCart(context.Background(), owner, &bad)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Breakdown.PromotionFailure == nil {
		t.Fatalf("expected a reported failure, got %+v", rejected.Breakdown)
	}

	stored, err = h.svc.GetCart(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.AppliedPromotionCode != nil {
		t.Fatalf("a rejected code must clear the persisted one: %v", *stored.AppliedPromotionCode)
	}
}

func TestRandomizedOperationsKeepTotalsConsistent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	owner := SessionOwner("sess-fuzz")

	rng := rand.New(rand.NewSource(42))
	productIDs := make([]uuid.UUID, 8)
	prices := make(map[uuid.UUID]int64, len(productIDs))
	for i := range productIDs {
		price := int64(rng.Intn(10000) + 1)
		productIDs[i] = h.addProduct("Product", "misc", price, 1_000_000)
		prices[productIDs[i]] = price
	}

	expected := map[uuid.UUID]int{}
	for i := 0; i < 1000; i++ {
		productID := productIDs[rng.Intn(len(productIDs))]
		var (
			cart *models.Cart
			err  error
		)
		switch rng.Intn(10) {
		case 0:
			cart, err = h.svc.Clear(context.Background(), owner)
			if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeCartNotFound {
				continue
			}
			expected = map[uuid.UUID]int{}
		case 1, 2:
			cart, err = h.svc.RemoveItem(context.Background(), owner, productID)
			if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeCartNotFound {
				continue
			}
			delete(expected, productID)
		case 3, 4:
			quantity := rng.Intn(5) + 1
			cart, err = h.svc.SetItemQuantity(context.Background(), owner, productID, quantity)
			expected[productID] = quantity
		default:
			quantity := rng.Intn(3) + 1
			cart, err = h.svc.UpsertItem(context.Background(), owner, productID, quantity)
			expected[productID] += quantity
		}
		if err != nil {
			t.Fatalf("operation %d failed: %v", i, err)
		}

		wantCount := 0
		var wantPrice int64
		for id, quantity := range expected {
			wantCount += quantity
			wantPrice += int64(quantity) * prices[id]
		}
		if cart.TotalItemCount != wantCount || cart.TotalPriceCents != wantPrice {
			t.Fatalf("operation %d: totals drifted, want %d/%d got %d/%d",
				i, wantCount, wantPrice, cart.TotalItemCount, cart.TotalPriceCents)
		}
	}
}
