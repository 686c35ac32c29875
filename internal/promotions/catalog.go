package promotions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dcortes/shopline-backend/pkg/cache"
	"github.com/dcortes/shopline-backend/pkg/db/models"
	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
)

// ErrUnknownCode signals the code resolves to no registered promotion. Callers
// treat this as a soft failure, not an abort.
var ErrUnknownCode = errors.New("unknown promotion code")

const cacheScope = "promotion"

type promotionFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
}

// Catalog resolves promotion codes into their rule definitions, caching hits
// through the injected TTL cache.
type Catalog interface {
	Resolve(ctx context.Context, code string) (*models.Promotion, error)
}

type catalog struct {
	repo     promotionFinder
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewCatalog builds a promotion catalog. The cache is required so lookup
// lifecycle stays explicit rather than hidden module state.
func NewCatalog(repo promotionFinder, ruleCache cache.Cache, cacheTTL time.Duration) (Catalog, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if ruleCache == nil {
		return nil, fmt.Errorf("rule cache required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &catalog{repo: repo, cache: ruleCache, cacheTTL: cacheTTL}, nil
}

// Resolve returns the rule for code, ErrUnknownCode when unregistered, or a
// dependency error when the store is unreachable.
func (c *catalog) Resolve(ctx context.Context, code string) (*models.Promotion, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrUnknownCode
	}

	if cached, ok := c.fromCache(ctx, normalized); ok {
		return cached, nil
	}

	promotion, err := c.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownCode
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}

	c.toCache(ctx, normalized, promotion)
	return promotion, nil
}

func (c *catalog) fromCache(ctx context.Context, code string) (*models.Promotion, bool) {
	raw, ok, err := c.cache.Get(ctx, c.cacheKey(code))
	if err != nil || !ok {
		return nil, false
	}
	var promotion models.Promotion
	if err := json.Unmarshal([]byte(raw), &promotion); err != nil {
		// Stale or corrupt entry, drop it and fall through to the store.
		_ = c.cache.Evict(ctx, c.cacheKey(code))
		return nil, false
	}
	return &promotion, true
}

func (c *catalog) toCache(ctx context.Context, code string, promotion *models.Promotion) {
	raw, err := json.Marshal(promotion)
	if err != nil {
		return
	}
	_ = c.cache.Set(ctx, c.cacheKey(code), string(raw), c.cacheTTL)
}

func (c *catalog) cacheKey(code string) string {
	return fmt.Sprintf("%s:%s", cacheScope, code)
}
