// internal/clients/creditsafe/cache.go
package creditsafe

import (
	"context"
	"errors"
	"strings"
	"time"

	"lease-risk-workers/internal/common/database"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/models"
)

// Fetcher is anything that can produce a company report by VAT number.
type Fetcher interface {
	FetchCompany(ctx context.Context, vatNumber string) (*models.CompanyReport, error)
}

// CachedBureau is a cache-aside decorator over a Fetcher. Redis errors are
// logged and the call falls through to the underlying fetcher.
type CachedBureau struct {
	next   Fetcher
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedBureau(next Fetcher, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedBureau {
	return &CachedBureau{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "bureau-cache"}),
	}
}

func CacheKey(vatNumber string) string {
	return "creditsafe:report:" + strings.ToUpper(vatNumber)
}

func (b *CachedBureau) FetchCompany(ctx context.Context, vatNumber string) (*models.CompanyReport, error) {
	key := CacheKey(vatNumber)

	var cached models.CompanyReport
	err := b.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		b.logger.Debug("bureau cache hit", map[string]interface{}{"vatNumber": vatNumber})
		return &cached, nil
	case !errors.Is(err, database.ErrCacheMiss):
		b.logger.Warn("bureau cache read failed", map[string]interface{}{"vatNumber": vatNumber, "error": err})
	}

	report, err := b.next.FetchCompany(ctx, vatNumber)
	if err != nil {
		return nil, err
	}

	if err := b.cache.SetJSON(ctx, key, report, b.ttl); err != nil {
		b.logger.Warn("bureau cache write failed", map[string]interface{}{"vatNumber": vatNumber, "error": err})
	}
	return report, nil
}
