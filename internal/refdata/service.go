// Package refdata serves the area and category lists used by the search
// filters and the product form.
package refdata

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/redisx"
)

// Fetcher loads reference data from the backend. *api.Client implements it.
type Fetcher interface {
	Areas(ctx context.Context) ([]api.Area, error)
	Categories(ctx context.Context) ([]api.Category, error)
}

// Service reads through an optional Redis cache. A nil client or any cache
// error falls back to the backend.
type Service struct {
	fetch Fetcher
	rdb   *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

func NewService(f Fetcher, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = redisx.TTLRefData
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{fetch: f, rdb: rdb, ttl: ttl, log: log}
}

func (s *Service) Areas(ctx context.Context) ([]api.Area, error) {
	return cached(ctx, s, redisx.KeyAreas, s.fetch.Areas)
}

func (s *Service) Categories(ctx context.Context) ([]api.Category, error) {
	return cached(ctx, s, redisx.KeyCategories, s.fetch.Categories)
}

// Invalidate drops both cached lists.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, redisx.KeyAreas, redisx.KeyCategories).Err()
}

func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.rdb != nil {
		var hit []T
		found, err := redisx.GetJSON(ctx, s.rdb, key, &hit)
		if err != nil {
			s.log.Warn("refdata cache read failed", "key", key, "error", err)
		} else if found {
			return hit, nil
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if err := redisx.SetJSON(ctx, s.rdb, key, items, s.ttl); err != nil {
			s.log.Warn("refdata cache write failed", "key", key, "error", err)
		}
	}
	return items, nil
}
