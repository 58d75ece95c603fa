package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/ports/repository"
	"course-payment-engine/internal/infra/metrics"
	red "course-payment-engine/internal/infra/redis"
)

var _ repository.CatalogRepository = (*catalogRepoCacheDecorator)(nil)

// catalogRepoCacheDecorator caches product→program lookups in Redis. The
// catalog is owned elsewhere and read-only from this engine, so entries
// simply expire; there is no write path to invalidate.
type catalogRepoCacheDecorator struct {
	inner repository.CatalogRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCatalogRepoCacheDecorator(inner repository.CatalogRepository, cache red.RedisClient, ttl time.Duration) repository.CatalogRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &catalogRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *catalogRepoCacheDecorator) FindProduct(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	key := fmt.Sprintf("product:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.Product
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("product", "hit")
			return &p, nil
		}
	}

	metrics.IncCacheRequest("product", "miss")
	p, err := d.inner.FindProduct(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return p, nil
}
