package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
	"skynet-vpn-store/internal/infra/metrics"
	red "skynet-vpn-store/internal/infra/redis"
	"time"
)

var _ repository.ProductRepository = (*productRepoCacheDecorator)(nil)

// productRepoCacheDecorator caches catalog reads in Redis. The catalog is
// effectively static reference data, so a TTL plus write-through invalidation
// is enough.
type productRepoCacheDecorator struct {
	inner repository.ProductRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProductRepoCacheDecorator(inner repository.ProductRepository, cache red.RedisClient, ttl time.Duration) repository.ProductRepository {
	return &productRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *productRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.VPNProduct, error) {
	key := fmt.Sprintf("product:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("product", "hit")
		var p model.VPNProduct
		if json.Unmarshal([]byte(val), &p) == nil {
			return &p, nil
		}
	}

	metrics.IncCacheRequest("product", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *productRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.VPNProduct) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("product:%s", p.ID), "products:available", "products:all")
	return d.inner.Save(ctx, tx, p)
}

func (d *productRepoCacheDecorator) ListAvailable(ctx context.Context, tx repository.Tx) ([]*model.VPNProduct, error) {
	return d.cachedList(ctx, tx, "products:available", d.inner.ListAvailable)
}

func (d *productRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.VPNProduct, error) {
	return d.cachedList(ctx, tx, "products:all", d.inner.ListAll)
}

func (d *productRepoCacheDecorator) cachedList(
	ctx context.Context, tx repository.Tx, key string,
	load func(context.Context, repository.Tx) ([]*model.VPNProduct, error),
) ([]*model.VPNProduct, error) {
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("product_list", "hit")
		var ps []*model.VPNProduct
		if json.Unmarshal([]byte(val), &ps) == nil {
			return ps, nil
		}
	}

	metrics.IncCacheRequest("product_list", "miss")
	ps, err := load(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(ps) > 0 {
		if b, err := json.Marshal(ps); err == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return ps, nil
}
