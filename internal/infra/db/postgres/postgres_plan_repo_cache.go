package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skynet-vpn-store/internal/domain/model"
	"skynet-vpn-store/internal/domain/ports/repository"
	"skynet-vpn-store/internal/infra/metrics"
	red "skynet-vpn-store/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	key := fmt.Sprintf("plan:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var p model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &p) == nil {
			return &p, nil
		}
	}

	metrics.IncCacheRequest("plan", "miss")
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	_ = d.cache.Del(ctx,
		fmt.Sprintf("plan:%s", p.ID),
		fmt.Sprintf("plans:product:%s", p.ProductID),
		"plans:all",
	)
	return d.inner.Save(ctx, tx, p)
}

func (d *planRepoCacheDecorator) ListByProduct(ctx context.Context, tx repository.Tx, productID string) ([]*model.SubscriptionPlan, error) {
	key := fmt.Sprintf("plans:product:%s", productID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var ps []*model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &ps) == nil {
			return ps, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	ps, err := d.inner.ListByProduct(ctx, tx, productID)
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

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	// Seeding and admin paths only; not worth caching.
	return d.inner.ListAll(ctx, tx)
}
