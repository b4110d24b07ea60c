package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "plan:"

// RedisPlanCache stores plans as JSON values that expire after TTL.
type RedisPlanCache struct {
	Client redis.Cmdable
	TTL    time.Duration
	Prefix string
}

func NewRedisPlanCache(client redis.Cmdable, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{
		Client: client,
		TTL:    ttl,
		Prefix: DefaultKeyPrefix,
	}
}

// Fetch a cached plan. A missing or expired key is a miss, not an error.
func (c *RedisPlanCache) Get(ctx context.Context, key string) (_ *domain.RoutePlan, _ bool, err error) {
	defer obs.Time(ctx, "plan.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("plan cache: client is nil")
	}

	raw, err := c.Client.Get(ctx, c.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get plan cache key=%q: %w", key, err)
	}

	var plan domain.RoutePlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, false, fmt.Errorf("get plan cache key=%q: decode: %w", key, err)
	}

	return &plan, true, nil
}

func (c *RedisPlanCache) Put(ctx context.Context, key string, plan *domain.RoutePlan) (err error) {
	defer obs.Time(ctx, "plan.cache.Put")(&err)

	if c.Client == nil {
		return errors.New("plan cache: client is nil")
	}
	if plan == nil {
		return errors.New("put plan cache: plan is nil")
	}

	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("put plan cache key=%q: encode: %w", key, err)
	}

	if err := c.Client.Set(ctx, c.Prefix+key, raw, c.TTL).Err(); err != nil {
		return fmt.Errorf("put plan cache key=%q: %w", key, err)
	}

	return nil
}
