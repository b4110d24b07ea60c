package cache

import (
	"context"

	"store-route-planner/internal/domain"
)

// NoopPlanCache never stores anything; used when no Redis address is configured.
type NoopPlanCache struct{}

func (NoopPlanCache) Get(context.Context, string) (*domain.RoutePlan, bool, error) {
	return nil, false, nil
}

func (NoopPlanCache) Put(context.Context, string, *domain.RoutePlan) error { return nil }
