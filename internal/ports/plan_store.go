package ports

import (
	"context"
	"errors"

	"store-route-planner/internal/domain"
)

var ErrPlanNotFound = errors.New("plan not found")

// Port: durable storage of computed route plans.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *domain.RoutePlan) error
	// GetPlan returns ErrPlanNotFound (possibly wrapped) for unknown ids.
	GetPlan(ctx context.Context, planID string) (*domain.RoutePlan, error)
}

// Optional short-lived cache in front of the engine, keyed by the
// region, configuration and demand that produced a plan.
type PlanCache interface {
	Get(ctx context.Context, key string) (*domain.RoutePlan, bool, error)
	Put(ctx context.Context, key string, plan *domain.RoutePlan) error
}
