package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"
	"store-route-planner/internal/ports"

	"github.com/google/uuid"
)

// PlanDeliveriesRequest carries the caller's overrides. Zero counts and a
// nil rate fall back to the planner defaults; a rate of 0 is a free plan.
type PlanDeliveriesRequest struct {
	Region          string
	VehicleCount    int
	VehicleCapacity int
	CostPerKm       *float64
}

// Planner loads demand, runs the engine and persists the result.
// Cache, Store and Metrics are optional.
type Planner struct {
	Repo     ports.DemandRepository
	Store    ports.PlanStore
	Cache    ports.PlanCache
	Defaults EngineConfig
	Metrics  *obs.Metrics
	Logger   *slog.Logger
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// EngineConfig applies req's overrides to the planner defaults.
func (p *Planner) EngineConfig(req PlanDeliveriesRequest) EngineConfig {
	cfg := p.Defaults
	if req.VehicleCount != 0 {
		cfg.VehicleCount = req.VehicleCount
	}
	if req.VehicleCapacity != 0 {
		cfg.VehicleCapacity = req.VehicleCapacity
	}
	if req.CostPerKm != nil {
		cfg.CostPerKm = *req.CostPerKm
	}
	return cfg
}

func (p *Planner) PlanDeliveries(
	ctx context.Context,
	req PlanDeliveriesRequest,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "services.PlanDeliveries")(&err)

	if p.Repo == nil {
		return nil, errors.New("plan deliveries: demand repository is nil")
	}

	region := strings.TrimSpace(req.Region)
	if region == "" {
		p.Metrics.ObservePlan(obs.PlanRejected, 0, 0)
		return nil, domain.NewInputError("region", "must not be empty")
	}

	cfg := p.EngineConfig(req)
	records, err := p.Repo.ListDemand(ctx, region)
	if err != nil {
		p.Metrics.ObservePlan(obs.PlanFailed, 0, 0)
		return nil, fmt.Errorf("plan deliveries: list demand region=%q: %w", region, err)
	}

	key := PlanCacheKey(region, cfg, records)
	if p.Cache != nil {
		cached, ok, err := p.Cache.Get(ctx, key)
		if err != nil {
			p.logger().WarnContext(ctx, "plan cache get failed", "key", key, "err", err)
		}
		if ok {
			p.Metrics.ObservePlan(obs.PlanCached, 0, 0)
			return cached, nil
		}
	}

	start := time.Now()
	engine := NewRoutingEngine(cfg, WithLogger(p.logger()))
	plan, err := engine.PlanRegion(ctx, region, records)
	if err != nil {
		status := obs.PlanFailed
		if errors.Is(err, domain.ErrInvalidInput) {
			status = obs.PlanRejected
		}
		p.Metrics.ObservePlan(status, 0, 0)
		return nil, fmt.Errorf("plan deliveries: %w", err)
	}

	plan.PlanID = uuid.NewString()
	plan.CreatedAt = time.Now().UTC()

	if p.Store != nil {
		if err := p.Store.SavePlan(ctx, plan); err != nil {
			p.Metrics.ObservePlan(obs.PlanFailed, 0, 0)
			return nil, fmt.Errorf("plan deliveries: save plan_id=%s: %w", plan.PlanID, err)
		}
	}

	if p.Cache != nil {
		if err := p.Cache.Put(ctx, key, plan); err != nil {
			p.logger().WarnContext(ctx, "plan cache put failed", "key", key, "err", err)
		}
	}

	status := obs.PlanSolved
	if plan.Partial {
		status = obs.PlanPartial
	}
	p.Metrics.ObservePlan(status, time.Since(start), plan.Totals.UnsolvedTrips)

	return plan, nil
}

// GetPlan returns a previously computed plan.
func (p *Planner) GetPlan(ctx context.Context, planID string) (*domain.RoutePlan, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("get plan %q: %w", planID, ports.ErrPlanNotFound)
	}
	plan, err := p.Store.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan %q: %w", planID, err)
	}
	return plan, nil
}
