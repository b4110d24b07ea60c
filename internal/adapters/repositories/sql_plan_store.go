package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"
	"store-route-planner/internal/ports"
)

// SQLPlanStore keeps each route plan as a JSON document keyed by plan id.
type SQLPlanStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLPlanStore(db *sql.DB, dialect Dialect) *SQLPlanStore {
	return &SQLPlanStore{DB: db, Dialect: dialect}
}

func (s *SQLPlanStore) SavePlan(ctx context.Context, plan *domain.RoutePlan) (err error) {
	defer obs.Time(ctx, "plans.SavePlan")(&err)

	if s.DB == nil {
		return errors.New("plan store: db is nil")
	}
	if plan == nil || plan.PlanID == "" {
		return errors.New("save plan: plan id must not be empty")
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("save plan: encode plan_id=%s: %w", plan.PlanID, err)
	}

	q := s.Dialect.Rebind(`
	INSERT INTO route_plans (
		plan_id,
		region,
		created_at,
		payload
	)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (plan_id) DO UPDATE SET
		region = excluded.region,
		created_at = excluded.created_at,
		payload = excluded.payload;
	`)
	if _, err := s.DB.ExecContext(ctx, q,
		plan.PlanID,
		plan.Region,
		plan.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(payload),
	); err != nil {
		return fmt.Errorf("save plan: insert plan_id=%s: %w", plan.PlanID, err)
	}

	return nil
}

func (s *SQLPlanStore) GetPlan(ctx context.Context, planID string) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "plans.GetPlan")(&err)

	if s.DB == nil {
		return nil, errors.New("plan store: db is nil")
	}

	q := s.Dialect.Rebind(`
	SELECT payload
	FROM route_plans
	WHERE plan_id = ?;
	`)

	var payload string
	if err := s.DB.QueryRowContext(ctx, q, planID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get plan: plan_id=%s: %w", planID, ports.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("get plan: query plan_id=%s: %w", planID, err)
	}

	var plan domain.RoutePlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("get plan: decode plan_id=%s: %w", planID, err)
	}

	return &plan, nil
}
