package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"
)

// SQLDemandRepository is the PostgreSQL (pgx) implementation of the
// DemandRepository port.
type SQLDemandRepository struct {
	DB *sql.DB
}

func NewSQLDemandRepository(db *sql.DB) *SQLDemandRepository {
	return &SQLDemandRepository{DB: db}
}

func (s *SQLDemandRepository) ListLocations(ctx context.Context, query string) ([]domain.StoreLocation, error) {
	if s.DB == nil {
		return nil, errors.New("demand repository: db is nil")
	}
	return listLocations(ctx, s.DB, DialectPostgres, query)
}

func (s *SQLDemandRepository) ListRegions(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("demand repository: db is nil")
	}
	return listRegions(ctx, s.DB)
}

func (s *SQLDemandRepository) ListDemand(ctx context.Context, region string) (_ []domain.DemandRecord, err error) {
	defer obs.Time(ctx, "repo.sql.ListDemand")(&err)

	if s.DB == nil {
		return nil, errors.New("demand repository: db is nil")
	}
	return queryDemand(ctx, s.DB, "list demand", DialectPostgres.Rebind(listDemandQuery), region)
}

func (s *SQLDemandRepository) ListAllDemand(ctx context.Context) ([]domain.DemandRecord, error) {
	if s.DB == nil {
		return nil, errors.New("demand repository: db is nil")
	}
	return queryDemand(ctx, s.DB, "list all demand", listAllDemandQuery)
}

func (s *SQLDemandRepository) SetDemands(ctx context.Context, updates []domain.DemandUpdate) (err error) {
	defer obs.Time(ctx, "repo.sql.SetDemands")(&err)

	if s.DB == nil {
		return errors.New("demand repository: db is nil")
	}

	updates, ids, err := normalizeUpdates(updates)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	q := `
	SELECT location_id
	FROM store_locations
	WHERE location_id = ANY($1::bigint[]);
	`
	rows, err := s.DB.QueryContext(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("set demands: query store_locations table: %w", err)
	}
	known, err := scanIDs(rows)
	if err != nil {
		return fmt.Errorf("set demands: %w", err)
	}
	if err := checkKnown(ids, known); err != nil {
		return err
	}

	return writeDemand(ctx, s.DB, DialectPostgres, updates)
}
