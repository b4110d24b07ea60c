package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"
)

// SQLite-backed implementation of the DemandRepository port.
type SqliteDemandRepository struct{ DB *sql.DB }

func NewSqliteDemandRepository(db *sql.DB) *SqliteDemandRepository {
	return &SqliteDemandRepository{DB: db}
}

func (s *SqliteDemandRepository) ListLocations(ctx context.Context, query string) ([]domain.StoreLocation, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite demand repository: DB is nil")
	}
	return listLocations(ctx, s.DB, DialectSQLite, query)
}

func (s *SqliteDemandRepository) ListRegions(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite demand repository: DB is nil")
	}
	return listRegions(ctx, s.DB)
}

// Return the positive demand of region in catalog order.
func (s *SqliteDemandRepository) ListDemand(ctx context.Context, region string) (_ []domain.DemandRecord, err error) {
	defer obs.Time(ctx, "repo.sqlite.ListDemand")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite demand repository: DB is nil")
	}
	return queryDemand(ctx, s.DB, "list demand", listDemandQuery, region)
}

func (s *SqliteDemandRepository) ListAllDemand(ctx context.Context) ([]domain.DemandRecord, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite demand repository: DB is nil")
	}
	return queryDemand(ctx, s.DB, "list all demand", listAllDemandQuery)
}

// Apply demand updates in one transaction after checking every location exists.
func (s *SqliteDemandRepository) SetDemands(ctx context.Context, updates []domain.DemandUpdate) (err error) {
	defer obs.Time(ctx, "repo.sqlite.SetDemands")(&err)

	if s.DB == nil {
		return errors.New("sqlite demand repository: DB is nil")
	}

	updates, ids, err := normalizeUpdates(updates)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT location_id
	FROM store_locations
	WHERE location_id IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
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

	return writeDemand(ctx, s.DB, DialectSQLite, updates)
}
