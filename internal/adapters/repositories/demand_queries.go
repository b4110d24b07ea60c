package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"store-route-planner/internal/domain"
)

const listLocationsQuery = `
	SELECT
		location_id,
		name,
		code,
		region,
		lat,
		lon
	FROM store_locations
	WHERE ? = ''
		OR lower(name) LIKE ? ESCAPE '\'
		OR lower(code) LIKE ? ESCAPE '\'
	ORDER BY location_id;
	`

const listRegionsQuery = `
	SELECT l.region
	FROM store_locations l
	JOIN store_demands d ON d.location_id = l.location_id
	GROUP BY l.region
	HAVING SUM(d.boxes) > 0
	ORDER BY l.region;
	`

const listDemandQuery = `
	SELECT
		l.location_id,
		l.name,
		l.code,
		l.region,
		l.lat,
		l.lon,
		d.boxes
	FROM store_locations l
	JOIN store_demands d ON d.location_id = l.location_id
	WHERE l.region = ?
		AND d.boxes > 0
	ORDER BY l.location_id;
	`

const listAllDemandQuery = `
	SELECT
		l.location_id,
		l.name,
		l.code,
		l.region,
		l.lat,
		l.lon,
		COALESCE(d.boxes, 0)
	FROM store_locations l
	LEFT JOIN store_demands d ON d.location_id = l.location_id
	ORDER BY l.location_id;
	`

const upsertDemandQuery = `
	INSERT INTO store_demands (
		location_id,
		boxes,
		updated_at
	)
	VALUES (?, ?, ?)
	ON CONFLICT (location_id) DO UPDATE SET
		boxes = excluded.boxes,
		updated_at = excluded.updated_at;
	`

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func likePattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}

func listLocations(ctx context.Context, db *sql.DB, d Dialect, query string) ([]domain.StoreLocation, error) {
	q := strings.TrimSpace(query)
	pattern := likePattern(q)

	rows, err := db.QueryContext(ctx, d.Rebind(listLocationsQuery), q, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("list locations: query store_locations table: %w", err)
	}
	defer rows.Close()

	locations := make([]domain.StoreLocation, 0, 64)
	for rows.Next() {
		var l domain.StoreLocation
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.Region, &l.Coords.Lat, &l.Coords.Lon); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: row iteration: %w", err)
	}

	return locations, nil
}

func listRegions(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, listRegionsQuery)
	if err != nil {
		return nil, fmt.Errorf("list regions: query: %w", err)
	}
	defer rows.Close()

	regions := []string{}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("list regions: scan row: %w", err)
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list regions: row iteration: %w", err)
	}

	return regions, nil
}

func queryDemand(ctx context.Context, db *sql.DB, op, query string, args ...any) ([]domain.DemandRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query demand: %w", op, err)
	}
	defer rows.Close()

	records := make([]domain.DemandRecord, 0, 64)
	for rows.Next() {
		var r domain.DemandRecord
		l := &r.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Code, &l.Region, &l.Coords.Lat, &l.Coords.Lon, &r.Boxes); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w", op, err)
	}

	return records, nil
}

// normalizeUpdates rejects out-of-range demand and collapses repeated ids, the
// last update winning. The returned ids are in first-seen order.
func normalizeUpdates(updates []domain.DemandUpdate) ([]domain.DemandUpdate, []int64, error) {
	index := make(map[int64]int, len(updates))
	out := make([]domain.DemandUpdate, 0, len(updates))
	for _, u := range updates {
		if u.Boxes < 0 {
			return nil, nil, domain.NewInputError(
				"boxes",
				fmt.Sprintf("location_id=%d has negative demand %d", u.LocationID, u.Boxes),
			)
		}
		if u.Boxes > domain.MaxBoxes {
			return nil, nil, domain.NewInputError(
				"boxes",
				fmt.Sprintf("location_id=%d demand %d exceeds %d", u.LocationID, u.Boxes, domain.MaxBoxes),
			)
		}
		if i, ok := index[u.LocationID]; ok {
			out[i] = u
			continue
		}
		index[u.LocationID] = len(out)
		out = append(out, u)
	}

	ids := make([]int64, len(out))
	for i, u := range out {
		ids[i] = u.LocationID
	}
	return out, ids, nil
}

func checkKnown(ids []int64, known map[int64]struct{}) error {
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return domain.NewInputError("location_id", fmt.Sprintf("unknown location_id=%d", id))
		}
	}
	return nil
}

func scanIDs(rows *sql.Rows) (map[int64]struct{}, error) {
	defer rows.Close()

	known := map[int64]struct{}{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan location id: %w", err)
		}
		known[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("location id iteration: %w", err)
	}
	return known, nil
}

func writeDemand(ctx context.Context, db *sql.DB, d Dialect, updates []domain.DemandUpdate) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set demands: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, d.Rebind(upsertDemandQuery))
	if err != nil {
		return fmt.Errorf("set demands: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.LocationID, u.Boxes, now); err != nil {
			return fmt.Errorf("set demands: upsert location_id=%d: %w", u.LocationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set demands: commit tx: %w", err)
	}
	return nil
}
