package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

type LocationSeed struct {
	LocationID int64   `json:"location_id"`
	Store      string  `json:"store"`
	Code       string  `json:"code"`
	Region     string  `json:"region"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Populate the store catalog from a JSON file. Existing locations are
// updated in place; demand is left untouched.
func SeedCatalogFromJSON(db *sql.DB, jsonPath string, dialect Dialect) error {
	if db == nil {
		return errors.New("seed catalog: DB is nil")
	}

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed catalog: read %q: %w", jsonPath, err)
	}

	var data []LocationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed catalog: parse json: %w", err)
	}

	rows := make([]LocationSeed, 0, len(data))
	seen := make(map[int64]struct{}, len(data))
	for i, item := range data {
		if item.LocationID <= 0 {
			return fmt.Errorf("seed catalog: invalid location_id at index %d: %d", i+1, item.LocationID)
		}
		if _, dup := seen[item.LocationID]; dup {
			return fmt.Errorf("seed catalog: duplicate location_id=%d at index %d", item.LocationID, i+1)
		}
		seen[item.LocationID] = struct{}{}

		item.Store = strings.TrimSpace(item.Store)
		item.Code = strings.TrimSpace(item.Code)
		item.Region = strings.TrimSpace(item.Region)
		if item.Store == "" || item.Code == "" || item.Region == "" {
			return fmt.Errorf("seed catalog: location_id=%d: store, code and region are required", item.LocationID)
		}
		if !validCoord(item.Lat, 90) || !validCoord(item.Lon, 180) {
			return fmt.Errorf("seed catalog: location_id=%d: coordinates out of range (%v, %v)", item.LocationID, item.Lat, item.Lon)
		}
		rows = append(rows, item)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed catalog: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := dialect.Rebind(`
	INSERT INTO store_locations (
		location_id,
		name,
		code,
		region,
		lat,
		lon
	)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (location_id) DO UPDATE SET
		name = excluded.name,
		code = excluded.code,
		region = excluded.region,
		lat = excluded.lat,
		lon = excluded.lon;
	`)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed catalog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.LocationID, r.Store, r.Code, r.Region, r.Lat, r.Lon); err != nil {
			return fmt.Errorf("seed catalog: insert location_id=%d: %w", r.LocationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: commit tx: %w", err)
	}

	return nil
}

func validCoord(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
