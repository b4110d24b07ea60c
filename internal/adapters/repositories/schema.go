package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax. The schema and queries are otherwise
// shared between SQLite and PostgreSQL.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return DialectSQLite, nil
	case "pgx":
		return DialectPostgres, nil
	}
	return 0, fmt.Errorf("unsupported driver %q", driver)
}

// Rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Initialize the database schema. The statements are valid for both SQLite
// and PostgreSQL.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS store_locations (
		location_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		region TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createDemandsQuery := `
	CREATE TABLE IF NOT EXISTS store_demands (
		location_id BIGINT PRIMARY KEY REFERENCES store_locations(location_id),
		boxes INTEGER NOT NULL CHECK (boxes >= 0),
		updated_at TEXT NOT NULL
	);
	`

	createPlansQuery := `
	CREATE TABLE IF NOT EXISTS route_plans (
		plan_id TEXT PRIMARY KEY,
		region TEXT NOT NULL,
		created_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_store_locations_region
	ON store_locations(region);
	`

	statements := []string{
		createLocationsQuery,
		createDemandsQuery,
		createPlansQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
