package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"store-route-planner/internal/adapters/export"
	"store-route-planner/internal/adapters/repositories"
	"store-route-planner/internal/config"
	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/db"
	"store-route-planner/internal/platform/logging"
	"store-route-planner/internal/ports"
)

// dbtool prepares a database: schema, store catalog and, when DEMAND_CSV is
// set, an initial demand sheet.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger, closer := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg); err != nil {
		logger.Error("dbtool failed", "err", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	dialect, err := repositories.DialectFor(cfg.DBDriver)
	if err != nil {
		return err
	}

	dsn := cfg.DBPath
	if cfg.DBDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	conn, err := db.OpenDriver(cfg.DBDriver, dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := initAndSeed(conn, cfg.SeedPath, dialect); err != nil {
		return err
	}

	if cfg.DemandCSV == "" {
		return nil
	}

	var repo ports.DemandRepository = repositories.NewSqliteDemandRepository(conn)
	if dialect == repositories.DialectPostgres {
		repo = repositories.NewSQLDemandRepository(conn)
	}
	return importDemand(ctx, repo, cfg.DemandCSV)
}

func initAndSeed(conn *sql.DB, seedPath string, dialect repositories.Dialect) error {
	slog.Info("initializing database schema")
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	slog.Info("schema ready")

	slog.Info("seeding store catalog", "path", seedPath)
	if err := repositories.SeedCatalogFromJSON(conn, seedPath, dialect); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	slog.Info("seeding complete")

	return nil
}

func importDemand(ctx context.Context, repo ports.DemandRepository, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import demand: %w", err)
	}
	defer f.Close()

	var records []domain.DemandRecord
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = export.ReadDemandXLSX(f)
	} else {
		records, err = export.ReadDemandCSV(f)
	}
	if err != nil {
		return fmt.Errorf("import demand %q: %w", path, err)
	}

	catalog, err := repo.ListLocations(ctx, "")
	if err != nil {
		return fmt.Errorf("import demand: %w", err)
	}

	updates, unmatched := export.MatchCatalog(catalog, records)
	for _, u := range unmatched {
		slog.Warn("demand row matches no catalog location",
			"store", u.Location.Name, "code", u.Location.Code, "region", u.Location.Region)
	}

	if err := repo.SetDemands(ctx, updates); err != nil {
		return fmt.Errorf("import demand: %w", err)
	}
	slog.Info("demand imported", "path", path, "updated", len(updates), "unmatched", len(unmatched))
	return nil
}
