package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"store-route-planner/internal/adapters/cache"
	"store-route-planner/internal/adapters/repositories"
	"store-route-planner/internal/api"
	"store-route-planner/internal/config"
	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/db"
	"store-route-planner/internal/platform/logging"
	"store-route-planner/internal/platform/obs"
	"store-route-planner/internal/ports"
	"store-route-planner/internal/services"

	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (SQL storage, Redis) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closer := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	defer closer.Close()
	slog.SetDefault(logger)

	dialect, err := repositories.DialectFor(cfg.DBDriver)
	if err != nil {
		return err
	}

	conn, err := db.OpenDriver(cfg.DBDriver, dsn(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	// Initialize schema and seed the store catalog on startup for local runs.
	if err := initAndSeed(conn, cfg.SeedPath, dialect); err != nil {
		return err
	}

	planCache, closeCache := newPlanCache(cfg)
	defer closeCache()

	metrics := obs.NewMetrics()
	repo := newDemandRepository(conn, dialect)
	planner := &services.Planner{
		Repo:     repo,
		Store:    repositories.NewSQLPlanStore(conn, dialect),
		Cache:    planCache,
		Defaults: engineDefaults(cfg),
		Metrics:  metrics,
		Logger:   logger,
	}

	router := api.NewRouter(api.Deps{
		Repo:    repo,
		Planner: planner,
		Metrics: metrics,
		Logger:  logger,
	})

	// Large regions can take a while to solve, hence the generous write timeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func dsn(cfg config.Config) string {
	if cfg.DBDriver == db.DriverPostgres {
		return cfg.DatabaseURL
	}
	return cfg.DBPath
}

func initAndSeed(conn *sql.DB, seedPath string, dialect repositories.Dialect) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if seedPath == "" {
		return nil
	}
	if err := repositories.SeedCatalogFromJSON(conn, seedPath, dialect); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

func newDemandRepository(conn *sql.DB, dialect repositories.Dialect) ports.DemandRepository {
	if dialect == repositories.DialectPostgres {
		return repositories.NewSQLDemandRepository(conn)
	}
	return repositories.NewSqliteDemandRepository(conn)
}

// newPlanCache returns a Redis-backed cache when REDIS_ADDR is set.
func newPlanCache(cfg config.Config) (ports.PlanCache, func()) {
	if cfg.RedisAddr == "" || cfg.PlanCacheTTL == 0 {
		return cache.NoopPlanCache{}, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	slog.Info("plan cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.PlanCacheTTL.String())
	return cache.NewRedisPlanCache(client, cfg.PlanCacheTTL), func() {
		if err := client.Close(); err != nil {
			slog.Warn("close redis client", "err", err)
		}
	}
}

func engineDefaults(cfg config.Config) services.EngineConfig {
	ec := services.DefaultEngineConfig()
	ec.VehicleCapacity = cfg.VehicleCapacity
	ec.VehicleCount = cfg.VehicleCount
	ec.CostPerKm = cfg.CostPerKm
	ec.Warehouse = domain.Coordinates{Lat: cfg.WarehouseLat, Lon: cfg.WarehouseLon}
	ec.Cluster.Seed = cfg.ClusterSeed
	ec.Workers = cfg.SolverWorkers
	if cfg.TourBudget > 0 {
		ec.TourBudget = cfg.TourBudget
	}
	if cfg.MaxChunks > 0 {
		ec.MaxChunks = cfg.MaxChunks
	}
	return ec
}
