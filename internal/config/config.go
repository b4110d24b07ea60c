package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment.
type Config struct {
	Port        string `validate:"required,numeric"`
	DBDriver    string `validate:"oneof=sqlite pgx"`
	DBPath      string `validate:"required_if=DBDriver sqlite"`
	DatabaseURL string `validate:"required_if=DBDriver pgx"`
	SeedPath    string
	DemandCSV   string

	RedisAddr    string        `validate:"omitempty,hostname_port"`
	PlanCacheTTL time.Duration `validate:"gte=0"`

	WarehouseLat    float64 `validate:"gte=-90,lte=90"`
	WarehouseLon    float64 `validate:"gte=-180,lte=180"`
	VehicleCapacity int     `validate:"gt=0"`
	VehicleCount    int     `validate:"gt=0"`
	CostPerKm       float64 `validate:"gte=0"`
	ClusterSeed     uint64
	SolverWorkers   int `validate:"gte=0"`
	TourBudget      int `validate:"gte=0"`
	MaxChunks       int `validate:"gte=0"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

// Load reads an optional .env file, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: read .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds and validates a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	p := parser{lookup: lookup}

	cfg := Config{
		Port:        p.str("PORT", "8080"),
		DBDriver:    p.str("DB_DRIVER", "sqlite"),
		DBPath:      p.str("DB_PATH", "data/app.db"),
		DatabaseURL: p.str("DATABASE_URL", ""),
		SeedPath:    p.str("SEED_PATH", "data/seeds/stores.json"),
		DemandCSV:   p.str("DEMAND_CSV", ""),

		RedisAddr:    p.str("REDIS_ADDR", ""),
		PlanCacheTTL: p.duration("PLAN_CACHE_TTL", 15*time.Minute),

		WarehouseLat:    p.number("WAREHOUSE_LAT", 24.595356831188536),
		WarehouseLon:    p.number("WAREHOUSE_LON", 46.74032442208924),
		VehicleCapacity: p.integer("VEHICLE_CAPACITY", 400),
		VehicleCount:    p.integer("VEHICLE_COUNT", 4),
		CostPerKm:       p.number("COST_PER_KM", 1.50),
		ClusterSeed:     p.unsigned("CLUSTER_SEED", 42),
		SolverWorkers:   p.integer("SOLVER_WORKERS", 0),
		TourBudget:      p.integer("TOUR_BUDGET", 0),
		MaxChunks:       p.integer("MAX_CHUNKS", 0),

		LogLevel: strings.ToLower(p.str("LOG_LEVEL", "info")),
		LogFile:  p.str("LOG_FILE", ""),
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("load config: validation failed: %w", err)
	}

	return cfg, nil
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, fallback string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (p *parser) integer(key string, fallback int) int {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return fallback
	}
	return v
}

func (p *parser) unsigned(key string, fallback uint64) uint64 {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an unsigned integer", key, raw))
		return fallback
	}
	return v
}

func (p *parser) number(key string, fallback float64) float64 {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, raw))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		return fallback
	}
	return v
}
