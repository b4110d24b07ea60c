package api

import (
	"log/slog"
	"net/http"

	"store-route-planner/internal/api/handlers"
	"store-route-planner/internal/platform/obs"
	"store-route-planner/internal/ports"
)

// Deps holds what the HTTP layer needs. Metrics and Logger may be nil.
type Deps struct {
	Repo    ports.DemandRepository
	Planner handlers.PlanService
	Metrics *obs.Metrics
	Logger  *slog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	storeHandler := &handlers.StoreHandler{Repo: deps.Repo}
	demandHandler := &handlers.DemandHandler{Repo: deps.Repo}
	planHandler := &handlers.PlanHandler{Planner: deps.Planner}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/stores", storeHandler.List)
	mux.HandleFunc("/regions", storeHandler.Regions)
	mux.HandleFunc("/demands", demandHandler.Set)
	mux.HandleFunc("/demands/export", demandHandler.Export)
	mux.HandleFunc("/demands/import", demandHandler.Import)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.HandleFunc("/plans/{id}", planHandler.Get)
	mux.HandleFunc("/plans/{id}/export", planHandler.Export)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return requestIDMiddleware(loggingMiddleware(logger, deps.Metrics, mux))
}
