package ports

import (
	"context"

	"store-route-planner/internal/domain"
)

// Port: a boundary for the store catalog and its current demand.
type DemandRepository interface {
	// Return catalog locations whose name or code contains query
	// (case-insensitive). An empty query returns everything.
	ListLocations(ctx context.Context, query string) ([]domain.StoreLocation, error)
	// Return regions with positive total demand, sorted by name.
	ListRegions(ctx context.Context) ([]string, error)
	// Return the positive demand of one region in catalog order.
	ListDemand(ctx context.Context, region string) ([]domain.DemandRecord, error)
	// Return every catalog location with its current demand, zero included.
	ListAllDemand(ctx context.Context) ([]domain.DemandRecord, error)
	// Apply demand updates atomically. Unknown locations and negative boxes
	// are rejected with an InputError and nothing is written.
	SetDemands(ctx context.Context, updates []domain.DemandUpdate) error
}
