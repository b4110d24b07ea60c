package services

import (
	"fmt"
	"strconv"

	"store-route-planner/internal/domain"

	"github.com/cespare/xxhash/v2"
)

// PlanCacheKey identifies the plan a given region, configuration and demand
// would produce. Any change to an input that affects the result changes the key.
func PlanCacheKey(region string, cfg EngineConfig, records []domain.DemandRecord) string {
	d := xxhash.New()

	fmt.Fprintf(d, "region=%q;cap=%d;vehicles=%d;rate=%s;",
		region, cfg.VehicleCapacity, cfg.VehicleCount, strconv.FormatFloat(cfg.CostPerKm, 'g', -1, 64))
	fmt.Fprintf(d, "depot=%s,%s;",
		strconv.FormatFloat(cfg.Warehouse.Lat, 'g', -1, 64), strconv.FormatFloat(cfg.Warehouse.Lon, 'g', -1, 64))
	fmt.Fprintf(d, "seed=%d;restarts=%d;iter=%d;improve=%t;budget=%d;",
		cfg.Cluster.Seed, cfg.Cluster.Restarts, cfg.Cluster.MaxIterations, cfg.ImproveTours, cfg.TourBudget)

	// Names and codes are copied into the plan, so a catalog rename must miss.
	for _, r := range records {
		fmt.Fprintf(d, "%d:%q:%q:%q@%s,%s=%d;",
			r.Location.ID,
			r.Location.Name,
			r.Location.Code,
			r.Location.Region,
			strconv.FormatFloat(r.Location.Coords.Lat, 'g', -1, 64),
			strconv.FormatFloat(r.Location.Coords.Lon, 'g', -1, 64),
			r.Boxes,
		)
	}

	return fmt.Sprintf("%016x", d.Sum64())
}
