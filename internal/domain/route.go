package domain

import "time"

// PlanConfig is the configuration a RoutePlan was computed with.
type PlanConfig struct {
	VehicleCapacity int         `json:"vehicle_capacity"`
	VehicleCount    int         `json:"vehicle_count"`
	CostPerKm       float64     `json:"cost_per_km"`
	Warehouse       Coordinates `json:"warehouse"`
}

// Represents one stop of a solved trip, in visiting order.
// The warehouse appears as the first and last stop with IsDepot set.
type PlannedStop struct {
	Order    int            `json:"order"`
	IsDepot  bool           `json:"is_depot"`
	Location *StoreLocation `json:"location,omitempty"`
	Boxes    int            `json:"boxes"`
	Part     int            `json:"part,omitempty"`
	Parts    int            `json:"parts,omitempty"`
}

// Represents one capacity-bounded trip of a vehicle.
// Unsolved trips carry no tour and contribute no distance or cost.
type TripPlan struct {
	Trip       int           `json:"trip"`
	Load       int           `json:"load"`
	Chunks     []DemandChunk `json:"chunks"`
	Stops      []PlannedStop `json:"stops"`
	Tour       *Tour         `json:"tour,omitempty"`
	DistanceKm float64       `json:"distance_km"`
	CostSAR    float64       `json:"cost_sar"`
	Solved     bool          `json:"solved"`
	Failure    string        `json:"failure,omitempty"`
}

// Represents all trips driven by one vehicle.
type VehiclePlan struct {
	Vehicle     int        `json:"vehicle"`
	DemandBoxes int        `json:"demand_boxes"`
	StoreCount  int        `json:"store_count"`
	Trips       []TripPlan `json:"trips"`
	DistanceKm  float64    `json:"distance_km"`
	CostSAR     float64    `json:"cost_sar"`
}

// Region level aggregates over every vehicle.
type RegionTotals struct {
	DistanceKm    float64 `json:"distance_km"`
	CostSAR       float64 `json:"cost_sar"`
	DemandBoxes   int     `json:"demand_boxes"`
	StoreCount    int     `json:"store_count"`
	TripCount     int     `json:"trip_count"`
	UnsolvedTrips int     `json:"unsolved_trips"`
}

// Represents the planned deliveries for one region.
// A RoutePlan is the output of the routing engine. It is immutable planning
// data; Partial is set when at least one trip could not be solved.
type RoutePlan struct {
	PlanID    string        `json:"plan_id"`
	Region    string        `json:"region"`
	CreatedAt time.Time     `json:"created_at"`
	Config    PlanConfig    `json:"config"`
	Vehicles  []VehiclePlan `json:"vehicles"`
	Totals    RegionTotals  `json:"totals"`
	Partial   bool          `json:"partial"`
}
