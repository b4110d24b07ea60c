package dto

// PlanRequest selects a region and optionally overrides the fleet settings.
// Zero counts and an omitted cost_per_km use the server defaults.
type PlanRequest struct {
	Region          string   `json:"region" validate:"required"`
	VehicleCount    int      `json:"vehicle_count" validate:"gte=0,lte=50"`
	VehicleCapacity int      `json:"vehicle_capacity" validate:"gte=0"`
	CostPerKm       *float64 `json:"cost_per_km" validate:"omitempty,gte=0"`
}
