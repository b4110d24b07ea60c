package services

import (
	"store-route-planner/internal/domain"
	"store-route-planner/internal/geo"
)

// TripMetrics is the distance and cost of one solved tour.
type TripMetrics struct {
	DistanceKm float64
	CostSAR    float64
}

// EvaluateTour converts a tour into kilometers and cost at a fixed linear rate.
// Arc costs come from the same matrix the tour was solved on; every arc of
// the tour must be reachable.
func EvaluateTour(tour domain.Tour, m geo.Matrix, costPerKm float64) TripMetrics {
	meters, _ := tourLength(m, tour.Sequence)
	km := float64(meters) / 1000

	return TripMetrics{
		DistanceKm: km,
		CostSAR:    km * costPerKm,
	}
}

// SummarizeVehicle sums distance and cost over the solved trips of a vehicle.
func SummarizeVehicle(trips []domain.TripPlan) TripMetrics {
	var total TripMetrics
	for _, t := range trips {
		if !t.Solved {
			continue
		}
		total.DistanceKm += t.DistanceKm
		total.CostSAR += t.CostSAR
	}
	return total
}

// SummarizeRegion sums vehicle totals and the raw input demand of a region.
func SummarizeRegion(vehicles []domain.VehiclePlan, records []domain.DemandRecord) domain.RegionTotals {
	totals := domain.RegionTotals{
		DemandBoxes: domain.TotalBoxes(records),
		StoreCount:  len(records),
	}

	for _, v := range vehicles {
		totals.DistanceKm += v.DistanceKm
		totals.CostSAR += v.CostSAR
		totals.TripCount += len(v.Trips)
		for _, t := range v.Trips {
			if !t.Solved {
				totals.UnsolvedTrips++
			}
		}
	}

	return totals
}
