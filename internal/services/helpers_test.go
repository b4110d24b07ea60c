package services

import (
	"math"

	"store-route-planner/internal/domain"
)

var depot = domain.Coordinates{Lat: 24.595356831188536, Lon: 46.74032442208924}

func demand(id int64, lat, lon float64, boxes int) domain.DemandRecord {
	return domain.DemandRecord{
		Location: domain.StoreLocation{
			ID:     id,
			Name:   "store",
			Code:   "S",
			Region: "Riyadh",
			Coords: domain.Coordinates{Lat: lat, Lon: lon},
		},
		Boxes: boxes,
	}
}

// riyadhDemand is a small spread of stores around the warehouse.
func riyadhDemand() []domain.DemandRecord {
	return []domain.DemandRecord{
		demand(1, 24.7136, 46.6753, 120),
		demand(2, 24.7200, 46.6900, 80),
		demand(3, 24.7050, 46.6600, 60),
		demand(4, 24.5200, 46.8100, 200),
		demand(5, 24.5300, 46.8200, 150),
		demand(6, 24.5100, 46.7900, 90),
		demand(7, 24.8200, 46.6100, 300),
		demand(8, 24.8300, 46.6200, 40),
		demand(9, 24.6500, 46.9000, 500),
		demand(10, 24.6600, 46.9100, 70),
	}
}

func nanCoord() float64 { return math.NaN() }
