package export

import (
	"math"

	"store-route-planner/internal/domain"
)

// Coordinates closer than this (degrees) are the same catalog point.
const coordTolerance = 1e-6

// MatchCatalog resolves imported rows to catalog locations.
//
// A row matches the location with the same code and region at the same
// coordinates. If no such location exists but the code and region identify
// exactly one location, that one is used. Rows matching nothing are returned
// as unmatched and produce no update.
func MatchCatalog(
	catalog []domain.StoreLocation,
	records []domain.DemandRecord,
) ([]domain.DemandUpdate, []domain.DemandRecord) {
	type codeKey struct{ code, region string }
	byCode := make(map[codeKey][]domain.StoreLocation, len(catalog))
	for _, l := range catalog {
		k := codeKey{l.Code, l.Region}
		byCode[k] = append(byCode[k], l)
	}

	updates := make([]domain.DemandUpdate, 0, len(records))
	var unmatched []domain.DemandRecord

	for _, r := range records {
		candidates := byCode[codeKey{r.Location.Code, r.Location.Region}]

		var id int64
		for _, c := range candidates {
			if sameCoords(c.Coords, r.Location.Coords) {
				id = c.ID
				break
			}
		}
		if id == 0 && len(candidates) == 1 {
			id = candidates[0].ID
		}

		if id == 0 {
			unmatched = append(unmatched, r)
			continue
		}
		updates = append(updates, domain.DemandUpdate{LocationID: id, Boxes: r.Boxes})
	}

	return updates, unmatched
}

func sameCoords(a, b domain.Coordinates) bool {
	return math.Abs(a.Lat-b.Lat) < coordTolerance && math.Abs(a.Lon-b.Lon) < coordTolerance
}
