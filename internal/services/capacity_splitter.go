package services

import (
	"cmp"
	"fmt"
	"slices"

	"store-route-planner/internal/domain"
)

// NormalizeDemand turns records into chunks no larger than capacity.
//
// A record whose demand exceeds capacity becomes floor(d/c) chunks of exactly
// c boxes plus one remainder chunk when d mod c > 0. Other records pass
// through as a single chunk. Chunk demand always sums to record demand.
func NormalizeDemand(records []domain.DemandRecord, capacity int) ([]domain.DemandChunk, error) {
	if capacity <= 0 {
		return nil, domain.NewInputError("vehicle_capacity", fmt.Sprintf("must be positive, got %d", capacity))
	}

	chunks := make([]domain.DemandChunk, 0, len(records))
	for i, r := range records {
		if r.Boxes < 0 {
			return nil, domain.NewInputError(
				"demand",
				fmt.Sprintf("location_id=%d has negative demand %d", r.Location.ID, r.Boxes),
			)
		}

		if r.Boxes <= capacity {
			chunks = append(chunks, domain.DemandChunk{
				Location: r.Location,
				Boxes:    r.Boxes,
				Seq:      i,
				Part:     1,
				Parts:    1,
			})
			continue
		}

		full := r.Boxes / capacity
		remainder := r.Boxes % capacity
		parts := full
		if remainder > 0 {
			parts++
		}

		for p := 1; p <= full; p++ {
			chunks = append(chunks, domain.DemandChunk{
				Location: r.Location,
				Boxes:    capacity,
				Seq:      i,
				Part:     p,
				Parts:    parts,
			})
		}
		if remainder > 0 {
			chunks = append(chunks, domain.DemandChunk{
				Location: r.Location,
				Boxes:    remainder,
				Seq:      i,
				Part:     parts,
				Parts:    parts,
			})
		}
	}

	return chunks, nil
}

// PackTrips groups chunks into capacity-bounded trips.
//
// Chunks are stably sorted by demand, largest first, so equal demands keep
// their input order. They are then accumulated greedily: when the next chunk
// would overflow the current trip, that trip is closed and a new one starts
// with the chunk. This never exceeds capacity but does not guarantee the
// minimum number of trips.
func PackTrips(chunks []domain.DemandChunk, capacity int) ([]domain.Trip, error) {
	if capacity <= 0 {
		return nil, domain.NewInputError("vehicle_capacity", fmt.Sprintf("must be positive, got %d", capacity))
	}

	sorted := slices.Clone(chunks)
	slices.SortStableFunc(sorted, func(a, b domain.DemandChunk) int {
		return cmp.Compare(b.Boxes, a.Boxes)
	})

	trips := []domain.Trip{}
	var current *domain.Trip
	for _, c := range sorted {
		if c.Boxes > capacity {
			return nil, fmt.Errorf("pack trips: chunk of %d boxes exceeds capacity %d", c.Boxes, capacity)
		}

		if current == nil || !current.Fits(c) {
			if current != nil {
				trips = append(trips, *current)
			}
			current = domain.NewTrip(len(trips)+1, capacity)
		}

		if err := current.Add(c); err != nil {
			return nil, fmt.Errorf("pack trips: %w", err)
		}
	}
	if current != nil {
		trips = append(trips, *current)
	}

	return trips, nil
}

// SplitByCapacity normalizes oversized demand and packs the chunks into trips.
func SplitByCapacity(records []domain.DemandRecord, capacity int) ([]domain.Trip, error) {
	chunks, err := NormalizeDemand(records, capacity)
	if err != nil {
		return nil, fmt.Errorf("split by capacity: %w", err)
	}

	trips, err := PackTrips(chunks, capacity)
	if err != nil {
		return nil, fmt.Errorf("split by capacity: %w", err)
	}

	return trips, nil
}
