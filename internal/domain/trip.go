package domain

import "fmt"

// Cluster is the set of demand records assigned to one vehicle slot.
type Cluster struct {
	Vehicle int
	Records []DemandRecord
}

// Trip is one capacity-bounded load delivered in a single depot-to-depot tour.
type Trip struct {
	Index    int
	Capacity int
	Load     int
	Chunks   []DemandChunk
}

func NewTrip(index, capacity int) *Trip {
	return &Trip{
		Index:    index,
		Capacity: capacity,
	}
}

// Add a chunk to the trip, refusing to exceed capacity.
func (t *Trip) Add(chunk DemandChunk) error {
	if t.Load+chunk.Boxes > t.Capacity {
		return fmt.Errorf(
			"add chunk: trip %d would exceed capacity (load=%d chunk=%d capacity=%d)",
			t.Index, t.Load, chunk.Boxes, t.Capacity,
		)
	}
	t.Chunks = append(t.Chunks, chunk)
	t.Load += chunk.Boxes
	return nil
}

// Fits reports whether chunk can be added without exceeding capacity.
func (t *Trip) Fits(chunk DemandChunk) bool {
	return t.Load+chunk.Boxes <= t.Capacity
}

// Stops returns the coordinates of every chunk in trip order.
func (t *Trip) Stops() []Coordinates {
	out := make([]Coordinates, 0, len(t.Chunks))
	for _, c := range t.Chunks {
		out = append(out, c.Location.Coords)
	}
	return out
}

// DepotIndex is the position of the warehouse in every tour and matrix.
const DepotIndex = 0

// Tour is an ordered visiting sequence for one trip. Sequence begins and ends
// at DepotIndex; index i > 0 refers to Trip.Chunks[i-1].
type Tour struct {
	Sequence       []int `json:"sequence"`
	DistanceMeters int   `json:"distance_meters"`
}

// Legs is the number of arcs driven, one more than the number of stops.
func (t Tour) Legs() int {
	if len(t.Sequence) == 0 {
		return 0
	}
	return len(t.Sequence) - 1
}

// Validate checks that the tour is a closed depot tour over exactly stops stops.
func (t Tour) Validate(stops int) error {
	if len(t.Sequence) != stops+2 {
		return fmt.Errorf("validate tour: length %d, want %d", len(t.Sequence), stops+2)
	}
	if t.Sequence[0] != DepotIndex || t.Sequence[len(t.Sequence)-1] != DepotIndex {
		return fmt.Errorf("validate tour: must start and end at depot, got %v", t.Sequence)
	}

	seen := make([]bool, stops+1)
	for _, idx := range t.Sequence[1 : len(t.Sequence)-1] {
		if idx < 1 || idx > stops {
			return fmt.Errorf("validate tour: stop index %d out of range 1..%d", idx, stops)
		}
		if seen[idx] {
			return fmt.Errorf("validate tour: stop index %d visited twice", idx)
		}
		seen[idx] = true
	}
	return nil
}
