package domain

// StoreLocation is one catalog entry for a store.
// Codes identify a store in the business sense, but the same code may appear
// with slightly different coordinates. Each such row is a distinct location.
type StoreLocation struct {
	ID     int64       `json:"location_id"`
	Name   string      `json:"store"`
	Code   string      `json:"code"`
	Region string      `json:"region"`
	Coords Coordinates `json:"coords"`
}

// DemandRecord is a store location plus the number of boxes it needs.
type DemandRecord struct {
	Location StoreLocation `json:"location"`
	Boxes    int           `json:"boxes"`
}

// DemandChunk is the unit the splitter and solver operate on. Its Boxes never
// exceed the vehicle capacity. Seq is the index of the originating record in
// the splitter input; Part and Parts describe "part k of n" for split demand.
type DemandChunk struct {
	Location StoreLocation `json:"location"`
	Boxes    int           `json:"boxes"`
	Seq      int           `json:"-"`
	Part     int           `json:"part"`
	Parts    int           `json:"parts"`
}

// TotalBoxes sums demand over records.
func TotalBoxes(records []DemandRecord) int {
	total := 0
	for _, r := range records {
		total += r.Boxes
	}
	return total
}

// MaxBoxes bounds the demand of a single location.
const MaxBoxes = 1_000_000

// DemandUpdate sets the demand of one catalog location.
type DemandUpdate struct {
	LocationID int64
	Boxes      int
}
