// Package geo computes great-circle distances between store coordinates.
//
// Straight-line distance is the optimization metric of the planner. Road
// distance is a display concern and is never computed here.
package geo

import (
	"math"

	"store-route-planner/internal/domain"
)

// Mean Earth radius in meters (IUGG).
const earthRadiusMeters = 6371008.8

// Unreachable marks a matrix arc whose distance is undefined, e.g. a
// coordinate that is NaN or infinite.
const Unreachable = -1

// Distance returns the haversine distance between a and b in meters.
// Non-finite coordinates yield NaN.
func Distance(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push h slightly past 1 for antipodal points.
	h = math.Min(h, 1)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// DistanceMeters truncates Distance to whole meters for integral solvers.
// It returns Unreachable for undefined distances.
func DistanceMeters(a, b domain.Coordinates) int {
	d := Distance(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return Unreachable
	}
	return int(d)
}

// Matrix is a square matrix of integral arc costs in meters.
type Matrix [][]int

// NewMatrix builds the distance matrix over points. The upper triangle is
// computed once and mirrored, so the result is exactly symmetric with a zero
// diagonal.
func NewMatrix(points []domain.Coordinates) Matrix {
	n := len(points)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := DistanceMeters(points[i], points[j])
			m[i][j] = d
			m[j][i] = d
		}
	}

	return m
}

// Size returns the number of points in the matrix.
func (m Matrix) Size() int { return len(m) }

// Reachable reports whether the arc i->j has a defined cost.
func (m Matrix) Reachable(i, j int) bool { return m[i][j] != Unreachable }
