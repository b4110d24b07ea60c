package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/geo"
)

// TourSolver orders the stops of one trip into a closed depot tour.
// The matrix is built once per trip with the depot at index 0 and is only read.
type TourSolver interface {
	SolveMatrix(ctx context.Context, m geo.Matrix) (domain.Tour, error)
}

// DefaultTourBudget caps arc evaluations per solve.
const DefaultTourBudget = 1_000_000

// CheapestArcSolver builds a tour by repeatedly extending the route from the
// depot with the cheapest feasible arc to an unvisited stop, then closing it
// back to the depot. With Improve set, a first-improvement 2-opt pass refines
// the result. The output is a feasible, reasonably short tour with no
// optimality guarantee.
type CheapestArcSolver struct {
	Improve bool
	// Budget caps arc evaluations. Exhausting it while constructing fails the
	// solve; exhausting it while improving keeps the best tour found so far.
	Budget int
	Logger *slog.Logger
}

func NewCheapestArcSolver(improve bool, budget int) *CheapestArcSolver {
	if budget <= 0 {
		budget = DefaultTourBudget
	}
	return &CheapestArcSolver{
		Improve: improve,
		Budget:  budget,
	}
}

type solveState int

const (
	stateInitialized solveState = iota
	stateSearching
	stateSolved
	stateFailed
)

func (s solveState) String() string {
	switch s {
	case stateInitialized:
		return "initialized"
	case stateSearching:
		return "searching"
	case stateSolved:
		return "solved"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// tourSearch holds the private state of a single solve call.
type tourSearch struct {
	m      geo.Matrix
	budget int
	state  solveState
}

func (t *tourSearch) spend() bool {
	if t.budget <= 0 {
		return false
	}
	t.budget--
	return true
}

func (t *tourSearch) fail(format string, args ...any) error {
	t.state = stateFailed
	return &domain.SolverFailure{Reason: fmt.Sprintf(format, args...)}
}

// TripMatrix builds the distance matrix over the depot and the trip stops,
// with the depot at index 0.
func TripMatrix(trip domain.Trip, depot domain.Coordinates) geo.Matrix {
	points := make([]domain.Coordinates, 0, 1+len(trip.Chunks))
	points = append(points, depot)
	points = append(points, trip.Stops()...)
	return geo.NewMatrix(points)
}

// Solve builds the trip matrix and solves it.
func (s *CheapestArcSolver) Solve(ctx context.Context, trip domain.Trip, depot domain.Coordinates) (domain.Tour, error) {
	return s.SolveMatrix(ctx, TripMatrix(trip, depot))
}

// SolveMatrix solves a prebuilt matrix whose index 0 is the depot.
func (s *CheapestArcSolver) SolveMatrix(ctx context.Context, m geo.Matrix) (domain.Tour, error) {
	if err := ctx.Err(); err != nil {
		return domain.Tour{}, err
	}

	budget := s.Budget
	if budget <= 0 {
		budget = DefaultTourBudget
	}
	search := &tourSearch{m: m, budget: budget, state: stateInitialized}

	tour, err := search.run(s.Improve)
	s.logger().Debug("tour search finished",
		"stops", m.Size()-1,
		"state", search.state.String(),
		"distance_m", tour.DistanceMeters,
		"budget_left", search.budget,
	)
	return tour, err
}

func (s *CheapestArcSolver) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (t *tourSearch) run(improve bool) (domain.Tour, error) {
	if t.m.Size() == 0 {
		return domain.Tour{}, t.fail("empty matrix: depot missing")
	}
	t.state = stateSearching

	seq, err := t.construct()
	if err != nil {
		return domain.Tour{}, err
	}

	if improve {
		best := t.twoOpt(seq)

		// The input order is an equally valid seed; keep whichever refines shorter.
		identity := identityTour(t.m.Size() - 1)
		if length, ok := tourLength(t.m, identity); ok && length < mustLength(t.m, best) {
			if alt := t.twoOpt(identity); mustLength(t.m, alt) < mustLength(t.m, best) {
				best = alt
			}
		}
		seq = best
	}

	t.state = stateSolved
	return domain.Tour{Sequence: seq, DistanceMeters: mustLength(t.m, seq)}, nil
}

// construct performs the cheapest-arc extension from the depot. Ties between
// equal arcs go to the lowest stop index.
func (t *tourSearch) construct() ([]int, error) {
	n := t.m.Size() - 1
	visited := make([]bool, n+1)
	visited[domain.DepotIndex] = true

	seq := make([]int, 0, n+2)
	seq = append(seq, domain.DepotIndex)
	cur := domain.DepotIndex

	for step := 0; step < n; step++ {
		best := -1
		for j := 1; j <= n; j++ {
			if visited[j] {
				continue
			}
			if !t.spend() {
				return nil, t.fail("iteration budget exhausted after %d of %d stops", step, n)
			}
			if !t.m.Reachable(cur, j) {
				continue
			}
			if best == -1 || t.m[cur][j] < t.m[cur][best] {
				best = j
			}
		}

		if best == -1 {
			return nil, t.fail("no feasible arc from node %d", cur)
		}

		visited[best] = true
		seq = append(seq, best)
		cur = best
	}

	if !t.m.Reachable(cur, domain.DepotIndex) {
		return nil, t.fail("no feasible return arc from node %d to depot", cur)
	}
	seq = append(seq, domain.DepotIndex)

	return seq, nil
}

// twoOpt applies first-improvement 2-opt to a copy of seq: reversing the
// segment seq[i..k] replaces arcs (a,b),(c,d) with (a,c),(b,d). Moves that
// rely on an unreachable arc are rejected. The copy is returned only if it is
// strictly shorter than seq.
func (t *tourSearch) twoOpt(seq []int) []int {
	out := slices.Clone(seq)
	n := len(out) - 2
	if n < 2 {
		return out
	}

	for improved := true; improved; {
		improved = false
		for i := 1; i < n; i++ {
			for k := i + 1; k <= n; k++ {
				if !t.spend() {
					return t.keepShorter(seq, out)
				}

				a, b, c, d := out[i-1], out[i], out[k], out[k+1]
				if !t.m.Reachable(a, c) || !t.m.Reachable(b, d) {
					continue
				}

				delta := t.m[a][c] + t.m[b][d] - t.m[a][b] - t.m[c][d]
				if delta < 0 {
					slices.Reverse(out[i : k+1])
					improved = true
				}
			}
		}
	}

	return t.keepShorter(seq, out)
}

func (t *tourSearch) keepShorter(orig, candidate []int) []int {
	cl, ok := tourLength(t.m, candidate)
	if !ok || cl >= mustLength(t.m, orig) {
		return orig
	}
	return candidate
}

func identityTour(n int) []int {
	seq := make([]int, 0, n+2)
	seq = append(seq, domain.DepotIndex)
	for i := 1; i <= n; i++ {
		seq = append(seq, i)
	}
	return append(seq, domain.DepotIndex)
}

// tourLength sums arc costs along seq; ok is false if any arc is unreachable.
func tourLength(m geo.Matrix, seq []int) (int, bool) {
	total := 0
	for i := 0; i+1 < len(seq); i++ {
		if !m.Reachable(seq[i], seq[i+1]) {
			return 0, false
		}
		total += m[seq[i]][seq[i+1]]
	}
	return total, true
}

func mustLength(m geo.Matrix, seq []int) int {
	total, _ := tourLength(m, seq)
	return total
}
