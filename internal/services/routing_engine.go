package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"store-route-planner/internal/domain"
	"store-route-planner/internal/platform/obs"

	"golang.org/x/sync/errgroup"
)

// EngineConfig parameterizes one planning run. Variants such as "four vans"
// or "one van" are configuration values, not separate code paths.
type EngineConfig struct {
	VehicleCapacity int
	VehicleCount    int
	CostPerKm       float64
	Warehouse       domain.Coordinates
	Cluster         ClusterOptions
	ImproveTours    bool
	TourBudget      int
	// Workers bounds concurrent tour solves; 0 means GOMAXPROCS.
	Workers int
	// MaxChunks caps the capacity-sized chunks a region may split into;
	// 0 means DefaultMaxChunks.
	MaxChunks int
}

// DefaultMaxChunks bounds the work a single region can request.
const DefaultMaxChunks = 10_000

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		VehicleCapacity: 400,
		VehicleCount:    4,
		CostPerKm:       1.50,
		Warehouse:       domain.Coordinates{Lat: 24.595356831188536, Lon: 46.74032442208924},
		Cluster:         DefaultClusterOptions(),
		ImproveTours:    true,
		TourBudget:      DefaultTourBudget,
		MaxChunks:       DefaultMaxChunks,
	}
}

// Validate rejects configurations no plan can satisfy.
func (c EngineConfig) Validate() error {
	if c.VehicleCapacity <= 0 {
		return domain.NewInputError("vehicle_capacity", fmt.Sprintf("must be positive, got %d", c.VehicleCapacity))
	}
	if c.VehicleCount <= 0 {
		return domain.NewInputError("vehicle_count", fmt.Sprintf("must be positive, got %d", c.VehicleCount))
	}
	if c.CostPerKm < 0 {
		return domain.NewInputError("cost_per_km", fmt.Sprintf("must not be negative, got %v", c.CostPerKm))
	}
	if c.MaxChunks < 0 {
		return domain.NewInputError("max_chunks", fmt.Sprintf("must not be negative, got %d", c.MaxChunks))
	}
	if !c.Warehouse.IsFinite() {
		return domain.NewInputError("warehouse", "coordinates must be finite")
	}
	return nil
}

func (c EngineConfig) PlanConfig() domain.PlanConfig {
	return domain.PlanConfig{
		VehicleCapacity: c.VehicleCapacity,
		VehicleCount:    c.VehicleCount,
		CostPerKm:       c.CostPerKm,
		Warehouse:       c.Warehouse,
	}
}

// RoutingEngine clusters, splits, solves and evaluates one region.
// It holds no state between calls and is safe for concurrent use.
type RoutingEngine struct {
	cfg    EngineConfig
	solver TourSolver
	logger *slog.Logger
}

type EngineOption func(*RoutingEngine)

// WithTourSolver replaces the default cheapest-arc solver.
func WithTourSolver(s TourSolver) EngineOption {
	return func(e *RoutingEngine) { e.solver = s }
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *RoutingEngine) { e.logger = l }
}

func NewRoutingEngine(cfg EngineConfig, opts ...EngineOption) *RoutingEngine {
	e := &RoutingEngine{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.solver == nil {
		e.solver = &CheapestArcSolver{
			Improve: cfg.ImproveTours,
			Budget:  cfg.TourBudget,
			Logger:  e.logger,
		}
	}
	return e
}

func (e *RoutingEngine) Config() EngineConfig { return e.cfg }

type tripJob struct {
	vehicle int
	slot    int
	trip    domain.Trip
}

// PlanRegion produces the RoutePlan for one region's demand.
//
// Invalid input fails before any clustering runs and yields no plan. A trip
// whose tour cannot be solved is recorded as unsolved and the plan is marked
// partial; every other trip is still solved and reported.
func (e *RoutingEngine) PlanRegion(
	ctx context.Context,
	region string,
	records []domain.DemandRecord,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "engine.PlanRegion")(&err)

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	active := make([]domain.DemandRecord, 0, len(records))
	for _, r := range records {
		if r.Boxes < 0 {
			return nil, domain.NewInputError(
				"demand",
				fmt.Sprintf("location_id=%d has negative demand %d", r.Location.ID, r.Boxes),
			)
		}
		if r.Boxes > 0 {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil, domain.NewInputError("demand", fmt.Sprintf("region %q has no demand", region))
	}
	if err := e.checkChunkLimit(active); err != nil {
		return nil, err
	}

	clusters, err := ClusterDemand(active, e.cfg.VehicleCount, e.cfg.Cluster)
	if err != nil {
		return nil, fmt.Errorf("plan region: cluster demand: %w", err)
	}

	vehicles := make([]domain.VehiclePlan, len(clusters))
	jobs := make([]tripJob, 0, len(active))
	for vi, c := range clusters {
		vehicles[vi] = domain.VehiclePlan{
			Vehicle:     c.Vehicle,
			DemandBoxes: domain.TotalBoxes(c.Records),
			StoreCount:  len(c.Records),
			Trips:       []domain.TripPlan{},
		}
		if len(c.Records) == 0 {
			continue
		}

		trips, err := SplitByCapacity(c.Records, e.cfg.VehicleCapacity)
		if err != nil {
			return nil, fmt.Errorf("plan region: vehicle %d: %w", c.Vehicle, err)
		}

		vehicles[vi].Trips = make([]domain.TripPlan, len(trips))
		for ti, t := range trips {
			jobs = append(jobs, tripJob{vehicle: vi, slot: ti, trip: t})
		}
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Each job writes only its own slot; the join happens before aggregation.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			tp, err := e.solveTrip(gctx, job.trip)
			if err != nil {
				return fmt.Errorf("vehicle %d trip %d: %w", vehicles[job.vehicle].Vehicle, job.trip.Index, err)
			}
			vehicles[job.vehicle].Trips[job.slot] = tp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("plan region: solve trips: %w", err)
	}

	for i := range vehicles {
		m := SummarizeVehicle(vehicles[i].Trips)
		vehicles[i].DistanceKm = m.DistanceKm
		vehicles[i].CostSAR = m.CostSAR
	}

	totals := SummarizeRegion(vehicles, active)
	plan := &domain.RoutePlan{
		Region:   region,
		Config:   e.cfg.PlanConfig(),
		Vehicles: vehicles,
		Totals:   totals,
		Partial:  totals.UnsolvedTrips > 0,
	}

	e.logger.InfoContext(ctx, "region planned",
		"region", region,
		"stores", totals.StoreCount,
		"demand_boxes", totals.DemandBoxes,
		"trips", totals.TripCount,
		"unsolved_trips", totals.UnsolvedTrips,
		"distance_km", totals.DistanceKm,
	)

	return plan, nil
}

// checkChunkLimit rejects demand that would split into more than MaxChunks
// capacity-sized chunks. It stops counting as soon as the limit is passed.
func (e *RoutingEngine) checkChunkLimit(records []domain.DemandRecord) error {
	limit := e.cfg.MaxChunks
	if limit == 0 {
		limit = DefaultMaxChunks
	}

	chunks := 0
	for _, r := range records {
		chunks += (r.Boxes + e.cfg.VehicleCapacity - 1) / e.cfg.VehicleCapacity
		if chunks > limit {
			return domain.NewInputError(
				"demand",
				fmt.Sprintf("splits into more than %d trips at capacity %d", limit, e.cfg.VehicleCapacity),
			)
		}
	}
	return nil
}

// solveTrip solves one trip. Only context errors are returned; solver
// failures and invalid tours are recorded on the TripPlan.
func (e *RoutingEngine) solveTrip(ctx context.Context, trip domain.Trip) (domain.TripPlan, error) {
	tp := domain.TripPlan{
		Trip:   trip.Index,
		Load:   trip.Load,
		Chunks: trip.Chunks,
		Stops:  []domain.PlannedStop{},
	}

	m := TripMatrix(trip, e.cfg.Warehouse)
	tour, err := e.solver.SolveMatrix(ctx, m)
	if err == nil {
		if verr := tour.Validate(len(trip.Chunks)); verr != nil {
			err = &domain.SolverFailure{Reason: verr.Error()}
		} else if _, ok := tourLength(m, tour.Sequence); !ok {
			err = &domain.SolverFailure{Reason: "tour uses an unreachable arc"}
		}
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNoFeasibleTour) {
			return domain.TripPlan{}, err
		}
		e.logger.WarnContext(ctx, "trip left unsolved",
			"trip", trip.Index,
			"stops", len(trip.Chunks),
			"err", err,
		)
		tp.Failure = err.Error()
		return tp, nil
	}

	metrics := EvaluateTour(tour, m, e.cfg.CostPerKm)
	tp.Tour = &tour
	tp.Stops = plannedStops(trip, tour)
	tp.DistanceKm = metrics.DistanceKm
	tp.CostSAR = metrics.CostSAR
	tp.Solved = true
	return tp, nil
}

// plannedStops expands a tour into stops in visiting order, warehouse included.
func plannedStops(trip domain.Trip, tour domain.Tour) []domain.PlannedStop {
	stops := make([]domain.PlannedStop, 0, len(tour.Sequence))
	for order, idx := range tour.Sequence {
		if idx == domain.DepotIndex {
			stops = append(stops, domain.PlannedStop{Order: order + 1, IsDepot: true})
			continue
		}
		c := trip.Chunks[idx-1]
		loc := c.Location
		stops = append(stops, domain.PlannedStop{
			Order:    order + 1,
			Location: &loc,
			Boxes:    c.Boxes,
			Part:     c.Part,
			Parts:    c.Parts,
		})
	}
	return stops
}
