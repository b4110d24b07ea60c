package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"store-route-planner/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	TripsSheet   = "Trips"
)

var summaryHeader = []any{"Vehicle", "Stores", "Demand (boxes)", "Trips", "Distance (km)", "Cost (SAR)"}

var tripsHeader = []any{"Vehicle", "Trip", "Order", "Store", "Code", "Lat", "Lon", "Boxes", "Part", "Status"}

// WritePlanXLSX renders a plan as a workbook with a per-vehicle summary and
// one row per stop in visiting order. Unsolved trips get a single row
// carrying the failure.
func WritePlanXLSX(w io.Writer, plan *domain.RoutePlan) error {
	if plan == nil {
		return errors.New("write plan xlsx: plan is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("write plan xlsx: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TripsSheet); err != nil {
		return fmt.Errorf("write plan xlsx: add sheet: %w", err)
	}

	if err := writeSummary(f, plan); err != nil {
		return fmt.Errorf("write plan xlsx: %w", err)
	}
	if err := writeTrips(f, plan); err != nil {
		return fmt.Errorf("write plan xlsx: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write plan xlsx: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, plan *domain.RoutePlan) error {
	rows := [][]any{
		{"Plan", plan.PlanID},
		{"Region", plan.Region},
		{"Created", plan.CreatedAt.UTC().Format(time.RFC3339)},
		{"Partial", plan.Partial},
		{},
		summaryHeader,
	}
	for _, v := range plan.Vehicles {
		rows = append(rows, []any{
			v.Vehicle, v.StoreCount, v.DemandBoxes, len(v.Trips), round2(v.DistanceKm), round2(v.CostSAR),
		})
	}
	t := plan.Totals
	rows = append(rows, []any{"Total", t.StoreCount, t.DemandBoxes, t.TripCount, round2(t.DistanceKm), round2(t.CostSAR)})

	return setRows(f, SummarySheet, rows)
}

func writeTrips(f *excelize.File, plan *domain.RoutePlan) error {
	rows := [][]any{tripsHeader}

	for _, v := range plan.Vehicles {
		for _, trip := range v.Trips {
			if !trip.Solved {
				rows = append(rows, []any{v.Vehicle, trip.Trip, "", "", "", "", "", trip.Load, "", "unsolved: " + trip.Failure})
				continue
			}

			for _, s := range trip.Stops {
				if s.IsDepot || s.Location == nil {
					wh := plan.Config.Warehouse
					rows = append(rows, []any{v.Vehicle, trip.Trip, s.Order, "Warehouse", "", wh.Lat, wh.Lon, "", "", "solved"})
					continue
				}

				part := ""
				if s.Parts > 1 {
					part = fmt.Sprintf("%d/%d", s.Part, s.Parts)
				}
				l := s.Location
				rows = append(rows, []any{
					v.Vehicle, trip.Trip, s.Order, l.Name, l.Code, l.Coords.Lat, l.Coords.Lon, s.Boxes, part, "solved",
				})
			}
		}
	}

	return setRows(f, TripsSheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
