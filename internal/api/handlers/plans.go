package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"store-route-planner/internal/adapters/export"
	"store-route-planner/internal/api/dto"
	"store-route-planner/internal/domain"
	"store-route-planner/internal/services"
)

// PlanService is the application boundary the plan endpoints depend on.
type PlanService interface {
	PlanDeliveries(ctx context.Context, req services.PlanDeliveriesRequest) (*domain.RoutePlan, error)
	GetPlan(ctx context.Context, planID string) (*domain.RoutePlan, error)
}

type PlanHandler struct {
	Planner PlanService
}

// Plan computes the route plan for one region.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svcReq := services.PlanDeliveriesRequest{
		Region:          strings.TrimSpace(req.Region),
		VehicleCount:    req.VehicleCount,
		VehicleCapacity: req.VehicleCapacity,
		CostPerKm:       req.CostPerKm,
	}

	plan, err := h.Planner.PlanDeliveries(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, "plan deliveries", err)
		return
	}

	writeJSON(w, r, http.StatusOK, plan)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	plan, err := h.Planner.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get plan", err)
		return
	}

	writeJSON(w, r, http.StatusOK, plan)
}

// Export downloads a stored plan as an XLSX workbook.
func (h *PlanHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := r.PathValue("id")
	plan, err := h.Planner.GetPlan(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "export plan", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePlanXLSX(&buf, plan); err != nil {
		writeServiceError(w, r, "export plan", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="route-plan-`+id+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.WarnContext(r.Context(), "write xlsx failed", "err", err)
	}
}
