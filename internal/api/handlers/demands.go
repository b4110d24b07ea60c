package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"store-route-planner/internal/adapters/export"
	"store-route-planner/internal/api/dto"
	"store-route-planner/internal/domain"
	"store-route-planner/internal/ports"
)

const maxImportBody = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DemandHandler struct {
	Repo ports.DemandRepository
}

// Set replaces the demand of the listed locations in one transaction.
func (h *DemandHandler) Set(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	var req dto.SetDemandsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updates := make([]domain.DemandUpdate, 0, len(req.Demands))
	for _, d := range req.Demands {
		updates = append(updates, domain.DemandUpdate{LocationID: d.LocationID, Boxes: *d.Boxes})
	}

	if err := h.Repo.SetDemands(r.Context(), updates); err != nil {
		writeServiceError(w, r, "set demands", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SetDemandsResponse{Updated: len(updates)})
}

// Export downloads every catalog location with its demand as CSV.
func (h *DemandHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	records, err := h.Repo.ListAllDemand(r.Context())
	if err != nil {
		writeServiceError(w, r, "export demands", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteDemandCSV(&buf, records); err != nil {
		writeServiceError(w, r, "export demands", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="all_region_demands.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.WarnContext(r.Context(), "write csv failed", "err", err)
	}
}

// Import applies a demand sheet (CSV, or XLSX by content type). Rows that do
// not resolve to a catalog location are reported back and not applied.
func (h *DemandHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBody)
	defer r.Body.Close()

	var (
		records []domain.DemandRecord
		err     error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), xlsxContentType) {
		records, err = export.ReadDemandXLSX(body)
	} else {
		records, err = export.ReadDemandCSV(body)
	}
	if err != nil {
		writeServiceError(w, r, "import demands", err)
		return
	}

	catalog, err := h.Repo.ListLocations(r.Context(), "")
	if err != nil {
		writeServiceError(w, r, "import demands", err)
		return
	}

	updates, unmatched := export.MatchCatalog(catalog, records)
	if err := h.Repo.SetDemands(r.Context(), updates); err != nil {
		writeServiceError(w, r, "import demands", err)
		return
	}

	res := dto.ImportDemandResponse{
		Updated:   len(updates),
		Unmatched: make([]dto.UnmatchedRow, 0, len(unmatched)),
	}
	for _, u := range unmatched {
		res.Unmatched = append(res.Unmatched, dto.UnmatchedRow{
			Store:  u.Location.Name,
			Code:   u.Location.Code,
			Region: u.Location.Region,
			Lat:    u.Location.Coords.Lat,
			Lon:    u.Location.Coords.Lon,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
