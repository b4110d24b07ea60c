package handlers

import (
	"net/http"

	"store-route-planner/internal/api/dto"
	"store-route-planner/internal/ports"
)

// StoreHandler exposes read-only catalog endpoints.
type StoreHandler struct {
	Repo ports.DemandRepository
}

func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	locations, err := h.Repo.ListLocations(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, "list stores", err)
		return
	}

	res := dto.ListStoresResponse{
		Stores: make([]dto.StoreResponse, 0, len(locations)),
	}
	for _, l := range locations {
		res.Stores = append(res.Stores, dto.StoreResponse{
			LocationID: l.ID,
			Store:      l.Name,
			Code:       l.Code,
			Region:     l.Region,
			Lat:        l.Coords.Lat,
			Lon:        l.Coords.Lon,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Regions lists regions that currently have demand to plan.
func (h *StoreHandler) Regions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	regions, err := h.Repo.ListRegions(r.Context())
	if err != nil {
		writeServiceError(w, r, "list regions", err)
		return
	}
	if regions == nil {
		regions = []string{}
	}

	writeJSON(w, r, http.StatusOK, dto.ListRegionsResponse{Regions: regions})
}
