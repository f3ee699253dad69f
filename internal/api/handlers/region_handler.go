package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/geo"
)

// RegionHandler handles region hierarchy HTTP requests
type RegionHandler struct {
	regions *services.RegionIndexService
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(regions *services.RegionIndexService) *RegionHandler {
	return &RegionHandler{regions: regions}
}

// AddRegion handles POST /api/regions
func (h *RegionHandler) AddRegion(w http.ResponseWriter, r *http.Request) {
	var region entities.Region
	if !decodeJSON(w, r, &region) {
		return
	}

	if err := h.regions.AddRegion(r.Context(), &region); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, region)
}

// GetRegion handles GET /api/regions/{id}
func (h *RegionHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	region, err := h.regions.GetRegion(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, region)
}

// ListRegions handles GET /api/regions
func (h *RegionHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions := h.regions.ListRegions()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"count":   len(regions),
	})
}

// ReparentRegion handles PATCH /api/regions/{id}/parent. A null parent_id
// moves the region to the hierarchy root.
func (h *RegionHandler) ReparentRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.regions.ReparentRegion(r.Context(), id, body.ParentID); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveCoordinate handles GET /api/regions/resolve?lat=..&lng=..
func (h *RegionHandler) ResolveCoordinate(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lng must be a number")
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		respondWithError(w, http.StatusBadRequest, "coordinate out of range")
		return
	}

	point := geo.Point{Latitude: lat, Longitude: lng}
	regions := h.regions.Resolve(point)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"primary": h.regions.PrimaryRegion(point),
		"count":   len(regions),
	})
}
