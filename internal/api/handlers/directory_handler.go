package handlers

import (
	"net/http"

	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// DirectoryHandler handles provider and department directory HTTP requests
type DirectoryHandler struct {
	directory *services.DirectoryService
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// RegisterProvider handles POST /api/providers
func (h *DirectoryHandler) RegisterProvider(w http.ResponseWriter, r *http.Request) {
	var provider entities.Provider
	if !decodeJSON(w, r, &provider) {
		return
	}

	if err := h.directory.RegisterProvider(r.Context(), &provider); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, provider)
}

// GetProvider handles GET /api/providers/{id}
func (h *DirectoryHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	provider, err := h.directory.GetProvider(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, provider)
}

// GetProviderByNPI handles GET /api/providers/npi/{npi}
func (h *DirectoryHandler) GetProviderByNPI(w http.ResponseWriter, r *http.Request) {
	npi := r.PathValue("npi")
	if npi == "" {
		respondWithError(w, http.StatusBadRequest, "npi is required")
		return
	}

	provider, err := h.directory.GetProviderByNPI(r.Context(), npi)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, provider)
}

// ListProviders handles GET /api/providers
func (h *DirectoryHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	providers, err := h.directory.ListProviders(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"count":     len(providers),
	})
}

// CreateDepartment handles POST /api/departments
func (h *DirectoryHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var department entities.Department
	if !decodeJSON(w, r, &department) {
		return
	}

	if err := h.directory.CreateDepartment(r.Context(), &department); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, department)
}

// GetDepartment handles GET /api/departments/{id}
func (h *DirectoryHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	department, err := h.directory.GetDepartment(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, department)
}

// AssignProvider handles POST /api/providers/{id}/assignments
func (h *DirectoryHandler) AssignProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var assignment entities.ProviderAssignment
	if !decodeJSON(w, r, &assignment) {
		return
	}
	assignment.ProviderID = providerID

	if err := h.directory.AssignProvider(r.Context(), &assignment); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, assignment)
}

// ListAssignments handles GET /api/providers/{id}/assignments
func (h *DirectoryHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	assignments, err := h.directory.ListAssignments(r.Context(), providerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"assignments": assignments,
		"count":       len(assignments),
	})
}
