package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// CohortHandler handles cohort HTTP requests
type CohortHandler struct {
	cohorts *services.CohortService
}

// NewCohortHandler creates a new cohort handler
func NewCohortHandler(cohorts *services.CohortService) *CohortHandler {
	return &CohortHandler{cohorts: cohorts}
}

// CreateCohort handles POST /api/cohorts
func (h *CohortHandler) CreateCohort(w http.ResponseWriter, r *http.Request) {
	var cohort entities.Cohort
	if !decodeJSON(w, r, &cohort) {
		return
	}

	if err := h.cohorts.CreateCohort(r.Context(), &cohort); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, cohort)
}

// GetCohort handles GET /api/cohorts/{id}
func (h *CohortHandler) GetCohort(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	cohort, err := h.cohorts.GetCohort(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, cohort)
}

// ListCohorts handles GET /api/cohorts
func (h *CohortHandler) ListCohorts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	cohorts, err := h.cohorts.ListCohorts(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cohorts": cohorts,
		"count":   len(cohorts),
	})
}

// AddMember handles POST /api/cohorts/{id}/members. Adding a patient who is
// already an active member returns the existing membership with 200 rather
// than a conflict.
func (h *CohortHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		PatientID uuid.UUID `json:"patient_id"`
		AddedBy   string    `json:"added_by"`
		AddedDate time.Time `json:"added_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.PatientID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "patient_id is required")
		return
	}
	if body.AddedDate.IsZero() {
		body.AddedDate = time.Now().UTC()
	}

	membership, err := h.cohorts.AddMember(r.Context(), cohortID, body.PatientID, body.AddedBy, body.AddedDate)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, membership)
}

// RemoveMember handles DELETE /api/cohorts/{id}/members/{patientId}
func (h *CohortHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	patientID, ok := pathUUID(w, r, "patientId")
	if !ok {
		return
	}

	removedBy := r.URL.Query().Get("removed_by")
	removedDate := time.Now().UTC()
	if v := r.URL.Query().Get("removed_date"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "removed_date must be RFC 3339")
			return
		}
		removedDate = parsed
	}

	if err := h.cohorts.RemoveMember(r.Context(), cohortID, patientID, removedBy, removedDate); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/cohorts/{id}/members
func (h *CohortHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	members, err := h.cohorts.ListMembers(r.Context(), cohortID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}
