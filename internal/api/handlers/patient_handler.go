package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
)

// PatientHandler handles patient registry HTTP requests
type PatientHandler struct {
	registry *services.RegistryService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(registry *services.RegistryService) *PatientHandler {
	return &PatientHandler{registry: registry}
}

// RegisterPatient handles POST /api/patients
func (h *PatientHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var patient entities.Patient
	if !decodeJSON(w, r, &patient) {
		return
	}

	if err := h.registry.RegisterPatient(r.Context(), &patient); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, patient)
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	patient, err := h.registry.GetPatient(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// GetPatientByMRN handles GET /api/patients/mrn/{mrn}
func (h *PatientHandler) GetPatientByMRN(w http.ResponseWriter, r *http.Request) {
	mrn := r.PathValue("mrn")
	if mrn == "" {
		respondWithError(w, http.StatusBadRequest, "mrn is required")
		return
	}

	patient, err := h.registry.GetPatientByMRN(r.Context(), mrn)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	patients, err := h.registry.ListPatients(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// UpdatePatient handles PUT /api/patients/{id}
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var patient entities.Patient
	if !decodeJSON(w, r, &patient) {
		return
	}
	patient.ID = id

	if err := h.registry.UpdatePatient(r.Context(), &patient); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// DeletePatient handles DELETE /api/patients/{id}
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.registry.DeletePatient(r.Context(), id); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkDeceased handles POST /api/patients/{id}/deceased
func (h *PatientHandler) MarkDeceased(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		DeceasedDate time.Time `json:"deceased_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.DeceasedDate.IsZero() {
		respondWithError(w, http.StatusBadRequest, "deceased_date is required")
		return
	}

	if err := h.registry.MarkDeceased(r.Context(), id, body.DeceasedDate); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchPatients handles GET /api/patients/search
func (h *PatientHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	query := repositories.PatientQuery{
		Gender:    r.URL.Query().Get("gender"),
		Ethnicity: r.URL.Query().Get("ethnicity"),
		Race:      r.URL.Query().Get("race"),
	}
	query.Limit, query.Offset = parsePagination(r)

	if v := r.URL.Query().Get("age_min"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "age_min must be an integer")
			return
		}
		query.AgeMin = &age
	}
	if v := r.URL.Query().Get("age_max"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "age_max must be an integer")
			return
		}
		query.AgeMax = &age
	}
	if v := r.URL.Query().Get("is_deceased"); v != "" {
		deceased, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "is_deceased must be a boolean")
			return
		}
		query.IsDeceased = &deceased
	}
	if v := r.URL.Query().Get("risk_factors"); v != "" {
		query.RiskFactors = strings.Split(v, ",")
	}
	if v := r.URL.Query().Get("icd_codes"); v != "" {
		query.ICDCodes = strings.Split(v, ",")
	}

	patients, err := h.registry.SearchPatients(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// QuickSearch handles GET /api/patients/quick-search
func (h *PatientHandler) QuickSearch(w http.ResponseWriter, r *http.Request) {
	params := providers.PatientSearchParams{
		Query:  r.URL.Query().Get("q"),
		Gender: r.URL.Query().Get("gender"),
	}
	params.Limit, params.Offset = parsePagination(r)

	if v := r.URL.Query().Get("is_deceased"); v != "" {
		deceased, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "is_deceased must be a boolean")
			return
		}
		params.IsDeceased = &deceased
	}

	patients, err := h.registry.QuickSearch(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// AddAddress handles POST /api/patients/{id}/addresses
func (h *PatientHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var address entities.PatientAddress
	if !decodeJSON(w, r, &address) {
		return
	}
	address.PatientID = id

	if err := h.registry.AddAddress(r.Context(), &address); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, address)
}

// ListAddresses handles GET /api/patients/{id}/addresses
func (h *PatientHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	addresses, err := h.registry.ListAddresses(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// AddContactInfo handles POST /api/patients/{id}/contacts
func (h *PatientHandler) AddContactInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var contact entities.PatientContactInfo
	if !decodeJSON(w, r, &contact) {
		return
	}
	contact.PatientID = id

	if err := h.registry.AddContactInfo(r.Context(), &contact); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, contact)
}

func parsePagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
