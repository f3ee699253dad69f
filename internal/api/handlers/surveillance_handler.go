package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/application/services"
)

// SurveillanceHandler handles surveillance view HTTP requests. Every view
// accepts an optional cohort_id query parameter restricting the population.
type SurveillanceHandler struct {
	surveillance *services.SurveillanceService
}

// NewSurveillanceHandler creates a new surveillance handler
func NewSurveillanceHandler(surveillance *services.SurveillanceService) *SurveillanceHandler {
	return &SurveillanceHandler{surveillance: surveillance}
}

func cohortFilter(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("cohort_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "cohort_id must be a valid UUID")
		return nil, false
	}
	return &id, true
}

// RiskFactorExposure handles GET /api/surveillance/risk-factor-exposure
func (h *SurveillanceHandler) RiskFactorExposure(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := cohortFilter(w, r)
	if !ok {
		return
	}

	rows, err := h.surveillance.RiskFactorExposureReport(r.Context(), cohortID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// DiagnosisPrevalence handles GET /api/surveillance/diagnosis-prevalence
func (h *SurveillanceHandler) DiagnosisPrevalence(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := cohortFilter(w, r)
	if !ok {
		return
	}

	rows, err := h.surveillance.DiagnosisPrevalenceReport(r.Context(), cohortID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

// GeographicDistribution handles GET /api/surveillance/geographic-distribution
func (h *SurveillanceHandler) GeographicDistribution(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := cohortFilter(w, r)
	if !ok {
		return
	}

	cells, err := h.surveillance.GeographicDiseaseDistribution(r.Context(), cohortID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"cells": cells,
		"count": len(cells),
	})
}

// HighRisk handles GET /api/surveillance/high-risk
func (h *SurveillanceHandler) HighRisk(w http.ResponseWriter, r *http.Request) {
	cohortID, ok := cohortFilter(w, r)
	if !ok {
		return
	}

	patients, err := h.surveillance.HighRiskReport(r.Context(), cohortID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}
