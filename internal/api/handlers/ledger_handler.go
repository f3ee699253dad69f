package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/application/services"
	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// LedgerHandler handles clinical event ledger HTTP requests. Record
// endpoints hang off the patient resource; transition endpoints address the
// event directly.
type LedgerHandler struct {
	ledger *services.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RecordEncounter handles POST /api/patients/{id}/encounters
func (h *LedgerHandler) RecordEncounter(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var encounter entities.Encounter
	if !decodeJSON(w, r, &encounter) {
		return
	}
	encounter.PatientID = patientID

	if err := h.ledger.RecordEncounter(r.Context(), &encounter); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, encounter)
}

// ListEncounters handles GET /api/patients/{id}/encounters
func (h *LedgerHandler) ListEncounters(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientEncounters(ctx, patientID)
	})
}

// DischargeEncounter handles POST /api/encounters/{id}/discharge
func (h *LedgerHandler) DischargeEncounter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		DischargeDate time.Time `json:"discharge_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.DischargeDate.IsZero() {
		respondWithError(w, http.StatusBadRequest, "discharge_date is required")
		return
	}

	if err := h.ledger.DischargeEncounter(r.Context(), id, body.DischargeDate); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordDiagnosis handles POST /api/patients/{id}/diagnoses
func (h *LedgerHandler) RecordDiagnosis(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var diagnosis entities.Diagnosis
	if !decodeJSON(w, r, &diagnosis) {
		return
	}
	diagnosis.PatientID = patientID

	if err := h.ledger.RecordDiagnosis(r.Context(), &diagnosis); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, diagnosis)
}

// ListDiagnoses handles GET /api/patients/{id}/diagnoses
func (h *LedgerHandler) ListDiagnoses(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientDiagnoses(ctx, patientID)
	})
}

// TransitionDiagnosis handles POST /api/diagnoses/{id}/transition
func (h *LedgerHandler) TransitionDiagnosis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		Status entities.DiagnosisStatus `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.ledger.TransitionDiagnosis(r.Context(), id, body.Status); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordRiskFactor handles POST /api/patients/{id}/risk-factors
func (h *LedgerHandler) RecordRiskFactor(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var factor entities.RiskFactor
	if !decodeJSON(w, r, &factor) {
		return
	}
	factor.PatientID = patientID

	if err := h.ledger.RecordRiskFactor(r.Context(), &factor); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, factor)
}

// ListRiskFactors handles GET /api/patients/{id}/risk-factors
func (h *LedgerHandler) ListRiskFactors(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientRiskFactors(ctx, patientID)
	})
}

// EndRiskFactor handles POST /api/risk-factors/{id}/end
func (h *LedgerHandler) EndRiskFactor(w http.ResponseWriter, r *http.Request) {
	h.endEvent(w, r, h.ledger.EndRiskFactor)
}

// RecordSocialDeterminant handles POST /api/patients/{id}/social-determinants
func (h *LedgerHandler) RecordSocialDeterminant(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var determinant entities.SocialDeterminant
	if !decodeJSON(w, r, &determinant) {
		return
	}
	determinant.PatientID = patientID

	if err := h.ledger.RecordSocialDeterminant(r.Context(), &determinant); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, determinant)
}

// ListSocialDeterminants handles GET /api/patients/{id}/social-determinants
func (h *LedgerHandler) ListSocialDeterminants(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientSocialDeterminants(ctx, patientID)
	})
}

// ResolveSocialDeterminant handles POST /api/social-determinants/{id}/resolve
func (h *LedgerHandler) ResolveSocialDeterminant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		ResolutionDate time.Time `json:"resolution_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ResolutionDate.IsZero() {
		respondWithError(w, http.StatusBadRequest, "resolution_date is required")
		return
	}

	if err := h.ledger.ResolveSocialDeterminant(r.Context(), id, body.ResolutionDate); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordMedication handles POST /api/patients/{id}/medications
func (h *LedgerHandler) RecordMedication(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var medication entities.Medication
	if !decodeJSON(w, r, &medication) {
		return
	}
	medication.PatientID = patientID

	if err := h.ledger.RecordMedication(r.Context(), &medication); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, medication)
}

// ListMedications handles GET /api/patients/{id}/medications
func (h *LedgerHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientMedications(ctx, patientID)
	})
}

// EndMedication handles POST /api/medications/{id}/end
func (h *LedgerHandler) EndMedication(w http.ResponseWriter, r *http.Request) {
	h.endEvent(w, r, h.ledger.EndMedication)
}

// RecordAllergy handles POST /api/patients/{id}/allergies
func (h *LedgerHandler) RecordAllergy(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var allergy entities.Allergy
	if !decodeJSON(w, r, &allergy) {
		return
	}
	allergy.PatientID = patientID

	if err := h.ledger.RecordAllergy(r.Context(), &allergy); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, allergy)
}

// ListAllergies handles GET /api/patients/{id}/allergies
func (h *LedgerHandler) ListAllergies(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientAllergies(ctx, patientID)
	})
}

// OrderLab handles POST /api/patients/{id}/lab-orders
func (h *LedgerHandler) OrderLab(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var order entities.LabOrder
	if !decodeJSON(w, r, &order) {
		return
	}
	order.PatientID = patientID

	if err := h.ledger.OrderLab(r.Context(), &order); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, order)
}

// ListLabOrders handles GET /api/patients/{id}/lab-orders
func (h *LedgerHandler) ListLabOrders(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientLabOrders(ctx, patientID)
	})
}

// TransitionLabOrder handles POST /api/lab-orders/{id}/transition
func (h *LedgerHandler) TransitionLabOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		Status entities.LabOrderStatus `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.ledger.TransitionLabOrder(r.Context(), id, body.Status); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordLabResult handles POST /api/lab-orders/{id}/results
func (h *LedgerHandler) RecordLabResult(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var result entities.LabResult
	if !decodeJSON(w, r, &result) {
		return
	}
	result.LabOrderID = orderID

	if err := h.ledger.RecordLabResult(r.Context(), &result); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// ListLabResults handles GET /api/lab-orders/{id}/results
func (h *LedgerHandler) ListLabResults(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	results, err := h.ledger.LabOrderResults(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// RecordVitalSigns handles POST /api/patients/{id}/vitals
func (h *LedgerHandler) RecordVitalSigns(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var vitals entities.VitalSigns
	if !decodeJSON(w, r, &vitals) {
		return
	}
	vitals.PatientID = patientID

	if err := h.ledger.RecordVitalSigns(r.Context(), &vitals); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, vitals)
}

// ListVitalSigns handles GET /api/patients/{id}/vitals
func (h *LedgerHandler) ListVitalSigns(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientVitalSigns(ctx, patientID)
	})
}

// RecordImmunization handles POST /api/patients/{id}/immunizations
func (h *LedgerHandler) RecordImmunization(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var immunization entities.Immunization
	if !decodeJSON(w, r, &immunization) {
		return
	}
	immunization.PatientID = patientID

	if err := h.ledger.RecordImmunization(r.Context(), &immunization); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, immunization)
}

// ListImmunizations handles GET /api/patients/{id}/immunizations
func (h *LedgerHandler) ListImmunizations(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientImmunizations(ctx, patientID)
	})
}

// RecordFamilyHistory handles POST /api/patients/{id}/family-history
func (h *LedgerHandler) RecordFamilyHistory(w http.ResponseWriter, r *http.Request) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var history entities.FamilyHistory
	if !decodeJSON(w, r, &history) {
		return
	}
	history.PatientID = patientID

	if err := h.ledger.RecordFamilyHistory(r.Context(), &history); err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, history)
}

// ListFamilyHistory handles GET /api/patients/{id}/family-history
func (h *LedgerHandler) ListFamilyHistory(w http.ResponseWriter, r *http.Request) {
	h.listForPatient(w, r, func(ctx context.Context, patientID uuid.UUID) (interface{}, error) {
		return h.ledger.PatientFamilyHistory(ctx, patientID)
	})
}

func (h *LedgerHandler) listForPatient(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, patientID uuid.UUID) (interface{}, error)) {
	patientID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	events, err := fetch(r.Context(), patientID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// endEvent serves the shared shape of the end-dated transitions: a body with
// one end_date field applied to the event named in the path.
func (h *LedgerHandler) endEvent(w http.ResponseWriter, r *http.Request, end func(ctx context.Context, id uuid.UUID, endDate time.Time) error) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var body struct {
		EndDate time.Time `json:"end_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.EndDate.IsZero() {
		respondWithError(w, http.StatusBadRequest, "end_date is required")
		return
	}

	if err := end(r.Context(), id, body.EndDate); err != nil {
		respondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
