package entities

import (
	"time"

	"github.com/google/uuid"
)

// ClinicalEventKind names a clinical event family in the ledger.
type ClinicalEventKind string

const (
	EventKindEncounter         ClinicalEventKind = "encounter"
	EventKindDiagnosis         ClinicalEventKind = "diagnosis"
	EventKindRiskFactor        ClinicalEventKind = "risk_factor"
	EventKindSocialDeterminant ClinicalEventKind = "social_determinant"
	EventKindMedication        ClinicalEventKind = "medication"
	EventKindAllergy           ClinicalEventKind = "allergy"
	EventKindLabOrder          ClinicalEventKind = "lab_order"
	EventKindLabResult         ClinicalEventKind = "lab_result"
	EventKindVitalSigns        ClinicalEventKind = "vital_signs"
	EventKindImmunization      ClinicalEventKind = "immunization"
	EventKindFamilyHistory     ClinicalEventKind = "family_history"
)

// LedgerNotice is the message published on the event bus whenever the
// ledger records or transitions a clinical event. Downstream consumers
// (cohort tooling, report refreshers) subscribe to these.
type LedgerNotice struct {
	ID        uuid.UUID         `json:"id"`
	Kind      ClinicalEventKind `json:"kind"`
	Action    string            `json:"action"`
	PatientID uuid.UUID         `json:"patient_id"`
	EventID   uuid.UUID         `json:"event_id"`
	Timestamp time.Time         `json:"timestamp"`
}
