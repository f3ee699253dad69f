package entities

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosisStatus is the clinical state of a diagnosis. Transitions are
// forward-only; RESOLVED is terminal.
type DiagnosisStatus string

const (
	DiagnosisStatusActive   DiagnosisStatus = "ACTIVE"
	DiagnosisStatusInactive DiagnosisStatus = "INACTIVE"
	DiagnosisStatusResolved DiagnosisStatus = "RESOLVED"
)

var diagnosisStatusRank = map[DiagnosisStatus]int{
	DiagnosisStatusActive:   0,
	DiagnosisStatusInactive: 1,
	DiagnosisStatusResolved: 2,
}

// Valid reports whether s is a known diagnosis status.
func (s DiagnosisStatus) Valid() bool {
	_, ok := diagnosisStatusRank[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s DiagnosisStatus) Terminal() bool {
	return s == DiagnosisStatusResolved
}

// CanTransitionTo reports whether the status machine permits moving from s
// to next. Only strictly forward moves from a non-terminal state qualify.
func (s DiagnosisStatus) CanTransitionTo(next DiagnosisStatus) bool {
	if s.Terminal() || !s.Valid() || !next.Valid() {
		return false
	}
	return diagnosisStatusRank[next] > diagnosisStatusRank[s]
}

// Diagnosis links a patient to an ICD catalog entry. Immutable once
// recorded except for status transitions driven by the ledger.
type Diagnosis struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	PatientID     uuid.UUID       `json:"patient_id" db:"patient_id"`
	EncounterID   *uuid.UUID      `json:"encounter_id,omitempty" db:"encounter_id"`
	ICDCodeID     uuid.UUID       `json:"icd_code_id" db:"icd_code_id"`
	ProviderID    *uuid.UUID      `json:"provider_id,omitempty" db:"provider_id"`
	DiagnosisDate time.Time       `json:"diagnosis_date" db:"diagnosis_date"`
	DiagnosisType string          `json:"diagnosis_type" db:"diagnosis_type"`
	Status        DiagnosisStatus `json:"status" db:"status"`
	ResolvedDate  *time.Time      `json:"resolved_date,omitempty" db:"resolved_date"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	Version       int             `json:"version" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
