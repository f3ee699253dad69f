package entities

import (
	"time"

	"github.com/google/uuid"
)

// RiskFactor is a surveillance-relevant exposure or attribute of a patient
// (smoking, occupational exposure, hypertension family history, ...).
// IsCurrent is derived by the ledger from EndDate; callers never set it.
type RiskFactor struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	PatientID   uuid.UUID  `json:"patient_id" db:"patient_id"`
	FactorName  string     `json:"factor_name" db:"factor_name"`
	FactorValue *string    `json:"factor_value,omitempty" db:"factor_value"`
	FactorType  string     `json:"factor_type" db:"factor_type"`
	Severity    *string    `json:"severity,omitempty" db:"severity"`
	OnsetDate   *time.Time `json:"onset_date,omitempty" db:"onset_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsCurrent   bool       `json:"is_current" db:"is_current"`
	Notes       *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// SocialDeterminant records a non-clinical circumstance affecting health
// (housing instability, food insecurity, ...), with the same interval
// semantics as risk factors.
type SocialDeterminant struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	PatientID      uuid.UUID  `json:"patient_id" db:"patient_id"`
	Category       string     `json:"category" db:"category"`
	Description    *string    `json:"description,omitempty" db:"description"`
	IdentifiedDate time.Time  `json:"identified_date" db:"identified_date"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty" db:"resolution_date"`
	IsCurrent      bool       `json:"is_current" db:"is_current"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
