package entities

import (
	"time"

	"github.com/google/uuid"
)

// Cohort is a named, versioned patient group tracked for longitudinal
// study. Criteria are opaque descriptive text; evaluation happens outside
// this core and membership is always an explicit add/remove.
type Cohort struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Criteria    string    `json:"criteria" db:"criteria"`
	Version     int       `json:"version" db:"version"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CohortMembership joins a patient to a cohort with full add/remove
// history. At most one row per (cohort, patient) pair is active at any
// instant; removal is soft so history is retained.
type CohortMembership struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	CohortID     uuid.UUID  `json:"cohort_id" db:"cohort_id"`
	PatientID    uuid.UUID  `json:"patient_id" db:"patient_id"`
	AddedBy      string     `json:"added_by" db:"added_by"`
	AddedDate    time.Time  `json:"added_date" db:"added_date"`
	RemovedBy    *string    `json:"removed_by,omitempty" db:"removed_by"`
	RemovedDate  *time.Time `json:"removed_date,omitempty" db:"removed_date"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
