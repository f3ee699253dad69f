package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SurveillanceRepository defines the read-only composite queries the
// surveillance views are built from. Every query is a single statement so
// it reads a consistent snapshot without blocking writers. An optional
// cohort filter restricts rows to the cohort's currently active members.
type SurveillanceRepository interface {
	// RiskFactorExposure joins patients to their current risk factors
	RiskFactorExposure(ctx context.Context, cohortID *uuid.UUID) ([]RiskFactorExposureRow, error)

	// DiagnosisPrevalence returns one row per (patient, diagnosis) pair
	// joined to the ICD catalog, with no deduplication by code
	DiagnosisPrevalence(ctx context.Context, cohortID *uuid.UUID) ([]DiagnosisPrevalenceRow, error)

	// DiagnosisLocations returns (patient, ICD code, primary address
	// coordinate) tuples for patients whose primary address carries a
	// coordinate; patients without one are omitted here, not zero-counted
	DiagnosisLocations(ctx context.Context, cohortID *uuid.UUID) ([]DiagnosisLocationRow, error)

	// HighRiskComposite returns per-patient counts of current risk factors
	// and active diagnoses, using outer joins so patients with neither
	// still appear with zero counts
	HighRiskComposite(ctx context.Context, cohortID *uuid.UUID) ([]HighRiskRow, error)
}

// RiskFactorExposureRow projects a patient joined to one current risk factor
type RiskFactorExposureRow struct {
	PatientID   uuid.UUID  `db:"patient_id"`
	MRN         string     `db:"mrn"`
	FirstName   string     `db:"first_name"`
	LastName    string     `db:"last_name"`
	Gender      string     `db:"gender"`
	DateOfBirth time.Time  `db:"date_of_birth"`
	FactorName  string     `db:"factor_name"`
	FactorType  string     `db:"factor_type"`
	Severity    *string    `db:"severity"`
	OnsetDate   *time.Time `db:"onset_date"`
}

// DiagnosisPrevalenceRow projects one (patient, diagnosis) pair
type DiagnosisPrevalenceRow struct {
	PatientID      uuid.UUID `db:"patient_id"`
	MRN            string    `db:"mrn"`
	ICDCode        string    `db:"icd_code"`
	ICDDescription string    `db:"icd_description"`
	DiagnosisDate  time.Time `db:"diagnosis_date"`
	Status         string    `db:"status"`
}

// DiagnosisLocationRow carries the inputs for geographic aggregation
type DiagnosisLocationRow struct {
	PatientID uuid.UUID `db:"patient_id"`
	ICDCode   string    `db:"icd_code"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
}

// HighRiskRow projects per-patient factor and diagnosis counts
type HighRiskRow struct {
	PatientID            uuid.UUID `db:"patient_id"`
	MRN                  string    `db:"mrn"`
	FirstName            string    `db:"first_name"`
	LastName             string    `db:"last_name"`
	RiskFactorCount      int       `db:"risk_factor_count"`
	ActiveDiagnosisCount int       `db:"active_diagnosis_count"`
}
