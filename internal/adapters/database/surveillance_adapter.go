package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// SurveillanceAdapter implements the SurveillanceRepository interface.
// Each view is one statement so it reads a consistent snapshot without
// blocking writers. The optional cohort filter restricts rows to the
// cohort's currently active members; passing NULL disables it, which keeps
// every view a single prepared shape.
type SurveillanceAdapter struct {
	client *postgres.Client
}

// NewSurveillanceAdapter creates a new surveillance adapter
func NewSurveillanceAdapter(client *postgres.Client) repositories.SurveillanceRepository {
	return &SurveillanceAdapter{client: client}
}

const cohortMemberFilter = `($1::uuid IS NULL OR EXISTS (
		SELECT 1 FROM cohort_memberships cm
		WHERE cm.cohort_id = $1 AND cm.patient_id = p.id AND cm.is_active))`

// RiskFactorExposure joins patients to their current risk factors
func (a *SurveillanceAdapter) RiskFactorExposure(ctx context.Context, cohortID *uuid.UUID) ([]repositories.RiskFactorExposureRow, error) {
	query := `
		SELECT p.id, p.mrn, p.first_name, p.last_name, p.gender, p.date_of_birth,
		       rf.factor_name, rf.factor_type, rf.severity, rf.onset_date
		FROM patients p
		JOIN risk_factors rf ON rf.patient_id = p.id AND rf.is_current
		WHERE ` + cohortMemberFilter + `
		ORDER BY p.last_name, p.first_name, rf.factor_name`

	rows, err := a.client.DB().QueryContext(ctx, query, nullUUID(cohortID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query risk factor exposure", err)
	}
	defer rows.Close()

	results := []repositories.RiskFactorExposureRow{}
	for rows.Next() {
		var row repositories.RiskFactorExposureRow
		if err := rows.Scan(&row.PatientID, &row.MRN, &row.FirstName, &row.LastName,
			&row.Gender, &row.DateOfBirth, &row.FactorName, &row.FactorType,
			&row.Severity, &row.OnsetDate); err != nil {
			return nil, apperrors.NewInternalError("failed to scan risk factor exposure row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating risk factor exposure rows", err)
	}
	return results, nil
}

// DiagnosisPrevalence returns one row per (patient, diagnosis) pair joined
// to the ICD catalog
func (a *SurveillanceAdapter) DiagnosisPrevalence(ctx context.Context, cohortID *uuid.UUID) ([]repositories.DiagnosisPrevalenceRow, error) {
	query := `
		SELECT p.id, p.mrn, c.code, c.description, d.diagnosis_date, d.status
		FROM patients p
		JOIN diagnoses d ON d.patient_id = p.id
		JOIN icd_codes c ON c.id = d.icd_code_id
		WHERE ` + cohortMemberFilter + `
		ORDER BY c.code, p.mrn, d.diagnosis_date`

	rows, err := a.client.DB().QueryContext(ctx, query, nullUUID(cohortID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query diagnosis prevalence", err)
	}
	defer rows.Close()

	results := []repositories.DiagnosisPrevalenceRow{}
	for rows.Next() {
		var row repositories.DiagnosisPrevalenceRow
		if err := rows.Scan(&row.PatientID, &row.MRN, &row.ICDCode, &row.ICDDescription,
			&row.DiagnosisDate, &row.Status); err != nil {
			return nil, apperrors.NewInternalError("failed to scan diagnosis prevalence row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating diagnosis prevalence rows", err)
	}
	return results, nil
}

// DiagnosisLocations returns (patient, ICD code, primary address
// coordinate) tuples. Patients whose primary address has no coordinate are
// filtered here; the view layer never sees them.
func (a *SurveillanceAdapter) DiagnosisLocations(ctx context.Context, cohortID *uuid.UUID) ([]repositories.DiagnosisLocationRow, error) {
	query := `
		SELECT DISTINCT p.id, c.code, pa.latitude, pa.longitude
		FROM patients p
		JOIN diagnoses d ON d.patient_id = p.id
		JOIN icd_codes c ON c.id = d.icd_code_id
		JOIN patient_addresses pa ON pa.patient_id = p.id
			AND pa.is_primary
			AND pa.latitude IS NOT NULL
			AND pa.longitude IS NOT NULL
		WHERE ` + cohortMemberFilter + `
		ORDER BY c.code, p.id`

	rows, err := a.client.DB().QueryContext(ctx, query, nullUUID(cohortID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query diagnosis locations", err)
	}
	defer rows.Close()

	results := []repositories.DiagnosisLocationRow{}
	for rows.Next() {
		var row repositories.DiagnosisLocationRow
		if err := rows.Scan(&row.PatientID, &row.ICDCode, &row.Latitude, &row.Longitude); err != nil {
			return nil, apperrors.NewInternalError("failed to scan diagnosis location row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating diagnosis location rows", err)
	}
	return results, nil
}

// HighRiskComposite returns per-patient counts of current risk factors and
// active diagnoses. Outer joins keep patients with neither in the view.
func (a *SurveillanceAdapter) HighRiskComposite(ctx context.Context, cohortID *uuid.UUID) ([]repositories.HighRiskRow, error) {
	query := `
		SELECT p.id, p.mrn, p.first_name, p.last_name,
		       COUNT(DISTINCT rf.id) AS risk_factor_count,
		       COUNT(DISTINCT d.id) AS active_diagnosis_count
		FROM patients p
		LEFT JOIN risk_factors rf ON rf.patient_id = p.id AND rf.is_current
		LEFT JOIN diagnoses d ON d.patient_id = p.id AND d.status = 'ACTIVE'
		WHERE ` + cohortMemberFilter + `
		GROUP BY p.id, p.mrn, p.first_name, p.last_name
		ORDER BY risk_factor_count + 2 * active_diagnosis_count DESC, p.last_name, p.id`

	rows, err := a.client.DB().QueryContext(ctx, query, nullUUID(cohortID))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query high risk composite", err)
	}
	defer rows.Close()

	results := []repositories.HighRiskRow{}
	for rows.Next() {
		var row repositories.HighRiskRow
		if err := rows.Scan(&row.PatientID, &row.MRN, &row.FirstName, &row.LastName,
			&row.RiskFactorCount, &row.ActiveDiagnosisCount); err != nil {
			return nil, apperrors.NewInternalError("failed to scan high risk row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating high risk rows", err)
	}
	return results, nil
}
