package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// RiskFactorAdapter implements the RiskFactorRepository interface for risk
// factors and social determinants
type RiskFactorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRiskFactorAdapter creates a new risk factor adapter
func NewRiskFactorAdapter(client *postgres.Client) repositories.RiskFactorRepository {
	return &RiskFactorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new risk factor
func (a *RiskFactorAdapter) Create(ctx context.Context, factor *entities.RiskFactor) error {
	query, args, err := a.db.Insert("risk_factors").Rows(goqu.Record{
		"id":           factor.ID,
		"patient_id":   factor.PatientID,
		"factor_name":  factor.FactorName,
		"factor_value": nullString(factor.FactorValue),
		"factor_type":  factor.FactorType,
		"severity":     nullString(factor.Severity),
		"onset_date":   nullTime(factor.OnsetDate),
		"end_date":     nullTime(factor.EndDate),
		"is_current":   factor.IsCurrent,
		"notes":        nullString(factor.Notes),
		"created_at":   factor.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create risk factor", err)
	}
	return nil
}

const riskFactorSelect = `
	SELECT id, patient_id, factor_name, factor_value, factor_type, severity,
	       onset_date, end_date, is_current, notes, created_at
	FROM risk_factors`

func scanRiskFactor(row interface{ Scan(...interface{}) error }) (*entities.RiskFactor, error) {
	factor := &entities.RiskFactor{}
	var factorValue, severity, notes sql.NullString
	var onsetDate, endDate sql.NullTime

	err := row.Scan(
		&factor.ID,
		&factor.PatientID,
		&factor.FactorName,
		&factorValue,
		&factor.FactorType,
		&severity,
		&onsetDate,
		&endDate,
		&factor.IsCurrent,
		&notes,
		&factor.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	factor.FactorValue = stringPtr(factorValue)
	factor.Severity = stringPtr(severity)
	factor.OnsetDate = timePtr(onsetDate)
	factor.EndDate = timePtr(endDate)
	factor.Notes = stringPtr(notes)
	return factor, nil
}

// GetByID retrieves a risk factor by ID
func (a *RiskFactorAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.RiskFactor, error) {
	row := a.client.DB().QueryRowContext(ctx, riskFactorSelect+` WHERE id = $1`, id)
	factor, err := scanRiskFactor(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("risk factor with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get risk factor", err)
	}
	return factor, nil
}

// ListByPatient retrieves a patient's risk factors, newest first
func (a *RiskFactorAdapter) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.RiskFactor, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		riskFactorSelect+` WHERE patient_id = $1 ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list risk factors", err)
	}
	defer rows.Close()

	factors := []*entities.RiskFactor{}
	for rows.Next() {
		factor, err := scanRiskFactor(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan risk factor", err)
		}
		factors = append(factors, factor)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating risk factors", err)
	}
	return factors, nil
}

// End sets the end date and the derived current flag in one update
func (a *RiskFactorAdapter) End(ctx context.Context, id uuid.UUID, endDate time.Time, isCurrent bool) error {
	result, err := a.client.DB().ExecContext(ctx,
		`UPDATE risk_factors SET end_date = $2, is_current = $3 WHERE id = $1`,
		id, endDate, isCurrent)
	if err != nil {
		return apperrors.NewInternalError("failed to end risk factor", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("risk factor with id %s not found", id))
	}
	return nil
}

// CreateSocialDeterminant creates a social determinant entry
func (a *RiskFactorAdapter) CreateSocialDeterminant(ctx context.Context, det *entities.SocialDeterminant) error {
	query, args, err := a.db.Insert("social_determinants").Rows(goqu.Record{
		"id":              det.ID,
		"patient_id":      det.PatientID,
		"category":        det.Category,
		"description":     nullString(det.Description),
		"identified_date": det.IdentifiedDate,
		"resolution_date": nullTime(det.ResolutionDate),
		"is_current":      det.IsCurrent,
		"created_at":      det.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create social determinant", err)
	}
	return nil
}

// ListSocialDeterminants retrieves a patient's social determinants
func (a *RiskFactorAdapter) ListSocialDeterminants(ctx context.Context, patientID uuid.UUID) ([]*entities.SocialDeterminant, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, patient_id, category, description, identified_date,
		       resolution_date, is_current, created_at
		FROM social_determinants
		WHERE patient_id = $1
		ORDER BY identified_date DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list social determinants", err)
	}
	defer rows.Close()

	determinants := []*entities.SocialDeterminant{}
	for rows.Next() {
		det := &entities.SocialDeterminant{}
		var description sql.NullString
		var resolutionDate sql.NullTime
		if err := rows.Scan(&det.ID, &det.PatientID, &det.Category, &description,
			&det.IdentifiedDate, &resolutionDate, &det.IsCurrent, &det.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan social determinant", err)
		}
		det.Description = stringPtr(description)
		det.ResolutionDate = timePtr(resolutionDate)
		determinants = append(determinants, det)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating social determinants", err)
	}
	return determinants, nil
}

// ResolveSocialDeterminant closes a social determinant
func (a *RiskFactorAdapter) ResolveSocialDeterminant(ctx context.Context, id uuid.UUID, resolutionDate time.Time, isCurrent bool) error {
	result, err := a.client.DB().ExecContext(ctx,
		`UPDATE social_determinants SET resolution_date = $2, is_current = $3 WHERE id = $1`,
		id, resolutionDate, isCurrent)
	if err != nil {
		return apperrors.NewInternalError("failed to resolve social determinant", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("social determinant with id %s not found", id))
	}
	return nil
}
