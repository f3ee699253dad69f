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

// DiagnosisAdapter implements the DiagnosisRepository interface
type DiagnosisAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDiagnosisAdapter creates a new diagnosis adapter
func NewDiagnosisAdapter(client *postgres.Client) repositories.DiagnosisRepository {
	return &DiagnosisAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new diagnosis
func (a *DiagnosisAdapter) Create(ctx context.Context, diagnosis *entities.Diagnosis) error {
	query, args, err := a.db.Insert("diagnoses").Rows(goqu.Record{
		"id":             diagnosis.ID,
		"patient_id":     diagnosis.PatientID,
		"encounter_id":   nullUUID(diagnosis.EncounterID),
		"icd_code_id":    diagnosis.ICDCodeID,
		"provider_id":    nullUUID(diagnosis.ProviderID),
		"diagnosis_date": diagnosis.DiagnosisDate,
		"diagnosis_type": diagnosis.DiagnosisType,
		"status":         diagnosis.Status,
		"resolved_date":  nullTime(diagnosis.ResolvedDate),
		"notes":          nullString(diagnosis.Notes),
		"version":        diagnosis.Version,
		"created_at":     diagnosis.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create diagnosis", err)
	}
	return nil
}

const diagnosisSelect = `
	SELECT id, patient_id, encounter_id, icd_code_id, provider_id,
	       diagnosis_date, diagnosis_type, status, resolved_date, notes,
	       version, created_at
	FROM diagnoses`

func scanDiagnosis(row interface{ Scan(...interface{}) error }) (*entities.Diagnosis, error) {
	diagnosis := &entities.Diagnosis{}
	var encounterID, providerID uuid.NullUUID
	var resolvedDate sql.NullTime
	var notes sql.NullString

	err := row.Scan(
		&diagnosis.ID,
		&diagnosis.PatientID,
		&encounterID,
		&diagnosis.ICDCodeID,
		&providerID,
		&diagnosis.DiagnosisDate,
		&diagnosis.DiagnosisType,
		&diagnosis.Status,
		&resolvedDate,
		&notes,
		&diagnosis.Version,
		&diagnosis.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	diagnosis.EncounterID = uuidPtr(encounterID)
	diagnosis.ProviderID = uuidPtr(providerID)
	diagnosis.ResolvedDate = timePtr(resolvedDate)
	diagnosis.Notes = stringPtr(notes)
	return diagnosis, nil
}

// GetByID retrieves a diagnosis by ID
func (a *DiagnosisAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Diagnosis, error) {
	row := a.client.DB().QueryRowContext(ctx, diagnosisSelect+` WHERE id = $1`, id)
	diagnosis, err := scanDiagnosis(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("diagnosis with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get diagnosis", err)
	}
	return diagnosis, nil
}

// ListByPatient retrieves a patient's diagnoses, newest first
func (a *DiagnosisAdapter) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Diagnosis, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		diagnosisSelect+` WHERE patient_id = $1 ORDER BY diagnosis_date DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list diagnoses", err)
	}
	defer rows.Close()

	diagnoses := []*entities.Diagnosis{}
	for rows.Next() {
		diagnosis, err := scanDiagnosis(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan diagnosis", err)
		}
		diagnoses = append(diagnoses, diagnosis)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating diagnoses", err)
	}
	return diagnoses, nil
}

// UpdateStatus applies a status transition guarded by the version the
// caller read. Zero rows means another writer advanced the version first;
// the caller re-reads and re-validates before retrying.
func (a *DiagnosisAdapter) UpdateStatus(ctx context.Context, id uuid.UUID, version int, status entities.DiagnosisStatus, resolvedDate *time.Time) error {
	result, err := a.client.DB().ExecContext(ctx, `
		UPDATE diagnoses
		SET status = $3, resolved_date = $4, version = version + 1
		WHERE id = $1 AND version = $2`,
		id, version, status, nullTime(resolvedDate))
	if err != nil {
		return apperrors.NewInternalError("failed to update diagnosis status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewConcurrentModificationError(
			fmt.Sprintf("diagnosis %s changed since version %d was read", id, version), nil)
	}
	return nil
}
