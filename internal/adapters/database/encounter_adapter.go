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

// EncounterAdapter implements the EncounterRepository interface
type EncounterAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewEncounterAdapter creates a new encounter adapter
func NewEncounterAdapter(client *postgres.Client) repositories.EncounterRepository {
	return &EncounterAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new encounter
func (a *EncounterAdapter) Create(ctx context.Context, encounter *entities.Encounter) error {
	query, args, err := a.db.Insert("encounters").Rows(goqu.Record{
		"id":              encounter.ID,
		"patient_id":      encounter.PatientID,
		"provider_id":     nullUUID(encounter.ProviderID),
		"department_id":   nullUUID(encounter.DepartmentID),
		"encounter_class": encounter.EncounterClass,
		"reason":          nullString(encounter.Reason),
		"admission_date":  encounter.AdmissionDate,
		"discharge_date":  nullTime(encounter.DischargeDate),
		"is_active":       encounter.IsActive,
		"notes":           nullString(encounter.Notes),
		"created_at":      encounter.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create encounter", err)
	}
	return nil
}

const encounterSelect = `
	SELECT id, patient_id, provider_id, department_id, encounter_class,
	       reason, admission_date, discharge_date, is_active, notes, created_at
	FROM encounters`

func scanEncounter(row interface{ Scan(...interface{}) error }) (*entities.Encounter, error) {
	encounter := &entities.Encounter{}
	var providerID, departmentID uuid.NullUUID
	var reason, notes sql.NullString
	var dischargeDate sql.NullTime

	err := row.Scan(
		&encounter.ID,
		&encounter.PatientID,
		&providerID,
		&departmentID,
		&encounter.EncounterClass,
		&reason,
		&encounter.AdmissionDate,
		&dischargeDate,
		&encounter.IsActive,
		&notes,
		&encounter.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	encounter.ProviderID = uuidPtr(providerID)
	encounter.DepartmentID = uuidPtr(departmentID)
	encounter.Reason = stringPtr(reason)
	encounter.DischargeDate = timePtr(dischargeDate)
	encounter.Notes = stringPtr(notes)
	return encounter, nil
}

// GetByID retrieves an encounter by ID
func (a *EncounterAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Encounter, error) {
	row := a.client.DB().QueryRowContext(ctx, encounterSelect+` WHERE id = $1`, id)
	encounter, err := scanEncounter(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("encounter with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get encounter", err)
	}
	return encounter, nil
}

// ListByPatient retrieves a patient's encounters, newest first
func (a *EncounterAdapter) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Encounter, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		encounterSelect+` WHERE patient_id = $1 ORDER BY admission_date DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list encounters", err)
	}
	defer rows.Close()

	encounters := []*entities.Encounter{}
	for rows.Next() {
		encounter, err := scanEncounter(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan encounter", err)
		}
		encounters = append(encounters, encounter)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating encounters", err)
	}
	return encounters, nil
}

// Discharge sets the discharge date and the derived active flag in one
// update
func (a *EncounterAdapter) Discharge(ctx context.Context, id uuid.UUID, dischargeDate time.Time, isActive bool) error {
	result, err := a.client.DB().ExecContext(ctx,
		`UPDATE encounters SET discharge_date = $2, is_active = $3 WHERE id = $1`,
		id, dischargeDate, isActive)
	if err != nil {
		return apperrors.NewInternalError("failed to discharge encounter", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("encounter with id %s not found", id))
	}
	return nil
}
