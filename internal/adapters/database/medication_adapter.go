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

// MedicationAdapter implements the MedicationRepository interface for
// medications and allergies
type MedicationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicationAdapter creates a new medication adapter
func NewMedicationAdapter(client *postgres.Client) repositories.MedicationRepository {
	return &MedicationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new medication
func (a *MedicationAdapter) Create(ctx context.Context, medication *entities.Medication) error {
	query, args, err := a.db.Insert("medications").Rows(goqu.Record{
		"id":           medication.ID,
		"patient_id":   medication.PatientID,
		"encounter_id": nullUUID(medication.EncounterID),
		"provider_id":  nullUUID(medication.ProviderID),
		"drug_id":      medication.DrugID,
		"dosage":       nullString(medication.Dosage),
		"frequency":    nullString(medication.Frequency),
		"start_date":   medication.StartDate,
		"end_date":     nullTime(medication.EndDate),
		"is_active":    medication.IsActive,
		"created_at":   medication.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create medication", err)
	}
	return nil
}

const medicationSelect = `
	SELECT id, patient_id, encounter_id, provider_id, drug_id, dosage,
	       frequency, start_date, end_date, is_active, created_at
	FROM medications`

func scanMedication(row interface{ Scan(...interface{}) error }) (*entities.Medication, error) {
	medication := &entities.Medication{}
	var encounterID, providerID uuid.NullUUID
	var dosage, frequency sql.NullString
	var endDate sql.NullTime

	err := row.Scan(
		&medication.ID,
		&medication.PatientID,
		&encounterID,
		&providerID,
		&medication.DrugID,
		&dosage,
		&frequency,
		&medication.StartDate,
		&endDate,
		&medication.IsActive,
		&medication.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	medication.EncounterID = uuidPtr(encounterID)
	medication.ProviderID = uuidPtr(providerID)
	medication.Dosage = stringPtr(dosage)
	medication.Frequency = stringPtr(frequency)
	medication.EndDate = timePtr(endDate)
	return medication, nil
}

// GetByID retrieves a medication by ID
func (a *MedicationAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Medication, error) {
	row := a.client.DB().QueryRowContext(ctx, medicationSelect+` WHERE id = $1`, id)
	medication, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("medication with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get medication", err)
	}
	return medication, nil
}

// ListByPatient retrieves a patient's medications, newest first
func (a *MedicationAdapter) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Medication, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		medicationSelect+` WHERE patient_id = $1 ORDER BY start_date DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medications", err)
	}
	defer rows.Close()

	medications := []*entities.Medication{}
	for rows.Next() {
		medication, err := scanMedication(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medication", err)
		}
		medications = append(medications, medication)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating medications", err)
	}
	return medications, nil
}

// End sets the end date and the derived active flag in one update
func (a *MedicationAdapter) End(ctx context.Context, id uuid.UUID, endDate time.Time, isActive bool) error {
	result, err := a.client.DB().ExecContext(ctx,
		`UPDATE medications SET end_date = $2, is_active = $3 WHERE id = $1`,
		id, endDate, isActive)
	if err != nil {
		return apperrors.NewInternalError("failed to end medication", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("medication with id %s not found", id))
	}
	return nil
}

// CreateAllergy creates an allergy entry
func (a *MedicationAdapter) CreateAllergy(ctx context.Context, allergy *entities.Allergy) error {
	query, args, err := a.db.Insert("allergies").Rows(goqu.Record{
		"id":            allergy.ID,
		"patient_id":    allergy.PatientID,
		"allergen":      allergy.Allergen,
		"allergy_type":  allergy.AllergyType,
		"reaction":      nullString(allergy.Reaction),
		"severity":      nullString(allergy.Severity),
		"onset_date":    nullTime(allergy.OnsetDate),
		"resolved_date": nullTime(allergy.ResolvedDate),
		"is_current":    allergy.IsCurrent,
		"created_at":    allergy.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create allergy", err)
	}
	return nil
}

// ListAllergies retrieves a patient's allergies
func (a *MedicationAdapter) ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*entities.Allergy, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, patient_id, allergen, allergy_type, reaction, severity,
		       onset_date, resolved_date, is_current, created_at
		FROM allergies
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list allergies", err)
	}
	defer rows.Close()

	allergies := []*entities.Allergy{}
	for rows.Next() {
		allergy := &entities.Allergy{}
		var reaction, severity sql.NullString
		var onsetDate, resolvedDate sql.NullTime
		if err := rows.Scan(&allergy.ID, &allergy.PatientID, &allergy.Allergen, &allergy.AllergyType,
			&reaction, &severity, &onsetDate, &resolvedDate, &allergy.IsCurrent, &allergy.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan allergy", err)
		}
		allergy.Reaction = stringPtr(reaction)
		allergy.Severity = stringPtr(severity)
		allergy.OnsetDate = timePtr(onsetDate)
		allergy.ResolvedDate = timePtr(resolvedDate)
		allergies = append(allergies, allergy)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating allergies", err)
	}
	return allergies, nil
}
