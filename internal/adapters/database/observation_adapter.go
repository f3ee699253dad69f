package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// ObservationAdapter implements the ObservationRepository interface for
// vitals, immunizations and family history
type ObservationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewObservationAdapter creates a new observation adapter
func NewObservationAdapter(client *postgres.Client) repositories.ObservationRepository {
	return &ObservationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateVitalSigns creates a vitals measurement
func (a *ObservationAdapter) CreateVitalSigns(ctx context.Context, vitals *entities.VitalSigns) error {
	query, args, err := a.db.Insert("vital_signs").Rows(goqu.Record{
		"id":                vitals.ID,
		"patient_id":        vitals.PatientID,
		"encounter_id":      nullUUID(vitals.EncounterID),
		"measured_at":       vitals.MeasuredAt,
		"height_cm":         nullFloat(vitals.HeightCm),
		"weight_kg":         nullFloat(vitals.WeightKg),
		"temperature_c":     nullFloat(vitals.TemperatureC),
		"heart_rate":        nullInt(vitals.HeartRate),
		"respiratory_rate":  nullInt(vitals.RespiratoryRate),
		"systolic_bp":       nullInt(vitals.SystolicBP),
		"diastolic_bp":      nullInt(vitals.DiastolicBP),
		"oxygen_saturation": nullFloat(vitals.OxygenSaturation),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create vital signs", err)
	}
	return nil
}

// ListVitalSigns retrieves a patient's vitals measurements, newest first
func (a *ObservationAdapter) ListVitalSigns(ctx context.Context, patientID uuid.UUID) ([]*entities.VitalSigns, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, patient_id, encounter_id, measured_at, height_cm, weight_kg,
		       temperature_c, heart_rate, respiratory_rate, systolic_bp,
		       diastolic_bp, oxygen_saturation
		FROM vital_signs
		WHERE patient_id = $1
		ORDER BY measured_at DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list vital signs", err)
	}
	defer rows.Close()

	measurements := []*entities.VitalSigns{}
	for rows.Next() {
		vitals := &entities.VitalSigns{}
		var encounterID uuid.NullUUID
		var height, weight, temperature, oxygen sql.NullFloat64
		var heartRate, respiratoryRate, systolic, diastolic sql.NullInt64
		if err := rows.Scan(&vitals.ID, &vitals.PatientID, &encounterID, &vitals.MeasuredAt,
			&height, &weight, &temperature, &heartRate, &respiratoryRate,
			&systolic, &diastolic, &oxygen); err != nil {
			return nil, apperrors.NewInternalError("failed to scan vital signs", err)
		}
		vitals.EncounterID = uuidPtr(encounterID)
		vitals.HeightCm = floatPtr(height)
		vitals.WeightKg = floatPtr(weight)
		vitals.TemperatureC = floatPtr(temperature)
		vitals.HeartRate = intPtr(heartRate)
		vitals.RespiratoryRate = intPtr(respiratoryRate)
		vitals.SystolicBP = intPtr(systolic)
		vitals.DiastolicBP = intPtr(diastolic)
		vitals.OxygenSaturation = floatPtr(oxygen)
		measurements = append(measurements, vitals)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating vital signs", err)
	}
	return measurements, nil
}

// CreateImmunization creates an immunization record
func (a *ObservationAdapter) CreateImmunization(ctx context.Context, immunization *entities.Immunization) error {
	query, args, err := a.db.Insert("immunizations").Rows(goqu.Record{
		"id":              immunization.ID,
		"patient_id":      immunization.PatientID,
		"encounter_id":    nullUUID(immunization.EncounterID),
		"provider_id":     nullUUID(immunization.ProviderID),
		"vaccine_id":      immunization.VaccineID,
		"administered_at": immunization.AdministeredAt,
		"dose_number":     nullInt(immunization.DoseNumber),
		"lot_number":      nullString(immunization.LotNumber),
		"created_at":      immunization.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create immunization", err)
	}
	return nil
}

// ListImmunizations retrieves a patient's immunizations, newest first
func (a *ObservationAdapter) ListImmunizations(ctx context.Context, patientID uuid.UUID) ([]*entities.Immunization, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, patient_id, encounter_id, provider_id, vaccine_id,
		       administered_at, dose_number, lot_number, created_at
		FROM immunizations
		WHERE patient_id = $1
		ORDER BY administered_at DESC`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list immunizations", err)
	}
	defer rows.Close()

	immunizations := []*entities.Immunization{}
	for rows.Next() {
		imm := &entities.Immunization{}
		var encounterID, providerID uuid.NullUUID
		var doseNumber sql.NullInt64
		var lotNumber sql.NullString
		if err := rows.Scan(&imm.ID, &imm.PatientID, &encounterID, &providerID, &imm.VaccineID,
			&imm.AdministeredAt, &doseNumber, &lotNumber, &imm.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan immunization", err)
		}
		imm.EncounterID = uuidPtr(encounterID)
		imm.ProviderID = uuidPtr(providerID)
		imm.DoseNumber = intPtr(doseNumber)
		imm.LotNumber = stringPtr(lotNumber)
		immunizations = append(immunizations, imm)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating immunizations", err)
	}
	return immunizations, nil
}

// CreateFamilyHistory creates a family history entry
func (a *ObservationAdapter) CreateFamilyHistory(ctx context.Context, history *entities.FamilyHistory) error {
	query, args, err := a.db.Insert("family_history").Rows(goqu.Record{
		"id":           history.ID,
		"patient_id":   history.PatientID,
		"relationship": history.Relationship,
		"condition":    history.Condition,
		"onset_age":    nullInt(history.OnsetAge),
		"notes":        nullString(history.Notes),
		"created_at":   history.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create family history", err)
	}
	return nil
}

// ListFamilyHistory retrieves a patient's family history entries
func (a *ObservationAdapter) ListFamilyHistory(ctx context.Context, patientID uuid.UUID) ([]*entities.FamilyHistory, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, patient_id, relationship, condition, onset_age, notes, created_at
		FROM family_history
		WHERE patient_id = $1
		ORDER BY created_at`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list family history", err)
	}
	defer rows.Close()

	histories := []*entities.FamilyHistory{}
	for rows.Next() {
		history := &entities.FamilyHistory{}
		var onsetAge sql.NullInt64
		var notes sql.NullString
		if err := rows.Scan(&history.ID, &history.PatientID, &history.Relationship,
			&history.Condition, &onsetAge, &notes, &history.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan family history", err)
		}
		history.OnsetAge = intPtr(onsetAge)
		history.Notes = stringPtr(notes)
		histories = append(histories, history)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating family history", err)
	}
	return histories, nil
}
