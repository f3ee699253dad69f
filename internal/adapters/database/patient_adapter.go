package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/geo"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var patientColumns = []interface{}{
	"id", "mrn", "first_name", "middle_name", "last_name", "date_of_birth",
	"gender", "biological_sex", "blood_type", "ethnicity", "race",
	"preferred_language", "marital_status", "occupation",
	"is_deceased", "deceased_date", "created_at", "updated_at",
}

func patientRecord(patient *entities.Patient) goqu.Record {
	return goqu.Record{
		"id":                 patient.ID,
		"mrn":                patient.MRN,
		"first_name":         patient.FirstName,
		"middle_name":        nullString(patient.MiddleName),
		"last_name":          patient.LastName,
		"date_of_birth":      patient.DateOfBirth,
		"gender":             patient.Gender,
		"biological_sex":     patient.BiologicalSex,
		"blood_type":         nullString(patient.BloodType),
		"ethnicity":          nullString(patient.Ethnicity),
		"race":               nullString(patient.Race),
		"preferred_language": nullString(patient.PreferredLanguage),
		"marital_status":     nullString(patient.MaritalStatus),
		"occupation":         nullString(patient.Occupation),
		"is_deceased":        patient.IsDeceased,
		"deceased_date":      nullTime(patient.DeceasedDate),
		"created_at":         patient.CreatedAt,
		"updated_at":         patient.UpdatedAt,
	}
}

func scanPatient(row interface{ Scan(...interface{}) error }) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var middleName, bloodType, ethnicity, race, language, marital, occupation sql.NullString
	var deceasedDate sql.NullTime

	err := row.Scan(
		&patient.ID,
		&patient.MRN,
		&patient.FirstName,
		&middleName,
		&patient.LastName,
		&patient.DateOfBirth,
		&patient.Gender,
		&patient.BiologicalSex,
		&bloodType,
		&ethnicity,
		&race,
		&language,
		&marital,
		&occupation,
		&patient.IsDeceased,
		&deceasedDate,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	patient.MiddleName = stringPtr(middleName)
	patient.BloodType = stringPtr(bloodType)
	patient.Ethnicity = stringPtr(ethnicity)
	patient.Race = stringPtr(race)
	patient.PreferredLanguage = stringPtr(language)
	patient.MaritalStatus = stringPtr(marital)
	patient.Occupation = stringPtr(occupation)
	patient.DeceasedDate = timePtr(deceasedDate)
	return patient, nil
}

// Create creates a new patient
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	query, args, err := a.db.Insert("patients").Rows(patientRecord(patient)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("patient with mrn %s already exists", patient.MRN))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}
	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Patient, error) {
	return a.getByField(ctx, "id", id.String())
}

// GetByMRN retrieves a patient by medical record number
func (a *PatientAdapter) GetByMRN(ctx context.Context, mrn string) (*entities.Patient, error) {
	return a.getByField(ctx, "mrn", mrn)
}

func (a *PatientAdapter) getByField(ctx context.Context, field, value string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}
	return patient, nil
}

// Update updates patient demographics and vital status
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	record := patientRecord(patient)
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}
	return nil
}

// Delete hard-deletes a patient; dependent rows go with it via ON DELETE
// CASCADE
func (a *PatientAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := a.client.DB().ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	return nil
}

// List retrieves patients with limit/offset pagination
func (a *PatientAdapter) List(ctx context.Context, limit, offset int) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).
		From("patients").
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryPatients(ctx, query, args...)
}

// Search retrieves patients matching a demographic/clinical query. Age
// bounds are translated to date-of-birth cutoffs; risk factor and diagnosis
// filters use EXISTS subqueries against the ledger tables.
func (a *PatientAdapter) Search(ctx context.Context, q repositories.PatientQuery) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if q.AgeMin != nil {
		ds = ds.Where(goqu.I("date_of_birth").Lte(today.AddDate(-*q.AgeMin, 0, 0)))
	}
	if q.AgeMax != nil {
		ds = ds.Where(goqu.I("date_of_birth").Gt(today.AddDate(-*q.AgeMax-1, 0, 0)))
	}
	if q.Gender != "" {
		ds = ds.Where(goqu.Ex{"gender": q.Gender})
	}
	if q.Ethnicity != "" {
		ds = ds.Where(goqu.Ex{"ethnicity": q.Ethnicity})
	}
	if q.Race != "" {
		ds = ds.Where(goqu.Ex{"race": q.Race})
	}
	if q.IsDeceased != nil {
		ds = ds.Where(goqu.Ex{"is_deceased": *q.IsDeceased})
	}
	if len(q.RiskFactors) > 0 {
		ds = ds.Where(goqu.L(
			"EXISTS (SELECT 1 FROM risk_factors rf WHERE rf.patient_id = patients.id AND rf.is_current AND rf.factor_name = ANY(?))",
			pq.Array(q.RiskFactors),
		))
	}
	if len(q.ICDCodes) > 0 {
		ds = ds.Where(goqu.L(
			"EXISTS (SELECT 1 FROM diagnoses d JOIN icd_codes c ON c.id = d.icd_code_id WHERE d.patient_id = patients.id AND c.code = ANY(?))",
			pq.Array(q.ICDCodes),
		))
	}

	ds = ds.Order(goqu.I("last_name").Asc(), goqu.I("first_name").Asc())
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}
	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}
	return a.queryPatients(ctx, query, args...)
}

func (a *PatientAdapter) queryPatients(ctx context.Context, query string, args ...interface{}) ([]*entities.Patient, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query patients", err)
	}
	defer rows.Close()

	patients := []*entities.Patient{}
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patients", err)
	}
	return patients, nil
}

// AddAddress inserts an address. A primary insert demotes the previous
// primary inside one read-committed transaction; the partial unique index
// on (patient_id) WHERE is_primary backstops the race, surfacing the loss
// as a concurrent modification error.
func (a *PatientAdapter) AddAddress(ctx context.Context, address *entities.PatientAddress) error {
	var lat, lng sql.NullFloat64
	if address.Coordinate != nil {
		lat = sql.NullFloat64{Float64: address.Coordinate.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: address.Coordinate.Longitude, Valid: true}
	}

	err := a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if address.IsPrimary {
			_, err := tx.ExecContext(ctx,
				`UPDATE patient_addresses SET is_primary = false, updated_at = $2 WHERE patient_id = $1 AND is_primary`,
				address.PatientID, address.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to demote previous primary address: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO patient_addresses (
				id, patient_id, address_type, street, city, state, zip_code,
				country, latitude, longitude, is_primary, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			address.ID,
			address.PatientID,
			address.AddressType,
			address.Street,
			address.City,
			address.State,
			address.ZipCode,
			address.Country,
			lat,
			lng,
			address.IsPrimary,
			address.CreatedAt,
			address.UpdatedAt,
		)
		return err
	})

	if isUniqueViolation(err) {
		return apperrors.NewConcurrentModificationError("another primary address was set concurrently", err)
	}
	if err != nil {
		return apperrors.NewInternalError("failed to add patient address", err)
	}
	return nil
}

// ListAddresses retrieves all addresses for a patient
func (a *PatientAdapter) ListAddresses(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientAddress, error) {
	rows, err := a.client.DB().QueryContext(ctx, addressSelect+` WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patient addresses", err)
	}
	defer rows.Close()

	addresses := []*entities.PatientAddress{}
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient address", err)
		}
		addresses = append(addresses, address)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patient addresses", err)
	}
	return addresses, nil
}

// GetPrimaryAddress retrieves the patient's primary address
func (a *PatientAdapter) GetPrimaryAddress(ctx context.Context, patientID uuid.UUID) (*entities.PatientAddress, error) {
	row := a.client.DB().QueryRowContext(ctx, addressSelect+` WHERE patient_id = $1 AND is_primary`, patientID)
	address, err := scanAddress(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no primary address for patient %s", patientID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get primary address", err)
	}
	return address, nil
}

const addressSelect = `
	SELECT id, patient_id, address_type, street, city, state, zip_code,
	       country, latitude, longitude, is_primary, created_at, updated_at
	FROM patient_addresses`

func scanAddress(row interface{ Scan(...interface{}) error }) (*entities.PatientAddress, error) {
	address := &entities.PatientAddress{}
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&address.ID,
		&address.PatientID,
		&address.AddressType,
		&address.Street,
		&address.City,
		&address.State,
		&address.ZipCode,
		&address.Country,
		&lat,
		&lng,
		&address.IsPrimary,
		&address.CreatedAt,
		&address.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		address.Coordinate = &geo.Point{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	return address, nil
}

// AddContactInfo inserts a contact point
func (a *PatientAdapter) AddContactInfo(ctx context.Context, contact *entities.PatientContactInfo) error {
	query, args, err := a.db.Insert("patient_contact_info").Rows(goqu.Record{
		"id":           contact.ID,
		"patient_id":   contact.PatientID,
		"contact_type": contact.ContactType,
		"phone":        nullString(contact.Phone),
		"email":        nullString(contact.Email),
		"is_preferred": contact.IsPreferred,
		"created_at":   contact.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to add contact info", err)
	}
	return nil
}

// ListContactInfo retrieves all contact points for a patient
func (a *PatientAdapter) ListContactInfo(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientContactInfo, error) {
	rows, err := a.client.DB().QueryContext(ctx, `
		SELECT id, patient_id, contact_type, phone, email, is_preferred, created_at
		FROM patient_contact_info
		WHERE patient_id = $1
		ORDER BY created_at`, patientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list contact info", err)
	}
	defer rows.Close()

	contacts := []*entities.PatientContactInfo{}
	for rows.Next() {
		contact := &entities.PatientContactInfo{}
		var phone, email sql.NullString
		if err := rows.Scan(&contact.ID, &contact.PatientID, &contact.ContactType,
			&phone, &email, &contact.IsPreferred, &contact.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan contact info", err)
		}
		contact.Phone = stringPtr(phone)
		contact.Email = stringPtr(email)
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating contact info", err)
	}
	return contacts, nil
}
