package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// PatientRepository defines the interface for patient registry storage
type PatientRepository interface {
	// Create creates a new patient
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Patient, error)

	// GetByMRN retrieves a patient by medical record number
	GetByMRN(ctx context.Context, mrn string) (*entities.Patient, error)

	// Update updates patient demographics and vital status
	Update(ctx context.Context, patient *entities.Patient) error

	// Delete hard-deletes a patient and all dependent records. Reserved for
	// decommission and test contexts; normal operation only marks deceased.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves patients with limit/offset pagination
	List(ctx context.Context, limit, offset int) ([]*entities.Patient, error)

	// Search retrieves patients matching a demographic/clinical query
	Search(ctx context.Context, query PatientQuery) ([]*entities.Patient, error)

	// AddAddress inserts an address. When the address is primary, any
	// existing primary address of the same patient is demoted in the same
	// transaction (last writer wins).
	AddAddress(ctx context.Context, address *entities.PatientAddress) error

	// ListAddresses retrieves all addresses for a patient
	ListAddresses(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientAddress, error)

	// GetPrimaryAddress retrieves the patient's primary address, or a not
	// found error when none is marked primary
	GetPrimaryAddress(ctx context.Context, patientID uuid.UUID) (*entities.PatientAddress, error)

	// AddContactInfo inserts a contact point
	AddContactInfo(ctx context.Context, contact *entities.PatientContactInfo) error

	// ListContactInfo retrieves all contact points for a patient
	ListContactInfo(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientContactInfo, error)
}

// PatientQuery defines filters for patient search
type PatientQuery struct {
	AgeMin      *int
	AgeMax      *int
	Gender      string
	Ethnicity   string
	Race        string
	IsDeceased  *bool
	RiskFactors []string
	ICDCodes    []string
	Limit       int
	Offset      int
}
