package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// EncounterRepository defines storage for patient encounters
type EncounterRepository interface {
	Create(ctx context.Context, encounter *entities.Encounter) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Encounter, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Encounter, error)

	// Discharge sets the discharge date and the derived active flag in one
	// update
	Discharge(ctx context.Context, id uuid.UUID, dischargeDate time.Time, isActive bool) error
}

// DiagnosisRepository defines storage for diagnoses
type DiagnosisRepository interface {
	Create(ctx context.Context, diagnosis *entities.Diagnosis) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Diagnosis, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Diagnosis, error)

	// UpdateStatus applies a status transition guarded by the version the
	// caller read; a stale version surfaces as a concurrent modification
	// error
	UpdateStatus(ctx context.Context, id uuid.UUID, version int, status entities.DiagnosisStatus, resolvedDate *time.Time) error
}

// RiskFactorRepository defines storage for risk factors and social
// determinants
type RiskFactorRepository interface {
	Create(ctx context.Context, factor *entities.RiskFactor) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.RiskFactor, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.RiskFactor, error)

	// End sets the end date and the derived current flag in one update
	End(ctx context.Context, id uuid.UUID, endDate time.Time, isCurrent bool) error

	CreateSocialDeterminant(ctx context.Context, det *entities.SocialDeterminant) error
	ListSocialDeterminants(ctx context.Context, patientID uuid.UUID) ([]*entities.SocialDeterminant, error)
	ResolveSocialDeterminant(ctx context.Context, id uuid.UUID, resolutionDate time.Time, isCurrent bool) error
}

// MedicationRepository defines storage for medications and allergies
type MedicationRepository interface {
	Create(ctx context.Context, medication *entities.Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Medication, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Medication, error)
	End(ctx context.Context, id uuid.UUID, endDate time.Time, isActive bool) error

	CreateAllergy(ctx context.Context, allergy *entities.Allergy) error
	ListAllergies(ctx context.Context, patientID uuid.UUID) ([]*entities.Allergy, error)
}

// LabRepository defines storage for lab orders and results
type LabRepository interface {
	CreateOrder(ctx context.Context, order *entities.LabOrder) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*entities.LabOrder, error)
	ListOrdersByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.LabOrder, error)

	// UpdateOrderStatus applies a status transition guarded by the version
	// the caller read
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, version int, status entities.LabOrderStatus) error

	CreateResult(ctx context.Context, result *entities.LabResult) error
	ListResultsByOrder(ctx context.Context, orderID uuid.UUID) ([]*entities.LabResult, error)
}

// ObservationRepository defines storage for vitals, immunizations and
// family history
type ObservationRepository interface {
	CreateVitalSigns(ctx context.Context, vitals *entities.VitalSigns) error
	ListVitalSigns(ctx context.Context, patientID uuid.UUID) ([]*entities.VitalSigns, error)

	CreateImmunization(ctx context.Context, immunization *entities.Immunization) error
	ListImmunizations(ctx context.Context, patientID uuid.UUID) ([]*entities.Immunization, error)

	CreateFamilyHistory(ctx context.Context, history *entities.FamilyHistory) error
	ListFamilyHistory(ctx context.Context, patientID uuid.UUID) ([]*entities.FamilyHistory, error)
}
