package entities

import (
	"time"

	"github.com/google/uuid"
)

// Medication is a prescription interval for a catalog drug. IsActive is
// derived by the ledger from EndDate.
type Medication struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	PatientID   uuid.UUID  `json:"patient_id" db:"patient_id"`
	EncounterID *uuid.UUID `json:"encounter_id,omitempty" db:"encounter_id"`
	ProviderID  *uuid.UUID `json:"provider_id,omitempty" db:"provider_id"`
	DrugID      uuid.UUID  `json:"drug_id" db:"drug_id"`
	Dosage      *string    `json:"dosage,omitempty" db:"dosage"`
	Frequency   *string    `json:"frequency,omitempty" db:"frequency"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Allergy records a patient allergy with onset/resolution interval.
type Allergy struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	PatientID    uuid.UUID  `json:"patient_id" db:"patient_id"`
	Allergen     string     `json:"allergen" db:"allergen"`
	AllergyType  string     `json:"allergy_type" db:"allergy_type"`
	Reaction     *string    `json:"reaction,omitempty" db:"reaction"`
	Severity     *string    `json:"severity,omitempty" db:"severity"`
	OnsetDate    *time.Time `json:"onset_date,omitempty" db:"onset_date"`
	ResolvedDate *time.Time `json:"resolved_date,omitempty" db:"resolved_date"`
	IsCurrent    bool       `json:"is_current" db:"is_current"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Immunization records administration of a catalog vaccine.
type Immunization struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	PatientID    uuid.UUID  `json:"patient_id" db:"patient_id"`
	EncounterID  *uuid.UUID `json:"encounter_id,omitempty" db:"encounter_id"`
	ProviderID   *uuid.UUID `json:"provider_id,omitempty" db:"provider_id"`
	VaccineID    uuid.UUID  `json:"vaccine_id" db:"vaccine_id"`
	AdministeredAt time.Time `json:"administered_at" db:"administered_at"`
	DoseNumber   *int       `json:"dose_number,omitempty" db:"dose_number"`
	LotNumber    *string    `json:"lot_number,omitempty" db:"lot_number"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// FamilyHistory records a condition in a patient's family line.
type FamilyHistory struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	Relationship string    `json:"relationship" db:"relationship"`
	Condition    string    `json:"condition" db:"condition"`
	OnsetAge     *int      `json:"onset_age,omitempty" db:"onset_age"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
