package entities

import (
	"time"

	"github.com/google/uuid"
)

// Encounter is a patient visit. Most other clinical events optionally hang
// off an encounter.
type Encounter struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	PatientID      uuid.UUID  `json:"patient_id" db:"patient_id"`
	ProviderID     *uuid.UUID `json:"provider_id,omitempty" db:"provider_id"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	EncounterClass string     `json:"encounter_class" db:"encounter_class"`
	Reason         *string    `json:"reason,omitempty" db:"reason"`
	AdmissionDate  time.Time  `json:"admission_date" db:"admission_date"`
	DischargeDate  *time.Time `json:"discharge_date,omitempty" db:"discharge_date"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	Notes          *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// VitalSigns is a point-in-time vitals measurement taken during care.
type VitalSigns struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	PatientID        uuid.UUID  `json:"patient_id" db:"patient_id"`
	EncounterID      *uuid.UUID `json:"encounter_id,omitempty" db:"encounter_id"`
	MeasuredAt       time.Time  `json:"measured_at" db:"measured_at"`
	HeightCm         *float64   `json:"height_cm,omitempty" db:"height_cm"`
	WeightKg         *float64   `json:"weight_kg,omitempty" db:"weight_kg"`
	TemperatureC     *float64   `json:"temperature_c,omitempty" db:"temperature_c"`
	HeartRate        *int       `json:"heart_rate,omitempty" db:"heart_rate"`
	RespiratoryRate  *int       `json:"respiratory_rate,omitempty" db:"respiratory_rate"`
	SystolicBP       *int       `json:"systolic_bp,omitempty" db:"systolic_bp"`
	DiastolicBP      *int       `json:"diastolic_bp,omitempty" db:"diastolic_bp"`
	OxygenSaturation *float64   `json:"oxygen_saturation,omitempty" db:"oxygen_saturation"`
}
