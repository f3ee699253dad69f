package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/geo"
)

// Patient is the canonical identity record every clinical event references.
// Patients are never hard-deleted in normal operation; death is recorded by
// flipping IsDeceased and setting DeceasedDate.
type Patient struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	MRN               string     `json:"mrn" db:"mrn"`
	FirstName         string     `json:"first_name" db:"first_name"`
	MiddleName        *string    `json:"middle_name,omitempty" db:"middle_name"`
	LastName          string     `json:"last_name" db:"last_name"`
	DateOfBirth       time.Time  `json:"date_of_birth" db:"date_of_birth"`
	Gender            string     `json:"gender" db:"gender"`
	BiologicalSex     string     `json:"biological_sex" db:"biological_sex"`
	BloodType         *string    `json:"blood_type,omitempty" db:"blood_type"`
	Ethnicity         *string    `json:"ethnicity,omitempty" db:"ethnicity"`
	Race              *string    `json:"race,omitempty" db:"race"`
	PreferredLanguage *string    `json:"preferred_language,omitempty" db:"preferred_language"`
	MaritalStatus     *string    `json:"marital_status,omitempty" db:"marital_status"`
	Occupation        *string    `json:"occupation,omitempty" db:"occupation"`
	IsDeceased        bool       `json:"is_deceased" db:"is_deceased"`
	DeceasedDate      *time.Time `json:"deceased_date,omitempty" db:"deceased_date"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// AgeAt returns the patient's age in whole years at the given date.
func (p *Patient) AgeAt(at time.Time) int {
	years := at.Year() - p.DateOfBirth.Year()
	anniversary := p.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// AddressType distinguishes the use of a patient address.
type AddressType string

const (
	AddressTypeHome    AddressType = "home"
	AddressTypeWork    AddressType = "work"
	AddressTypeMailing AddressType = "mailing"
	AddressTypeTemp    AddressType = "temp"
)

// PatientAddress is one of a patient's addresses. At most one address per
// patient carries IsPrimary; the registry demotes the previous primary when
// a new one arrives.
type PatientAddress struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	PatientID   uuid.UUID   `json:"patient_id" db:"patient_id"`
	AddressType AddressType `json:"address_type" db:"address_type"`
	Street      string      `json:"street" db:"street"`
	City        string      `json:"city" db:"city"`
	State       string      `json:"state" db:"state"`
	ZipCode     string      `json:"zip_code" db:"zip_code"`
	Country     string      `json:"country" db:"country"`
	Coordinate  *geo.Point  `json:"coordinate,omitempty" db:"-"`
	IsPrimary   bool        `json:"is_primary" db:"is_primary"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// PatientContactInfo is a phone/email contact point for a patient.
type PatientContactInfo struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PatientID   uuid.UUID `json:"patient_id" db:"patient_id"`
	ContactType string    `json:"contact_type" db:"contact_type"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Email       *string   `json:"email,omitempty" db:"email"`
	IsPreferred bool      `json:"is_preferred" db:"is_preferred"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
