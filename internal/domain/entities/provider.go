package entities

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a clinician in the directory, independent of any patient.
type Provider struct {
	ID        uuid.UUID `json:"id" db:"id"`
	NPI       string    `json:"npi" db:"npi"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Specialty *string   `json:"specialty,omitempty" db:"specialty"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Department is an organizational unit providers are assigned to.
type Department struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  *string   `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProviderAssignment is a dated interval linking a provider to a department.
// StartDate must not be after EndDate when EndDate is set.
type ProviderAssignment struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ProviderID   uuid.UUID  `json:"provider_id" db:"provider_id"`
	DepartmentID uuid.UUID  `json:"department_id" db:"department_id"`
	Role         *string    `json:"role,omitempty" db:"role"`
	StartDate    time.Time  `json:"start_date" db:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty" db:"end_date"`
}
