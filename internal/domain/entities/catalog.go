package entities

import "github.com/google/uuid"

// Reference catalogs are loaded by an external steward before first use and
// treated as immutable during normal operation.

// ICDCode is a standardized diagnosis classification entry.
type ICDCode struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description" db:"description"`
	ICDVersion  string    `json:"icd_version" db:"icd_version"`
	Category    *string   `json:"category,omitempty" db:"category"`
	IsBillable  bool      `json:"is_billable" db:"is_billable"`
}

// LabTest is a LOINC-coded laboratory test definition.
type LabTest struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LoincCode string    `json:"loinc_code" db:"loinc_code"`
	Name      string    `json:"name" db:"name"`
	Specimen  *string   `json:"specimen,omitempty" db:"specimen"`
	Units     *string   `json:"units,omitempty" db:"units"`
}

// Drug is an NDC-coded medication product.
type Drug struct {
	ID       uuid.UUID `json:"id" db:"id"`
	NDCCode  string    `json:"ndc_code" db:"ndc_code"`
	Name     string    `json:"name" db:"name"`
	Form     *string   `json:"form,omitempty" db:"form"`
	Strength *string   `json:"strength,omitempty" db:"strength"`
}

// Vaccine is a CVX-coded vaccine definition.
type Vaccine struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CVXCode     string    `json:"cvx_code" db:"cvx_code"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
}
