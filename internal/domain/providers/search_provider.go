package providers

import (
	"context"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// PatientSearchIndex defines the interface for the analyst-facing patient
// search index. Indexing is best-effort; the relational store stays
// authoritative.
type PatientSearchIndex interface {
	// Index upserts a patient document
	Index(ctx context.Context, patient *entities.Patient) error

	// Delete removes a patient document
	Delete(ctx context.Context, id string) error

	// Search finds patients by free-text query over name and MRN with
	// optional demographic filters
	Search(ctx context.Context, params PatientSearchParams) ([]*entities.Patient, error)
}

// PatientSearchParams defines parameters for index-backed patient search
type PatientSearchParams struct {
	Query      string
	Gender     string
	IsDeceased *bool
	Limit      int
	Offset     int
}
