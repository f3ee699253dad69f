package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// CohortRepository defines storage for cohorts and their membership history
type CohortRepository interface {
	// CreateCohort creates a cohort
	CreateCohort(ctx context.Context, cohort *entities.Cohort) error

	// GetCohort retrieves a cohort by ID
	GetCohort(ctx context.Context, id uuid.UUID) (*entities.Cohort, error)

	// ListCohorts retrieves cohorts
	ListCohorts(ctx context.Context, limit, offset int) ([]*entities.Cohort, error)

	// GetActiveMembership retrieves the single active membership for a
	// (cohort, patient) pair, or a not found error
	GetActiveMembership(ctx context.Context, cohortID, patientID uuid.UUID) (*entities.CohortMembership, error)

	// InsertMembership inserts an active membership row. The partial unique
	// index on (cohort_id, patient_id) where is_active rejects a concurrent
	// duplicate, surfaced as a concurrent modification error.
	InsertMembership(ctx context.Context, membership *entities.CohortMembership) error

	// DeactivateMembership soft-removes a membership, retaining history
	DeactivateMembership(ctx context.Context, id uuid.UUID, removedBy string, removedDate time.Time) error

	// ListMemberships retrieves the full membership history of a cohort
	ListMemberships(ctx context.Context, cohortID uuid.UUID) ([]*entities.CohortMembership, error)

	// ListActivePatientIDs retrieves the patient IDs currently active in a
	// cohort
	ListActivePatientIDs(ctx context.Context, cohortID uuid.UUID) ([]uuid.UUID, error)
}
