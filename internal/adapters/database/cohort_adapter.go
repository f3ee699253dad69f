package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// CohortAdapter implements the CohortRepository interface. The partial
// unique index uq_cohort_active_member on (cohort_id, patient_id) WHERE
// is_active enforces at most one active membership per pair; a concurrent
// duplicate insert surfaces as a concurrent modification error.
type CohortAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCohortAdapter creates a new cohort adapter
func NewCohortAdapter(client *postgres.Client) repositories.CohortRepository {
	return &CohortAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateCohort creates a cohort
func (a *CohortAdapter) CreateCohort(ctx context.Context, cohort *entities.Cohort) error {
	query, args, err := a.db.Insert("cohorts").Rows(goqu.Record{
		"id":          cohort.ID,
		"name":        cohort.Name,
		"description": cohort.Description,
		"criteria":    cohort.Criteria,
		"version":     cohort.Version,
		"is_active":   cohort.IsActive,
		"created_at":  cohort.CreatedAt,
		"updated_at":  cohort.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("cohort named %q already exists", cohort.Name))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to create cohort", err)
	}
	return nil
}

// GetCohort retrieves a cohort by ID
func (a *CohortAdapter) GetCohort(ctx context.Context, id uuid.UUID) (*entities.Cohort, error) {
	cohort := &entities.Cohort{}
	err := a.client.DB().QueryRowContext(ctx, `
		SELECT id, name, description, criteria, version, is_active, created_at, updated_at
		FROM cohorts WHERE id = $1`, id,
	).Scan(&cohort.ID, &cohort.Name, &cohort.Description, &cohort.Criteria,
		&cohort.Version, &cohort.IsActive, &cohort.CreatedAt, &cohort.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cohort with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get cohort", err)
	}
	return cohort, nil
}

// ListCohorts retrieves cohorts
func (a *CohortAdapter) ListCohorts(ctx context.Context, limit, offset int) ([]*entities.Cohort, error) {
	ds := a.db.Select(
		"id", "name", "description", "criteria", "version", "is_active", "created_at", "updated_at",
	).From("cohorts").Order(goqu.I("created_at").Desc())
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

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list cohorts", err)
	}
	defer rows.Close()

	cohorts := []*entities.Cohort{}
	for rows.Next() {
		cohort := &entities.Cohort{}
		if err := rows.Scan(&cohort.ID, &cohort.Name, &cohort.Description, &cohort.Criteria,
			&cohort.Version, &cohort.IsActive, &cohort.CreatedAt, &cohort.UpdatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan cohort", err)
		}
		cohorts = append(cohorts, cohort)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating cohorts", err)
	}
	return cohorts, nil
}

const membershipSelect = `
	SELECT id, cohort_id, patient_id, added_by, added_date, removed_by,
	       removed_date, is_active, created_at
	FROM cohort_memberships`

func scanMembership(row interface{ Scan(...interface{}) error }) (*entities.CohortMembership, error) {
	membership := &entities.CohortMembership{}
	var removedBy sql.NullString
	var removedDate sql.NullTime

	err := row.Scan(
		&membership.ID,
		&membership.CohortID,
		&membership.PatientID,
		&membership.AddedBy,
		&membership.AddedDate,
		&removedBy,
		&removedDate,
		&membership.IsActive,
		&membership.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	membership.RemovedBy = stringPtr(removedBy)
	membership.RemovedDate = timePtr(removedDate)
	return membership, nil
}

// GetActiveMembership retrieves the single active membership for a
// (cohort, patient) pair
func (a *CohortAdapter) GetActiveMembership(ctx context.Context, cohortID, patientID uuid.UUID) (*entities.CohortMembership, error) {
	row := a.client.DB().QueryRowContext(ctx,
		membershipSelect+` WHERE cohort_id = $1 AND patient_id = $2 AND is_active`,
		cohortID, patientID)
	membership, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("patient %s is not an active member of cohort %s", patientID, cohortID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get cohort membership", err)
	}
	return membership, nil
}

// InsertMembership inserts an active membership row
func (a *CohortAdapter) InsertMembership(ctx context.Context, membership *entities.CohortMembership) error {
	query, args, err := a.db.Insert("cohort_memberships").Rows(goqu.Record{
		"id":           membership.ID,
		"cohort_id":    membership.CohortID,
		"patient_id":   membership.PatientID,
		"added_by":     membership.AddedBy,
		"added_date":   membership.AddedDate,
		"removed_by":   nullString(membership.RemovedBy),
		"removed_date": nullTime(membership.RemovedDate),
		"is_active":    membership.IsActive,
		"created_at":   membership.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return apperrors.NewConcurrentModificationError(
			"an active membership for this patient was created concurrently", err)
	}
	if err != nil {
		return apperrors.NewInternalError("failed to insert cohort membership", err)
	}
	return nil
}

// DeactivateMembership soft-removes a membership, retaining history
func (a *CohortAdapter) DeactivateMembership(ctx context.Context, id uuid.UUID, removedBy string, removedDate time.Time) error {
	result, err := a.client.DB().ExecContext(ctx, `
		UPDATE cohort_memberships
		SET is_active = false, removed_by = $2, removed_date = $3
		WHERE id = $1 AND is_active`,
		id, removedBy, removedDate)
	if err != nil {
		return apperrors.NewInternalError("failed to deactivate cohort membership", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("active membership %s not found", id))
	}
	return nil
}

// ListMemberships retrieves the full membership history of a cohort
func (a *CohortAdapter) ListMemberships(ctx context.Context, cohortID uuid.UUID) ([]*entities.CohortMembership, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		membershipSelect+` WHERE cohort_id = $1 ORDER BY added_date, created_at`, cohortID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list cohort memberships", err)
	}
	defer rows.Close()

	memberships := []*entities.CohortMembership{}
	for rows.Next() {
		membership, err := scanMembership(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan cohort membership", err)
		}
		memberships = append(memberships, membership)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating cohort memberships", err)
	}
	return memberships, nil
}

// ListActivePatientIDs retrieves the patient IDs currently active in a
// cohort
func (a *CohortAdapter) ListActivePatientIDs(ctx context.Context, cohortID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		`SELECT patient_id FROM cohort_memberships WHERE cohort_id = $1 AND is_active`, cohortID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list active cohort members", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating active cohort members", err)
	}
	return ids, nil
}
