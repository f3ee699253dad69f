package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

func TestCohortAdapterInsertMembership(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewCohortAdapter(client)

	membership := &entities.CohortMembership{
		ID:        uuid.New(),
		CohortID:  uuid.New(),
		PatientID: uuid.New(),
		AddedBy:   "analyst@example.org",
		AddedDate: time.Now().UTC(),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "cohort_memberships"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, adapter.InsertMembership(context.Background(), membership))
	})

	t.Run("duplicate active membership maps to concurrent modification", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "cohort_memberships"`).
			WillReturnError(&pq.Error{Code: pqUniqueViolation})

		err := adapter.InsertMembership(context.Background(), membership)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConcurrentModification))
		assert.True(t, apperrors.IsRetryable(err))
	})
}

func TestCohortAdapterGetActiveMembership(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewCohortAdapter(client)

	cohortID := uuid.New()
	patientID := uuid.New()
	now := time.Now().UTC()

	membershipColumns := []string{
		"id", "cohort_id", "patient_id", "added_by", "added_date",
		"removed_by", "removed_date", "is_active", "created_at",
	}

	t.Run("found", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery(`FROM cohort_memberships WHERE cohort_id = \$1 AND patient_id = \$2 AND is_active`).
			WithArgs(cohortID, patientID).
			WillReturnRows(sqlmock.NewRows(membershipColumns).AddRow(
				id.String(), cohortID.String(), patientID.String(), "analyst@example.org", now,
				nil, nil, true, now,
			))

		membership, err := adapter.GetActiveMembership(context.Background(), cohortID, patientID)
		require.NoError(t, err)
		assert.Equal(t, id, membership.ID)
		assert.Nil(t, membership.RemovedBy)
		assert.True(t, membership.IsActive)
	})

	t.Run("missing maps to not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM cohort_memberships WHERE cohort_id = \$1 AND patient_id = \$2 AND is_active`).
			WithArgs(cohortID, patientID).
			WillReturnRows(sqlmock.NewRows(membershipColumns))

		_, err := adapter.GetActiveMembership(context.Background(), cohortID, patientID)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestCohortAdapterDeactivateMembership(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewCohortAdapter(client)

	id := uuid.New()
	removedDate := time.Now().UTC()

	t.Run("deactivates the active row", func(t *testing.T) {
		mock.ExpectExec(`UPDATE cohort_memberships\s+SET is_active = false`).
			WithArgs(id, "analyst@example.org", removedDate).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.DeactivateMembership(context.Background(), id, "analyst@example.org", removedDate)
		require.NoError(t, err)
	})

	t.Run("already removed maps to not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE cohort_memberships\s+SET is_active = false`).
			WithArgs(id, "analyst@example.org", removedDate).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.DeactivateMembership(context.Background(), id, "analyst@example.org", removedDate)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestCohortAdapterListActivePatientIDs(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewCohortAdapter(client)

	cohortID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	mock.ExpectQuery(`SELECT patient_id FROM cohort_memberships WHERE cohort_id = \$1 AND is_active`).
		WithArgs(cohortID).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id"}).
			AddRow(first.String()).AddRow(second.String()))

	ids, err := adapter.ListActivePatientIDs(context.Background(), cohortID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
}
