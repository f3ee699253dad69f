package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

func cohortExists(id uuid.UUID) func(ctx context.Context, got uuid.UUID) (*entities.Cohort, error) {
	return func(_ context.Context, got uuid.UUID) (*entities.Cohort, error) {
		if got == id {
			return &entities.Cohort{ID: id, Name: "hypertension watch", Version: 1, IsActive: true}, nil
		}
		return nil, apperrors.NewNotFoundError("cohort not found")
	}
}

func TestCreateCohort(t *testing.T) {
	repo := &fakeCohortRepo{}
	svc := NewCohortService(repo, &fakePatientRepo{}, nil)

	err := svc.CreateCohort(context.Background(), &entities.Cohort{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	cohort := &entities.Cohort{Name: "smokers over 50", Criteria: "age >= 50 and current smoking risk factor"}
	require.NoError(t, svc.CreateCohort(context.Background(), cohort))
	assert.NotEqual(t, uuid.Nil, cohort.ID)
	assert.Equal(t, 1, cohort.Version)
	assert.True(t, cohort.IsActive)
}

func TestAddMember(t *testing.T) {
	cohortID := uuid.New()
	patientID := uuid.New()
	addedDate := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("inserts when no active membership", func(t *testing.T) {
		repo := &fakeCohortRepo{GetCohortFn: cohortExists(cohortID)}
		bus := newFakeEventBus()
		svc := NewCohortService(repo, &fakePatientRepo{GetByIDFn: patientExists(patientID)}, bus)

		membership, err := svc.AddMember(context.Background(), cohortID, patientID, "analyst-1", addedDate)
		require.NoError(t, err)
		require.Len(t, repo.inserted, 1)
		assert.True(t, membership.IsActive)
		assert.Equal(t, "analyst-1", membership.AddedBy)
		assert.Len(t, bus.published(providers.ChannelCohorts), 1)
	})

	t.Run("idempotent when already a member", func(t *testing.T) {
		existing := &entities.CohortMembership{
			ID: uuid.New(), CohortID: cohortID, PatientID: patientID,
			AddedBy: "analyst-1", AddedDate: addedDate, IsActive: true,
		}
		repo := &fakeCohortRepo{
			GetCohortFn: cohortExists(cohortID),
			GetActiveMembershipFn: func(ctx context.Context, c, p uuid.UUID) (*entities.CohortMembership, error) {
				return existing, nil
			},
		}
		svc := NewCohortService(repo, &fakePatientRepo{GetByIDFn: patientExists(patientID)}, nil)

		first, err := svc.AddMember(context.Background(), cohortID, patientID, "analyst-1", addedDate)
		require.NoError(t, err)
		second, err := svc.AddMember(context.Background(), cohortID, patientID, "analyst-1", addedDate)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Empty(t, repo.inserted)
	})

	t.Run("lost insert race lands on the winner's row", func(t *testing.T) {
		winner := &entities.CohortMembership{
			ID: uuid.New(), CohortID: cohortID, PatientID: patientID,
			AddedBy: "analyst-2", AddedDate: addedDate, IsActive: true,
		}
		raced := false
		repo := &fakeCohortRepo{
			GetCohortFn: cohortExists(cohortID),
			GetActiveMembershipFn: func(ctx context.Context, c, p uuid.UUID) (*entities.CohortMembership, error) {
				if raced {
					return winner, nil
				}
				return nil, apperrors.NewNotFoundError("membership not found")
			},
			InsertMembershipFn: func(ctx context.Context, m *entities.CohortMembership) error {
				raced = true
				return apperrors.NewConcurrentModificationError("active membership already exists", nil)
			},
		}
		svc := NewCohortService(repo, &fakePatientRepo{GetByIDFn: patientExists(patientID)}, nil)

		membership, err := svc.AddMember(context.Background(), cohortID, patientID, "analyst-1", addedDate)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, membership.ID)
	})

	t.Run("unknown cohort", func(t *testing.T) {
		svc := NewCohortService(&fakeCohortRepo{}, &fakePatientRepo{GetByIDFn: patientExists(patientID)}, nil)
		_, err := svc.AddMember(context.Background(), uuid.New(), patientID, "analyst-1", addedDate)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("unknown patient", func(t *testing.T) {
		svc := NewCohortService(&fakeCohortRepo{GetCohortFn: cohortExists(cohortID)}, &fakePatientRepo{}, nil)
		_, err := svc.AddMember(context.Background(), cohortID, uuid.New(), "analyst-1", addedDate)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestRemoveMember(t *testing.T) {
	cohortID := uuid.New()
	patientID := uuid.New()
	addedDate := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	membership := &entities.CohortMembership{
		ID: uuid.New(), CohortID: cohortID, PatientID: patientID,
		AddedBy: "analyst-1", AddedDate: addedDate, IsActive: true,
	}

	newSvc := func(deactivate func(ctx context.Context, id uuid.UUID, removedBy string, removedDate time.Time) error) (*CohortService, *fakeEventBus) {
		bus := newFakeEventBus()
		repo := &fakeCohortRepo{
			GetCohortFn: cohortExists(cohortID),
			GetActiveMembershipFn: func(ctx context.Context, c, p uuid.UUID) (*entities.CohortMembership, error) {
				if c == cohortID && p == patientID {
					return membership, nil
				}
				return nil, apperrors.NewNotFoundError("membership not found")
			},
			DeactivateMembershipFn: deactivate,
		}
		return NewCohortService(repo, &fakePatientRepo{GetByIDFn: patientExists(patientID)}, bus), bus
	}

	t.Run("removal before added date", func(t *testing.T) {
		svc, _ := newSvc(nil)
		err := svc.RemoveMember(context.Background(), cohortID, patientID, "analyst-1", addedDate.AddDate(0, -1, 0))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTemporalOrder))
	})

	t.Run("not a member", func(t *testing.T) {
		svc, _ := newSvc(nil)
		err := svc.RemoveMember(context.Background(), cohortID, uuid.New(), "analyst-1", addedDate)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("deactivates and publishes", func(t *testing.T) {
		var gotID uuid.UUID
		svc, bus := newSvc(func(ctx context.Context, id uuid.UUID, removedBy string, removedDate time.Time) error {
			gotID = id
			return nil
		})
		require.NoError(t, svc.RemoveMember(context.Background(), cohortID, patientID, "analyst-2", addedDate.AddDate(0, 1, 0)))
		assert.Equal(t, membership.ID, gotID)
		assert.Len(t, bus.published(providers.ChannelCohorts), 1)
	})
}
