package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/providers"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
	"github.com/epiwatch/surveillance/pkg/retry"
)

// CohortService manages named patient groups and their membership history.
// Membership is explicit: nothing here evaluates cohort criteria, those are
// descriptive text for the humans curating the group.
type CohortService struct {
	cohorts  repositories.CohortRepository
	patients repositories.PatientRepository
	bus      providers.EventBus
	now      func() time.Time
}

// NewCohortService creates a new cohort service
func NewCohortService(cohorts repositories.CohortRepository, patients repositories.PatientRepository, bus providers.EventBus) *CohortService {
	return &CohortService{
		cohorts:  cohorts,
		patients: patients,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateCohort validates and creates a cohort
func (s *CohortService) CreateCohort(ctx context.Context, cohort *entities.Cohort) error {
	if cohort.Name == "" {
		return apperrors.NewValidationError("cohort name is required")
	}
	if cohort.ID == uuid.Nil {
		cohort.ID = uuid.New()
	}
	cohort.Version = 1
	cohort.IsActive = true
	now := s.now()
	cohort.CreatedAt = now
	cohort.UpdatedAt = now
	return s.cohorts.CreateCohort(ctx, cohort)
}

// GetCohort retrieves a cohort by ID
func (s *CohortService) GetCohort(ctx context.Context, id uuid.UUID) (*entities.Cohort, error) {
	return s.cohorts.GetCohort(ctx, id)
}

// ListCohorts retrieves cohorts with pagination
func (s *CohortService) ListCohorts(ctx context.Context, limit, offset int) ([]*entities.Cohort, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.cohorts.ListCohorts(ctx, limit, offset)
}

// AddMember adds a patient to a cohort. Idempotent: when an active
// membership already exists it is returned unchanged rather than
// duplicated. A concurrent duplicate insert loses to the partial unique
// index and is retried, which lands on the winner's row.
func (s *CohortService) AddMember(ctx context.Context, cohortID, patientID uuid.UUID, addedBy string, addedDate time.Time) (*entities.CohortMembership, error) {
	if addedBy == "" {
		return nil, apperrors.NewValidationError("added_by is required")
	}
	if _, err := s.cohorts.GetCohort(ctx, cohortID); err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	var membership *entities.CohortMembership
	err := retry.DoIf(ctx, retry.WriteConflictConfig(), apperrors.IsRetryable, func() error {
		existing, err := s.cohorts.GetActiveMembership(ctx, cohortID, patientID)
		if err == nil {
			membership = existing
			return nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}

		candidate := &entities.CohortMembership{
			ID:        uuid.New(),
			CohortID:  cohortID,
			PatientID: patientID,
			AddedBy:   addedBy,
			AddedDate: addedDate,
			IsActive:  true,
			CreatedAt: s.now(),
		}
		if err := s.cohorts.InsertMembership(ctx, candidate); err != nil {
			return err
		}
		membership = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMembership(ctx, "member_added", cohortID, patientID)
	return membership, nil
}

// RemoveMember soft-removes a patient's active membership, keeping the row
// for history
func (s *CohortService) RemoveMember(ctx context.Context, cohortID, patientID uuid.UUID, removedBy string, removedDate time.Time) error {
	if removedBy == "" {
		return apperrors.NewValidationError("removed_by is required")
	}
	membership, err := s.cohorts.GetActiveMembership(ctx, cohortID, patientID)
	if err != nil {
		return err
	}
	if removedDate.Before(membership.AddedDate) {
		return apperrors.NewTemporalOrderError("removal date cannot precede added date")
	}

	if err := s.cohorts.DeactivateMembership(ctx, membership.ID, removedBy, removedDate); err != nil {
		return err
	}
	s.publishMembership(ctx, "member_removed", cohortID, patientID)
	return nil
}

// ListMembers retrieves the full membership history of a cohort
func (s *CohortService) ListMembers(ctx context.Context, cohortID uuid.UUID) ([]*entities.CohortMembership, error) {
	if _, err := s.cohorts.GetCohort(ctx, cohortID); err != nil {
		return nil, err
	}
	return s.cohorts.ListMemberships(ctx, cohortID)
}

// ListActivePatientIDs retrieves the IDs of patients currently in a cohort
func (s *CohortService) ListActivePatientIDs(ctx context.Context, cohortID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.cohorts.GetCohort(ctx, cohortID); err != nil {
		return nil, err
	}
	return s.cohorts.ListActivePatientIDs(ctx, cohortID)
}

func (s *CohortService) publishMembership(ctx context.Context, action string, cohortID, patientID uuid.UUID) {
	if s.bus == nil {
		return
	}
	notice := &entities.LedgerNotice{
		ID:        uuid.New(),
		Kind:      "cohort_membership",
		Action:    action,
		PatientID: patientID,
		EventID:   cohortID,
		Timestamp: s.now(),
	}
	if err := s.bus.Publish(ctx, providers.ChannelCohorts, notice); err != nil {
		log.Warn().Err(err).Str("cohort_id", cohortID.String()).Msg("failed to publish cohort notice")
	}
}
