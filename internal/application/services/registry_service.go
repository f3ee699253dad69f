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
)

// RegistryService handles patient intake, demographics and addresses
type RegistryService struct {
	repo        repositories.PatientRepository
	searchIndex providers.PatientSearchIndex
	now         func() time.Time
}

// NewRegistryService creates a new registry service. The search index may
// be nil; indexing is best-effort and never fails a write.
func NewRegistryService(repo repositories.PatientRepository, searchIndex providers.PatientSearchIndex) *RegistryService {
	return &RegistryService{
		repo:        repo,
		searchIndex: searchIndex,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterPatient validates demographics and creates the patient
func (s *RegistryService) RegisterPatient(ctx context.Context, patient *entities.Patient) error {
	if err := s.validateDemographics(patient); err != nil {
		return err
	}

	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	now := s.now()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	if err := s.repo.Create(ctx, patient); err != nil {
		return err
	}

	s.indexPatient(ctx, patient)
	return nil
}

// UpdatePatient validates and applies a demographics update
func (s *RegistryService) UpdatePatient(ctx context.Context, patient *entities.Patient) error {
	if err := s.validateDemographics(patient); err != nil {
		return err
	}
	patient.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return err
	}

	s.indexPatient(ctx, patient)
	return nil
}

func (s *RegistryService) validateDemographics(patient *entities.Patient) error {
	if patient.MRN == "" {
		return apperrors.NewValidationError("mrn is required")
	}
	if patient.FirstName == "" || patient.LastName == "" {
		return apperrors.NewValidationError("first and last name are required")
	}
	if patient.DateOfBirth.After(s.now()) {
		return apperrors.NewValidationError("date of birth cannot be in the future")
	}
	if patient.DeceasedDate != nil {
		if patient.DeceasedDate.Before(patient.DateOfBirth) {
			return apperrors.NewTemporalOrderError("deceased date cannot precede date of birth")
		}
		patient.IsDeceased = true
	}
	return nil
}

// GetPatient retrieves a patient by ID
func (s *RegistryService) GetPatient(ctx context.Context, id uuid.UUID) (*entities.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPatientByMRN retrieves a patient by medical record number
func (s *RegistryService) GetPatientByMRN(ctx context.Context, mrn string) (*entities.Patient, error) {
	return s.repo.GetByMRN(ctx, mrn)
}

// ListPatients retrieves patients with pagination
func (s *RegistryService) ListPatients(ctx context.Context, limit, offset int) ([]*entities.Patient, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

// SearchPatients runs a structured demographic/clinical search against the
// relational store
func (s *RegistryService) SearchPatients(ctx context.Context, query repositories.PatientQuery) ([]*entities.Patient, error) {
	if query.AgeMin != nil && query.AgeMax != nil && *query.AgeMin > *query.AgeMax {
		return nil, apperrors.NewValidationError("age_min cannot exceed age_max")
	}
	if query.Limit <= 0 || query.Limit > 200 {
		query.Limit = 50
	}
	return s.repo.Search(ctx, query)
}

// QuickSearch runs a free-text search against the patient index, falling
// back to a plain list when no index is configured
func (s *RegistryService) QuickSearch(ctx context.Context, params providers.PatientSearchParams) ([]*entities.Patient, error) {
	if s.searchIndex == nil {
		return s.repo.List(ctx, params.Limit, params.Offset)
	}
	return s.searchIndex.Search(ctx, params)
}

// MarkDeceased records a patient's death
func (s *RegistryService) MarkDeceased(ctx context.Context, id uuid.UUID, date time.Time) error {
	patient, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if date.Before(patient.DateOfBirth) {
		return apperrors.NewTemporalOrderError("deceased date cannot precede date of birth")
	}

	patient.IsDeceased = true
	patient.DeceasedDate = &date
	patient.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, patient); err != nil {
		return err
	}

	s.indexPatient(ctx, patient)
	return nil
}

// AddAddress validates and stores a patient address. When marked primary
// the repository demotes the previous primary in the same transaction; a
// lost race surfaces as a concurrent modification error for the caller to
// retry.
func (s *RegistryService) AddAddress(ctx context.Context, address *entities.PatientAddress) error {
	if _, err := s.repo.GetByID(ctx, address.PatientID); err != nil {
		return err
	}
	switch address.AddressType {
	case entities.AddressTypeHome, entities.AddressTypeWork, entities.AddressTypeMailing, entities.AddressTypeTemp:
	default:
		return apperrors.NewValidationError("unknown address type: " + string(address.AddressType))
	}
	if address.Coordinate != nil {
		c := address.Coordinate
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return apperrors.NewValidationError("coordinate out of range")
		}
	}

	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	now := s.now()
	address.CreatedAt = now
	address.UpdatedAt = now

	return s.repo.AddAddress(ctx, address)
}

// ListAddresses retrieves a patient's addresses
func (s *RegistryService) ListAddresses(ctx context.Context, patientID uuid.UUID) ([]*entities.PatientAddress, error) {
	return s.repo.ListAddresses(ctx, patientID)
}

// AddContactInfo stores a contact point for a patient
func (s *RegistryService) AddContactInfo(ctx context.Context, contact *entities.PatientContactInfo) error {
	if _, err := s.repo.GetByID(ctx, contact.PatientID); err != nil {
		return err
	}
	if contact.Phone == nil && contact.Email == nil {
		return apperrors.NewValidationError("contact info requires a phone or email")
	}
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	contact.CreatedAt = s.now()
	return s.repo.AddContactInfo(ctx, contact)
}

// DeletePatient hard-deletes a patient and everything owned by it.
// Decommission/test use only; normal operation marks deceased instead.
func (s *RegistryService) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.searchIndex != nil {
		if err := s.searchIndex.Delete(ctx, id.String()); err != nil {
			log.Warn().Err(err).Str("patient_id", id.String()).Msg("failed to remove patient from search index")
		}
	}
	return nil
}

func (s *RegistryService) indexPatient(ctx context.Context, patient *entities.Patient) {
	if s.searchIndex == nil {
		return
	}
	if err := s.searchIndex.Index(ctx, patient); err != nil {
		log.Warn().Err(err).Str("patient_id", patient.ID.String()).Msg("failed to index patient")
	}
}
