package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// DirectoryService manages providers, departments and their dated
// assignments. Directory entries exist independently of any patient.
type DirectoryService struct {
	repo repositories.ProviderRepository
	now  func() time.Time
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(repo repositories.ProviderRepository) *DirectoryService {
	return &DirectoryService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RegisterProvider validates and creates a provider
func (s *DirectoryService) RegisterProvider(ctx context.Context, provider *entities.Provider) error {
	if provider.NPI == "" {
		return apperrors.NewValidationError("npi is required")
	}
	if provider.FirstName == "" || provider.LastName == "" {
		return apperrors.NewValidationError("first and last name are required")
	}
	if provider.ID == uuid.Nil {
		provider.ID = uuid.New()
	}
	provider.IsActive = true
	now := s.now()
	provider.CreatedAt = now
	provider.UpdatedAt = now
	return s.repo.Create(ctx, provider)
}

// GetProvider retrieves a provider by ID
func (s *DirectoryService) GetProvider(ctx context.Context, id uuid.UUID) (*entities.Provider, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProviderByNPI retrieves a provider by national provider identifier
func (s *DirectoryService) GetProviderByNPI(ctx context.Context, npi string) (*entities.Provider, error) {
	return s.repo.GetByNPI(ctx, npi)
}

// ListProviders retrieves providers with pagination
func (s *DirectoryService) ListProviders(ctx context.Context, limit, offset int) ([]*entities.Provider, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

// CreateDepartment validates and creates a department
func (s *DirectoryService) CreateDepartment(ctx context.Context, department *entities.Department) error {
	if department.Name == "" {
		return apperrors.NewValidationError("department name is required")
	}
	if department.ID == uuid.Nil {
		department.ID = uuid.New()
	}
	department.CreatedAt = s.now()
	return s.repo.CreateDepartment(ctx, department)
}

// GetDepartment retrieves a department by ID
func (s *DirectoryService) GetDepartment(ctx context.Context, id uuid.UUID) (*entities.Department, error) {
	return s.repo.GetDepartment(ctx, id)
}

// AssignProvider records a dated provider/department assignment
func (s *DirectoryService) AssignProvider(ctx context.Context, assignment *entities.ProviderAssignment) error {
	if _, err := s.repo.GetByID(ctx, assignment.ProviderID); err != nil {
		return err
	}
	if _, err := s.repo.GetDepartment(ctx, assignment.DepartmentID); err != nil {
		return err
	}
	if assignment.EndDate != nil && assignment.EndDate.Before(assignment.StartDate) {
		return apperrors.NewTemporalOrderError("assignment end date cannot precede start date")
	}
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	return s.repo.AssignToDepartment(ctx, assignment)
}

// ListAssignments retrieves a provider's assignment history
func (s *DirectoryService) ListAssignments(ctx context.Context, providerID uuid.UUID) ([]*entities.ProviderAssignment, error) {
	if _, err := s.repo.GetByID(ctx, providerID); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, providerID)
}
