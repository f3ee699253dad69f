package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// ProviderRepository defines the interface for the provider directory
type ProviderRepository interface {
	// Create creates a new provider
	Create(ctx context.Context, provider *entities.Provider) error

	// GetByID retrieves a provider by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Provider, error)

	// GetByNPI retrieves a provider by national provider identifier
	GetByNPI(ctx context.Context, npi string) (*entities.Provider, error)

	// List retrieves providers
	List(ctx context.Context, limit, offset int) ([]*entities.Provider, error)

	// CreateDepartment creates a department
	CreateDepartment(ctx context.Context, department *entities.Department) error

	// GetDepartment retrieves a department by ID
	GetDepartment(ctx context.Context, id uuid.UUID) (*entities.Department, error)

	// AssignToDepartment records a dated provider/department assignment
	AssignToDepartment(ctx context.Context, assignment *entities.ProviderAssignment) error

	// ListAssignments retrieves a provider's assignment history
	ListAssignments(ctx context.Context, providerID uuid.UUID) ([]*entities.ProviderAssignment, error)
}
