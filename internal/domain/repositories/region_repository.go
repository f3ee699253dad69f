package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
)

// RegionRepository defines storage for the administrative region hierarchy.
// Acyclicity of the parent chain is the region index's responsibility; the
// repository persists what it is given.
type RegionRepository interface {
	// Create creates a region
	Create(ctx context.Context, region *entities.Region) error

	// GetByID retrieves a region by ID
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Region, error)

	// ListAll retrieves the entire hierarchy for index loading
	ListAll(ctx context.Context) ([]*entities.Region, error)

	// UpdateParent re-parents a region
	UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
}
