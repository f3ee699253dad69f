package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/geo"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// RegionIndexService resolves coordinates against the administrative region
// hierarchy. The hierarchy is reference data with rare, administrative
// writes, so the whole arena is held in memory behind a RWMutex and an
// exclusive lock guards the cycle check on writes.
type RegionIndexService struct {
	repo repositories.RegionRepository

	mu      sync.RWMutex
	regions map[uuid.UUID]*entities.Region
}

// NewRegionIndexService creates a new region index service
func NewRegionIndexService(repo repositories.RegionRepository) *RegionIndexService {
	return &RegionIndexService{
		repo:    repo,
		regions: make(map[uuid.UUID]*entities.Region),
	}
}

// Load populates the in-memory arena from storage
func (s *RegionIndexService) Load(ctx context.Context) error {
	regions, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = make(map[uuid.UUID]*entities.Region, len(regions))
	for _, r := range regions {
		s.regions[r.ID] = r
	}
	log.Info().Int("regions", len(regions)).Msg("region index loaded")
	return nil
}

// AddRegion validates and persists a region, then indexes it. Fails with a
// cycle error when parenting would make the ancestor chain loop, and a not
// found error when the parent does not exist.
func (s *RegionIndexService) AddRegion(ctx context.Context, region *entities.Region) error {
	if region.Name == "" {
		return apperrors.NewValidationError("region name is required")
	}
	if !region.RegionType.Valid() {
		return apperrors.NewValidationError("unknown region type: " + string(region.RegionType))
	}
	if region.ID == uuid.Nil {
		region.ID = uuid.New()
	}
	now := time.Now().UTC()
	region.CreatedAt = now
	region.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if region.ParentID != nil {
		if _, ok := s.regions[*region.ParentID]; !ok {
			return apperrors.NewNotFoundError("parent region not found")
		}
		if err := s.checkNoCycleLocked(region.ID, *region.ParentID); err != nil {
			return err
		}
	}

	if err := s.repo.Create(ctx, region); err != nil {
		return err
	}
	s.regions[region.ID] = region
	return nil
}

// ReparentRegion moves a region under a new parent (or to the root when
// parentID is nil), re-running the cycle check against the new ancestor
// chain.
func (s *RegionIndexService) ReparentRegion(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	region, ok := s.regions[id]
	if !ok {
		return apperrors.NewNotFoundError("region not found")
	}
	if parentID != nil {
		if _, ok := s.regions[*parentID]; !ok {
			return apperrors.NewNotFoundError("parent region not found")
		}
		if err := s.checkNoCycleLocked(id, *parentID); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateParent(ctx, id, parentID); err != nil {
		return err
	}
	region.ParentID = parentID
	region.UpdatedAt = time.Now().UTC()
	return nil
}

// checkNoCycleLocked walks the ancestor chain from parentID and fails if it
// reaches id. Callers hold the write lock.
func (s *RegionIndexService) checkNoCycleLocked(id, parentID uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{})
	for cur := &parentID; cur != nil; {
		if *cur == id {
			return apperrors.NewCycleError("region cannot be its own ancestor")
		}
		if _, dup := seen[*cur]; dup {
			// pre-existing loop in stored data; refuse to extend it
			return apperrors.NewCycleError("region hierarchy already contains a cycle")
		}
		seen[*cur] = struct{}{}
		parent, ok := s.regions[*cur]
		if !ok {
			break
		}
		cur = parent.ParentID
	}
	return nil
}

// Resolve returns every region containing the coordinate, ordered from most
// to least specific region type. Containment in a region implies
// containment in all its ancestors, so ancestors of a boundary match are
// included whether or not they carry their own geometry. An empty result is
// not an error.
func (s *RegionIndexService) Resolve(coordinate geo.Point) []*entities.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make(map[uuid.UUID]*entities.Region)
	for _, region := range s.regions {
		if !region.Contains(coordinate) {
			continue
		}
		matched[region.ID] = region
		for cur := region.ParentID; cur != nil; {
			ancestor, ok := s.regions[*cur]
			if !ok {
				break
			}
			if _, dup := matched[ancestor.ID]; dup {
				break
			}
			matched[ancestor.ID] = ancestor
			cur = ancestor.ParentID
		}
	}

	results := make([]*entities.Region, 0, len(matched))
	for _, region := range matched {
		results = append(results, region)
	}
	sort.Slice(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		if ri.RegionType.SpecificityRank() != rj.RegionType.SpecificityRank() {
			return ri.RegionType.SpecificityRank() < rj.RegionType.SpecificityRank()
		}
		if ri.Name != rj.Name {
			return ri.Name < rj.Name
		}
		return ri.ID.String() < rj.ID.String()
	})
	return results
}

// PrimaryRegion returns the most specific region containing the coordinate,
// or nil when nothing contains it.
func (s *RegionIndexService) PrimaryRegion(coordinate geo.Point) *entities.Region {
	resolved := s.Resolve(coordinate)
	if len(resolved) == 0 {
		return nil
	}
	return resolved[0]
}

// GetRegion retrieves a region from the arena
func (s *RegionIndexService) GetRegion(id uuid.UUID) (*entities.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	region, ok := s.regions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("region not found")
	}
	return region, nil
}

// ListRegions returns all indexed regions
func (s *RegionIndexService) ListRegions() []*entities.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*entities.Region, 0, len(s.regions))
	for _, region := range s.regions {
		results = append(results, region)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}
