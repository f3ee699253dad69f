package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/geo"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

func squareBoundary(minLat, minLng, maxLat, maxLng float64) *geo.Polygon {
	return &geo.Polygon{Vertices: []geo.Point{
		{Latitude: minLat, Longitude: minLng},
		{Latitude: minLat, Longitude: maxLng},
		{Latitude: maxLat, Longitude: maxLng},
		{Latitude: maxLat, Longitude: minLng},
	}}
}

func TestAddRegion(t *testing.T) {
	svc := NewRegionIndexService(&fakeRegionRepo{})

	t.Run("requires name and known type", func(t *testing.T) {
		err := svc.AddRegion(context.Background(), &entities.Region{RegionType: entities.RegionTypeCity})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

		err = svc.AddRegion(context.Background(), &entities.Region{Name: "Atlantis", RegionType: "kingdom"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("unknown parent", func(t *testing.T) {
		parent := uuid.New()
		err := svc.AddRegion(context.Background(), &entities.Region{
			Name:       "Orphan City",
			RegionType: entities.RegionTypeCity,
			ParentID:   &parent,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("valid chain", func(t *testing.T) {
		state := &entities.Region{ID: uuid.New(), Name: "State X", RegionType: entities.RegionTypeState}
		require.NoError(t, svc.AddRegion(context.Background(), state))

		city := &entities.Region{
			ID: uuid.New(), Name: "City A", RegionType: entities.RegionTypeCity,
			ParentID: &state.ID, Boundary: squareBoundary(0, 0, 1, 1),
		}
		require.NoError(t, svc.AddRegion(context.Background(), city))

		got, err := svc.GetRegion(city.ID)
		require.NoError(t, err)
		assert.Equal(t, state.ID, *got.ParentID)
	})
}

func TestReparentRegionCycle(t *testing.T) {
	svc := NewRegionIndexService(&fakeRegionRepo{})
	ctx := context.Background()

	a := &entities.Region{ID: uuid.New(), Name: "A", RegionType: entities.RegionTypeState}
	require.NoError(t, svc.AddRegion(ctx, a))
	b := &entities.Region{ID: uuid.New(), Name: "B", RegionType: entities.RegionTypeCounty, ParentID: &a.ID}
	require.NoError(t, svc.AddRegion(ctx, b))
	c := &entities.Region{ID: uuid.New(), Name: "C", RegionType: entities.RegionTypeCity, ParentID: &b.ID}
	require.NoError(t, svc.AddRegion(ctx, c))

	t.Run("self parent", func(t *testing.T) {
		err := svc.ReparentRegion(ctx, a.ID, &a.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCycle))
	})

	t.Run("ancestor under descendant", func(t *testing.T) {
		err := svc.ReparentRegion(ctx, a.ID, &c.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCycle))
	})

	t.Run("move to root", func(t *testing.T) {
		require.NoError(t, svc.ReparentRegion(ctx, c.ID, nil))
		got, err := svc.GetRegion(c.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ParentID)
	})

	t.Run("unknown region", func(t *testing.T) {
		err := svc.ReparentRegion(ctx, uuid.New(), &a.ID)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestResolve(t *testing.T) {
	svc := NewRegionIndexService(&fakeRegionRepo{})
	ctx := context.Background()

	// State X carries no geometry of its own; containment flows up from
	// City A.
	state := &entities.Region{ID: uuid.New(), Name: "State X", RegionType: entities.RegionTypeState}
	require.NoError(t, svc.AddRegion(ctx, state))

	city := &entities.Region{
		ID: uuid.New(), Name: "City A", RegionType: entities.RegionTypeCity,
		ParentID: &state.ID, Boundary: squareBoundary(6.0, 3.0, 7.0, 4.0),
	}
	require.NoError(t, svc.AddRegion(ctx, city))

	zip := &entities.Region{
		ID: uuid.New(), Name: "100001", RegionType: entities.RegionTypeZip,
		ParentID: &city.ID, Boundary: squareBoundary(6.4, 3.3, 6.6, 3.5),
	}
	require.NoError(t, svc.AddRegion(ctx, zip))

	t.Run("most specific first, ancestors included", func(t *testing.T) {
		resolved := svc.Resolve(geo.Point{Latitude: 6.5, Longitude: 3.4})
		require.Len(t, resolved, 3)
		assert.Equal(t, zip.ID, resolved[0].ID)
		assert.Equal(t, city.ID, resolved[1].ID)
		assert.Equal(t, state.ID, resolved[2].ID)
	})

	t.Run("inside city but outside zip", func(t *testing.T) {
		resolved := svc.Resolve(geo.Point{Latitude: 6.9, Longitude: 3.9})
		require.Len(t, resolved, 2)
		assert.Equal(t, city.ID, resolved[0].ID)
		assert.Equal(t, state.ID, resolved[1].ID)
	})

	t.Run("no containing region", func(t *testing.T) {
		assert.Empty(t, svc.Resolve(geo.Point{Latitude: 50.0, Longitude: 50.0}))
		assert.Nil(t, svc.PrimaryRegion(geo.Point{Latitude: 50.0, Longitude: 50.0}))
	})

	t.Run("primary region is the most specific", func(t *testing.T) {
		primary := svc.PrimaryRegion(geo.Point{Latitude: 6.5, Longitude: 3.4})
		require.NotNil(t, primary)
		assert.Equal(t, zip.ID, primary.ID)
	})
}

func TestLoad(t *testing.T) {
	state := &entities.Region{ID: uuid.New(), Name: "State X", RegionType: entities.RegionTypeState}
	city := &entities.Region{
		ID: uuid.New(), Name: "City A", RegionType: entities.RegionTypeCity,
		ParentID: &state.ID, Boundary: squareBoundary(0, 0, 1, 1),
	}
	repo := &fakeRegionRepo{
		ListAllFn: func(ctx context.Context) ([]*entities.Region, error) {
			return []*entities.Region{state, city}, nil
		},
	}
	svc := NewRegionIndexService(repo)

	require.NoError(t, svc.Load(context.Background()))
	assert.Len(t, svc.ListRegions(), 2)

	resolved := svc.Resolve(geo.Point{Latitude: 0.5, Longitude: 0.5})
	assert.Len(t, resolved, 2)
}
