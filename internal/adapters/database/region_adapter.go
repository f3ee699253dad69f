package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/domain/entities"
	"github.com/epiwatch/surveillance/internal/domain/repositories"
	"github.com/epiwatch/surveillance/internal/geo"
	"github.com/epiwatch/surveillance/internal/infrastructure/clients/postgres"
	apperrors "github.com/epiwatch/surveillance/pkg/errors"
)

// RegionAdapter implements the RegionRepository interface. Boundaries are
// stored as JSONB vertex arrays; containment math happens in the region
// index, not the database.
type RegionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRegionAdapter creates a new region adapter
func NewRegionAdapter(client *postgres.Client) repositories.RegionRepository {
	return &RegionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a region
func (a *RegionAdapter) Create(ctx context.Context, region *entities.Region) error {
	boundary, err := marshalBoundary(region.Boundary)
	if err != nil {
		return err
	}

	var population sql.NullInt64
	if region.Population != nil {
		population = sql.NullInt64{Int64: *region.Population, Valid: true}
	}

	query, args, err := a.db.Insert("regions").Rows(goqu.Record{
		"id":          region.ID,
		"name":        region.Name,
		"region_type": region.RegionType,
		"parent_id":   nullUUID(region.ParentID),
		"boundary":    boundary,
		"population":  population,
		"created_at":  region.CreatedAt,
		"updated_at":  region.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create region", err)
	}
	return nil
}

const regionSelect = `
	SELECT id, name, region_type, parent_id, boundary, population,
	       created_at, updated_at
	FROM regions`

func scanRegion(row interface{ Scan(...interface{}) error }) (*entities.Region, error) {
	region := &entities.Region{}
	var parentID uuid.NullUUID
	var boundary []byte
	var population sql.NullInt64

	err := row.Scan(
		&region.ID,
		&region.Name,
		&region.RegionType,
		&parentID,
		&boundary,
		&population,
		&region.CreatedAt,
		&region.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	region.ParentID = uuidPtr(parentID)
	if population.Valid {
		p := population.Int64
		region.Population = &p
	}
	if len(boundary) > 0 {
		var vertices []geo.Point
		if err := json.Unmarshal(boundary, &vertices); err != nil {
			return nil, fmt.Errorf("malformed region boundary: %w", err)
		}
		region.Boundary = &geo.Polygon{Vertices: vertices}
	}
	return region, nil
}

// GetByID retrieves a region by ID
func (a *RegionAdapter) GetByID(ctx context.Context, id uuid.UUID) (*entities.Region, error) {
	row := a.client.DB().QueryRowContext(ctx, regionSelect+` WHERE id = $1`, id)
	region, err := scanRegion(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("region with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get region", err)
	}
	return region, nil
}

// ListAll retrieves the entire hierarchy for index loading
func (a *RegionAdapter) ListAll(ctx context.Context) ([]*entities.Region, error) {
	rows, err := a.client.DB().QueryContext(ctx, regionSelect+` ORDER BY name`)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list regions", err)
	}
	defer rows.Close()

	regions := []*entities.Region{}
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan region", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating regions", err)
	}
	return regions, nil
}

// UpdateParent re-parents a region
func (a *RegionAdapter) UpdateParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	result, err := a.client.DB().ExecContext(ctx,
		`UPDATE regions SET parent_id = $2, updated_at = NOW() WHERE id = $1`,
		id, nullUUID(parentID))
	if err != nil {
		return apperrors.NewInternalError("failed to update region parent", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("region with id %s not found", id))
	}
	return nil
}

func marshalBoundary(boundary *geo.Polygon) (interface{}, error) {
	if boundary == nil {
		return nil, nil
	}
	data, err := json.Marshal(boundary.Vertices)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode region boundary", err)
	}
	return data, nil
}
