package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/epiwatch/surveillance/internal/geo"
)

// RegionType classifies a level in the administrative hierarchy.
type RegionType string

const (
	RegionTypeZip    RegionType = "zip"
	RegionTypeTract  RegionType = "tract"
	RegionTypeCity   RegionType = "city"
	RegionTypeCounty RegionType = "county"
	RegionTypeState  RegionType = "state"
)

// regionTypeSpecificity orders region types from most to least specific.
// Lower rank wins when picking a deterministic primary region.
var regionTypeSpecificity = map[RegionType]int{
	RegionTypeZip:    0,
	RegionTypeTract:  1,
	RegionTypeCity:   2,
	RegionTypeCounty: 3,
	RegionTypeState:  4,
}

// SpecificityRank returns the sort rank for the region type; unknown types
// sort last.
func (t RegionType) SpecificityRank() int {
	if rank, ok := regionTypeSpecificity[t]; ok {
		return rank
	}
	return len(regionTypeSpecificity)
}

// Valid reports whether t is a known region type.
func (t RegionType) Valid() bool {
	_, ok := regionTypeSpecificity[t]
	return ok
}

// Region is one node of the administrative hierarchy. Regions are
// process-wide reference data maintained by data stewardship; the parent
// chain must stay acyclic, which the region index enforces at write time.
type Region struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Name       string       `json:"name" db:"name"`
	RegionType RegionType   `json:"region_type" db:"region_type"`
	ParentID   *uuid.UUID   `json:"parent_id,omitempty" db:"parent_id"`
	Boundary   *geo.Polygon `json:"boundary,omitempty" db:"-"`
	Population *int64       `json:"population,omitempty" db:"population"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// Contains reports whether the region has a boundary containing p.
func (r *Region) Contains(p geo.Point) bool {
	return r.Boundary != nil && r.Boundary.Contains(p)
}
