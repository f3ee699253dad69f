package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/epiwatch/surveillance/internal/geo"
)

func unitSquare() geo.Polygon {
	return geo.Polygon{Vertices: []geo.Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 1},
		{Latitude: 1, Longitude: 1},
		{Latitude: 1, Longitude: 0},
	}}
}

func TestPolygon_Contains(t *testing.T) {
	square := unitSquare()

	assert.True(t, square.Contains(geo.Point{Latitude: 0.5, Longitude: 0.5}))
	assert.False(t, square.Contains(geo.Point{Latitude: 1.5, Longitude: 0.5}))
	assert.False(t, square.Contains(geo.Point{Latitude: -0.1, Longitude: -0.1}))
}

func TestPolygon_Contains_BoundaryCountsAsInside(t *testing.T) {
	square := unitSquare()

	assert.True(t, square.Contains(geo.Point{Latitude: 0, Longitude: 0.5}), "edge point")
	assert.True(t, square.Contains(geo.Point{Latitude: 1, Longitude: 1}), "vertex")
}

func TestPolygon_Contains_ConcaveShape(t *testing.T) {
	// L-shape: the notch at the top right is outside.
	l := geo.Polygon{Vertices: []geo.Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 2},
		{Latitude: 1, Longitude: 2},
		{Latitude: 1, Longitude: 1},
		{Latitude: 2, Longitude: 1},
		{Latitude: 2, Longitude: 0},
	}}

	assert.True(t, l.Contains(geo.Point{Latitude: 0.5, Longitude: 1.5}))
	assert.True(t, l.Contains(geo.Point{Latitude: 1.5, Longitude: 0.5}))
	assert.False(t, l.Contains(geo.Point{Latitude: 1.5, Longitude: 1.5}), "notch is outside")
}

func TestPolygon_Contains_DegenerateRing(t *testing.T) {
	line := geo.Polygon{Vertices: []geo.Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 1, Longitude: 1},
	}}
	assert.False(t, line.Contains(geo.Point{Latitude: 0.5, Longitude: 0.5}))
}

func TestDistanceKm(t *testing.T) {
	lagos := geo.Point{Latitude: 6.5244, Longitude: 3.3792}
	abuja := geo.Point{Latitude: 9.0765, Longitude: 7.3986}

	d := geo.DistanceKm(lagos, abuja)
	assert.InDelta(t, 523, d, 15, "Lagos to Abuja is roughly 523 km")
	assert.Zero(t, geo.DistanceKm(lagos, lagos))
}
