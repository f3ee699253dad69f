package geo

import "math"

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Polygon is a closed ring of vertices. The ring may be given open (first
// vertex not repeated at the end); containment treats it as closed.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// Contains reports whether p lies inside the polygon, using the even-odd
// ray casting rule. Points exactly on an edge count as inside so that a
// coordinate on a shared boundary resolves into at least one region.
func (pg Polygon) Contains(p Point) bool {
	n := len(pg.Vertices)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := pg.Vertices[j]
		b := pg.Vertices[i]

		if onSegment(a, b, p) {
			return true
		}

		intersects := (b.Latitude > p.Latitude) != (a.Latitude > p.Latitude) &&
			p.Longitude < (a.Longitude-b.Longitude)*(p.Latitude-b.Latitude)/(a.Latitude-b.Latitude)+b.Longitude
		if intersects {
			inside = !inside
		}
	}
	return inside
}

const edgeEpsilon = 1e-12

// onSegment reports whether p lies on the segment ab.
func onSegment(a, b, p Point) bool {
	cross := (b.Longitude-a.Longitude)*(p.Latitude-a.Latitude) -
		(b.Latitude-a.Latitude)*(p.Longitude-a.Longitude)
	if math.Abs(cross) > edgeEpsilon {
		return false
	}
	return p.Latitude >= math.Min(a.Latitude, b.Latitude)-edgeEpsilon &&
		p.Latitude <= math.Max(a.Latitude, b.Latitude)+edgeEpsilon &&
		p.Longitude >= math.Min(a.Longitude, b.Longitude)-edgeEpsilon &&
		p.Longitude <= math.Max(a.Longitude, b.Longitude)+edgeEpsilon
}

// DistanceKm returns the haversine great-circle distance between two points.
func DistanceKm(from, to Point) float64 {
	const earthRadiusKm = 6371.0
	dLat := degreesToRadians(to.Latitude - from.Latitude)
	dLon := degreesToRadians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(from.Latitude))*math.Cos(degreesToRadians(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
