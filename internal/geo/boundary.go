// Package geo builds and validates the study-area boundary polygon and
// converts it between coordinate rings, GeoJSON and shapefiles.
package geo

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRID of every boundary.
const SRID = 4326

// DefaultRing is the study area used when a request carries no coordinates.
var DefaultRing = [][2]float64{
	{102.326, 4.422},
	{102.326, 4.321},
	{102.456, 4.321},
	{102.456, 4.422},
}

// ErrInvalidBoundary reports a ring that cannot form a polygon.
var ErrInvalidBoundary = eris.New("invalid boundary")

// Boundary is a closed single-ring WGS84 polygon.
type Boundary struct {
	poly *geom.Polygon
}

// NewBoundary builds a boundary from [lon, lat] pairs. An empty ring yields
// DefaultRing. The ring is closed if the last vertex differs from the first.
func NewBoundary(ring [][2]float64) (*Boundary, error) {
	if len(ring) == 0 {
		ring = DefaultRing
	}

	coords := make([]geom.Coord, 0, len(ring)+1)
	distinct := make(map[[2]float64]struct{}, len(ring))
	for i, p := range ring {
		lon, lat := p[0], p[1]
		if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
			return nil, eris.Wrapf(ErrInvalidBoundary, "geo: vertex %d is not finite", i)
		}
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return nil, eris.Wrapf(ErrInvalidBoundary, "geo: vertex %d (%g, %g) out of range", i, lon, lat)
		}
		distinct[p] = struct{}{}
		coords = append(coords, geom.Coord{lon, lat})
	}
	if len(distinct) < 3 {
		return nil, eris.Wrapf(ErrInvalidBoundary, "geo: need at least 3 distinct vertices, got %d", len(distinct))
	}
	if ring[0] != ring[len(ring)-1] {
		coords = append(coords, geom.Coord{ring[0][0], ring[0][1]})
	}

	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{coords})
	if err != nil {
		return nil, eris.Wrap(err, "geo: build polygon")
	}
	return &Boundary{poly: poly.SetSRID(SRID)}, nil
}

// Polygon returns the underlying geometry.
func (b *Boundary) Polygon() *geom.Polygon { return b.poly }

// Ring returns the closed outer ring as [lon, lat] pairs.
func (b *Boundary) Ring() [][2]float64 {
	coords := b.poly.LinearRing(0).Coords()
	out := make([][2]float64, len(coords))
	for i, c := range coords {
		out[i] = [2]float64{c.X(), c.Y()}
	}
	return out
}

// Bounds returns the bounding box as minLon, minLat, maxLon, maxLat.
func (b *Boundary) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	bb := b.poly.Bounds()
	return bb.Min(0), bb.Min(1), bb.Max(0), bb.Max(1)
}

// metresPerDegree at the equator.
const metresPerDegree = 111_320.0

// ApproxHectares estimates the enclosed area with an equirectangular
// projection centred on the boundary. Good enough for display and sanity
// checks on study-area sized polygons.
func (b *Boundary) ApproxHectares() float64 {
	_, minLat, _, maxLat := b.Bounds()
	midLat := (minLat + maxLat) / 2 * math.Pi / 180
	m2 := b.poly.Area() * metresPerDegree * metresPerDegree * math.Cos(midLat)
	return m2 / 10_000
}

// GeoJSON renders the boundary as a GeoJSON Feature.
func (b *Boundary) GeoJSON(props map[string]any) (json.RawMessage, error) {
	f := &geojson.Feature{
		Geometry:   b.poly,
		Properties: props,
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal geojson")
	}
	return data, nil
}

// Geometry renders the bare GeoJSON Polygon, as sent to the engine.
func (b *Boundary) Geometry() (json.RawMessage, error) {
	data, err := geojson.Marshal(b.poly)
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal geometry")
	}
	return data, nil
}

// ParseGeoJSON reads a boundary from a GeoJSON Polygon or MultiPolygon,
// a Feature, or the first feature of a FeatureCollection. Only the outer
// ring of the first polygon is kept.
func ParseGeoJSON(data []byte) (*Boundary, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, eris.Wrap(err, "geo: decode geojson")
	}

	var g geom.T
	switch probe.Type {
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature")
		}
		g = f.Geometry
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "geo: decode feature collection")
		}
		if len(fc.Features) == 0 {
			return nil, eris.Wrap(ErrInvalidBoundary, "geo: empty feature collection")
		}
		g = fc.Features[0].Geometry
	default:
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "geo: decode geometry")
		}
	}
	return FromGeometry(g)
}

// FromGeometry extracts a boundary from a polygonal geometry.
func FromGeometry(g geom.T) (*Boundary, error) {
	var poly *geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		if t.NumPolygons() > 0 {
			poly = t.Polygon(0)
		}
	case nil:
		return nil, eris.Wrap(ErrInvalidBoundary, "geo: no geometry")
	default:
		return nil, eris.Wrapf(ErrInvalidBoundary, "geo: unsupported geometry %T", g)
	}
	if poly == nil || poly.NumLinearRings() == 0 {
		return nil, eris.Wrap(ErrInvalidBoundary, "geo: empty polygon")
	}

	coords := poly.LinearRing(0).Coords()
	ring := make([][2]float64, len(coords))
	for i, c := range coords {
		ring[i] = [2]float64{c.X(), c.Y()}
	}
	if len(ring) == 0 {
		return nil, eris.Wrap(ErrInvalidBoundary, "geo: empty ring")
	}
	return NewBoundary(ring)
}
