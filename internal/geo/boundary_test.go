package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundary_DefaultRing(t *testing.T) {
	b, err := NewBoundary(nil)
	require.NoError(t, err)

	ring := b.Ring()
	require.Len(t, ring, 5)
	assert.Equal(t, DefaultRing[0], ring[0])
	assert.Equal(t, ring[0], ring[4], "ring is closed")

	minLon, minLat, maxLon, maxLat := b.Bounds()
	assert.Equal(t, 102.326, minLon)
	assert.Equal(t, 4.321, minLat)
	assert.Equal(t, 102.456, maxLon)
	assert.Equal(t, 4.422, maxLat)
}

func TestNewBoundary_AlreadyClosed(t *testing.T) {
	ring := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	b, err := NewBoundary(ring)
	require.NoError(t, err)
	assert.Len(t, b.Ring(), 4)
}

func TestNewBoundary_Invalid(t *testing.T) {
	tests := []struct {
		name string
		ring [][2]float64
	}{
		{"two points", [][2]float64{{0, 0}, {1, 1}}},
		{"repeated points", [][2]float64{{0, 0}, {1, 1}, {0, 0}, {1, 1}}},
		{"longitude out of range", [][2]float64{{0, 0}, {181, 0}, {1, 1}}},
		{"latitude out of range", [][2]float64{{0, 0}, {1, -91}, {1, 1}}},
		{"nan", [][2]float64{{0, 0}, {math.NaN(), 0}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoundary(tt.ring)
			require.ErrorIs(t, err, ErrInvalidBoundary)
		})
	}
}

func TestApproxHectares(t *testing.T) {
	// 0.01° square at the equator is ~1113.2 m on a side
	b, err := NewBoundary([][2]float64{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}})
	require.NoError(t, err)
	assert.InDelta(t, 123.9, b.ApproxHectares(), 0.5)

	def, err := NewBoundary(nil)
	require.NoError(t, err)
	assert.InDelta(t, 16200, def.ApproxHectares(), 300)
}

func TestGeoJSON(t *testing.T) {
	b, err := NewBoundary(nil)
	require.NoError(t, err)

	raw, err := b.GeoJSON(map[string]any{"name": "study area"})
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Feature", doc.Type)
	assert.Equal(t, "Polygon", doc.Geometry.Type)
	require.Len(t, doc.Geometry.Coordinates, 1)
	assert.Len(t, doc.Geometry.Coordinates[0], 5)
	assert.Equal(t, "study area", doc.Properties["name"])
}

func TestGeometry_RoundTrips(t *testing.T) {
	b, err := NewBoundary(nil)
	require.NoError(t, err)

	raw, err := b.Geometry()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"Polygon"`)

	back, err := ParseGeoJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, b.Ring(), back.Ring())
}

func TestParseGeoJSON(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"polygon", `{"type":"Polygon","coordinates":[[[1,1],[2,1],[2,2],[1,1]]]}`},
		{"multipolygon", `{"type":"MultiPolygon","coordinates":[[[[1,1],[2,1],[2,2],[1,1]]]]}`},
		{"feature", `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[1,1],[2,1],[2,2],[1,1]]]},"properties":{}}`},
		{"collection", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[1,1],[2,1],[2,2],[1,1]]]},"properties":{}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseGeoJSON([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, [][2]float64{{1, 1}, {2, 1}, {2, 2}, {1, 1}}, b.Ring())
		})
	}
}

func TestParseGeoJSON_Rejects(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = ParseGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`))
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = ParseGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}
