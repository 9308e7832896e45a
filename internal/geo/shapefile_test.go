package geo

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() []shp.Point {
	return []shp.Point{
		{X: 102.3, Y: 4.3},
		{X: 102.3, Y: 4.4},
		{X: 102.4, Y: 4.4},
		{X: 102.4, Y: 4.3},
		{X: 102.3, Y: 4.3},
	}
}

func TestFromShape(t *testing.T) {
	poly := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points:   square(),
	}

	b, err := FromShape(poly)
	require.NoError(t, err)
	assert.Len(t, b.Ring(), 5)
}

func TestFromShape_MultiPartUsesFirst(t *testing.T) {
	pts := append(square(), shp.Point{X: 0, Y: 0}, shp.Point{X: 1, Y: 0}, shp.Point{X: 1, Y: 1}, shp.Point{X: 0, Y: 0})
	poly := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points:   pts,
	}

	b, err := FromShape(poly)
	require.NoError(t, err)
	minLon, _, _, _ := b.Bounds()
	assert.Equal(t, 102.3, minLon)
}

func TestFromShape_NotPolygon(t *testing.T) {
	_, err := FromShape(&shp.Point{X: 1, Y: 2})
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = FromShape(&shp.Polygon{})
	assert.ErrorIs(t, err, ErrInvalidBoundary)
}

func TestLoadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boundary.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{square()}))
	w.Write(&poly)
	w.Close()

	b, err := LoadShapefile(path)
	require.NoError(t, err)
	ring := b.Ring()
	require.Len(t, ring, 5)
	assert.Equal(t, [2]float64{102.3, 4.3}, ring[0])
}

func TestLoadShapefile_Missing(t *testing.T) {
	_, err := LoadShapefile(filepath.Join(t.TempDir(), "nope.shp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open shapefile")
}
