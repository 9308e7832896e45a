package geo

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FromShape converts the first part of a shapefile polygon into a boundary.
// Holes and further parts are ignored.
func FromShape(shape shp.Shape) (*Boundary, error) {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil {
		return nil, eris.Wrapf(ErrInvalidBoundary, "geo: shape %T is not a polygon", shape)
	}
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil, eris.Wrap(ErrInvalidBoundary, "geo: empty polygon shape")
	}

	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}
	ring := make([][2]float64, 0, end-p.Parts[0])
	for _, pt := range p.Points[p.Parts[0]:end] {
		ring = append(ring, [2]float64{pt.X, pt.Y})
	}
	if p.NumParts > 1 {
		zap.L().Debug("geo: ignoring extra polygon parts", zap.Int32("parts", p.NumParts))
	}
	return NewBoundary(ring)
}

// LoadShapefile reads the first polygon record of a .shp file.
func LoadShapefile(path string) (*Boundary, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		b, err := FromShape(shape)
		if err != nil {
			skipped++
			continue
		}
		if skipped > 0 {
			zap.L().Debug("geo: skipped non-polygon records", zap.String("path", path), zap.Int("skipped", skipped))
		}
		return b, nil
	}
	return nil, eris.Wrapf(ErrInvalidBoundary, "geo: no polygon in %s", path)
}
