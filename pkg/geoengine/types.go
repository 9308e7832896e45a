package geoengine

import (
	"encoding/json"
	"time"
)

// Reducer names a server-side region reduction.
type Reducer string

// Reducers understood by ReduceRegion.
const (
	ReducerMean               Reducer = "mean"
	ReducerMin                Reducer = "min"
	ReducerMax                Reducer = "max"
	ReducerStdDev             Reducer = "stdDev"
	ReducerFrequencyHistogram Reducer = "frequencyHistogram"
)

// Session is an authenticated engine session. It is safe to share across
// goroutines once returned.
type Session struct {
	ProjectID   string    `json:"projectId"`
	ClientEmail string    `json:"clientEmail"`
	AccessToken string    `json:"-"`
	Expiry      time.Time `json:"expiry"`
}

// Valid reports whether the session token is still usable at t, leaving a
// minute of slack before expiry.
func (s *Session) Valid(t time.Time) bool {
	return s != nil && s.AccessToken != "" && t.Add(time.Minute).Before(s.Expiry)
}

// Raster is a handle to a server-side image.
type Raster struct {
	ID    string   `json:"id"`
	Bands []string `json:"bands"`
}

// Composite describes how an image collection is collapsed to one image.
type Composite struct {
	Reducer     string `json:"reducer"`
	Percentiles []int  `json:"percentiles,omitempty"`
}

// LoadRequest selects and composites a catalog dataset over a region.
type LoadRequest struct {
	Dataset   string            `json:"dataset"`
	Region    json.RawMessage   `json:"region"`
	StartDate string            `json:"startDate,omitempty"`
	EndDate   string            `json:"endDate,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	CloudMax  float64           `json:"cloudMax,omitempty"`
	Mask      string            `json:"mask,omitempty"`
	Scale     float64           `json:"scaleFactor,omitempty"`
	Select    []string          `json:"select,omitempty"`
	Composite *Composite        `json:"composite,omitempty"`
	Derive    []string          `json:"derive,omitempty"`
	Rename    []string          `json:"rename,omitempty"`
	CRS       string            `json:"crs,omitempty"`
	PixelSize float64           `json:"pixelSize,omitempty"`
}

// ClassMask restricts a reduction to pixels of Raster whose Band equals Value.
type ClassMask struct {
	Raster string `json:"raster"`
	Band   string `json:"band"`
	Value  int    `json:"value"`
}

// ReduceRequest reduces one band of a raster over a region.
type ReduceRequest struct {
	Raster    string          `json:"raster"`
	Band      string          `json:"band"`
	Reducer   Reducer         `json:"reducer"`
	Region    json.RawMessage `json:"region"`
	Scale     float64         `json:"scale"`
	CRS       string          `json:"crs,omitempty"`
	MaxPixels float64         `json:"maxPixels,omitempty"`
	Mask      *ClassMask      `json:"mask,omitempty"`
}

// ReduceResult carries a scalar reduction in Value or, for the frequency
// histogram reducer, a count per class key in Histogram. Value is nil when
// the region holds no unmasked pixels.
type ReduceResult struct {
	Value     *float64           `json:"value,omitempty"`
	Histogram map[string]float64 `json:"histogram,omitempty"`
}

// Feature is a sampled point and its band values.
type Feature struct {
	ID         string  `json:"id"`
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
	Properties Bands   `json:"properties"`
}

// Bands maps band names to sampled values. The engine encodes a band with
// no pixel under the point as null; decoding drops such bands so that a
// missing value is never read back as zero.
type Bands map[string]float64

// UnmarshalJSON decodes a band object, skipping null values.
func (b *Bands) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*b = nil
		return nil
	}
	out := make(Bands, len(raw))
	for k, v := range raw {
		if v != nil {
			out[k] = *v
		}
	}
	*b = out
	return nil
}

// StratifiedSampleRequest draws points per class of ClassBand, annotating
// each with a uniform random column seeded by RandomSeed.
type StratifiedSampleRequest struct {
	Raster       string          `json:"raster"`
	ClassBand    string          `json:"classBand"`
	NumPoints    int             `json:"numPoints"`
	Region       json.RawMessage `json:"region"`
	Scale        float64         `json:"scale"`
	Seed         int64           `json:"seed"`
	RandomColumn string          `json:"randomColumn"`
	RandomSeed   int64           `json:"randomSeed"`
}

// SampleRegionsRequest reads raster band values at each point. Point
// properties are carried through to the result.
type SampleRegionsRequest struct {
	Raster     string    `json:"raster"`
	Points     []Feature `json:"points"`
	Scale      float64   `json:"scale"`
	TileScale  int       `json:"tileScale,omitempty"`
	Properties []string  `json:"properties,omitempty"`
}

// TrainRequest fits a random-forest model on sampled features.
type TrainRequest struct {
	Features   []Feature `json:"features"`
	Target     string    `json:"target"`
	Predictors []string  `json:"predictors"`
	NumTrees   int       `json:"numTrees"`
	Mode       string    `json:"mode"`
	Seed       int64     `json:"seed,omitempty"`
}

// Regressor is a handle to a trained server-side model.
type Regressor struct {
	ID string `json:"id"`
}

// ClassifyRequest applies a regressor to a raster, producing OutputBand.
type ClassifyRequest struct {
	Raster     string `json:"raster"`
	Regressor  string `json:"regressor"`
	OutputBand string `json:"outputBand"`
}

// ThumbnailRequest renders one band of a raster to a PNG.
type ThumbnailRequest struct {
	Raster     string          `json:"raster"`
	Band       string          `json:"band"`
	Region     json.RawMessage `json:"region"`
	Min        float64         `json:"min"`
	Max        float64         `json:"max"`
	Palette    []string        `json:"palette"`
	Dimensions int             `json:"dimensions"`
}
