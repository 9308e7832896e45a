// Package model holds the request, result and run types shared by the
// estimator, the run store and the API.
package model

import (
	"encoding/json"

	"github.com/sells-group/forest-carbon/internal/carbon"
)

// Options tunes a single estimation. Zero values are replaced by the
// configured defaults.
type Options struct {
	StartDate  string  `json:"startDate,omitempty" yaml:"start_date"`
	EndDate    string  `json:"endDate,omitempty" yaml:"end_date"`
	NumSamples int     `json:"numSamples,omitempty" yaml:"num_samples"`
	SplitRatio float64 `json:"splitRatio,omitempty" yaml:"split_ratio"`
	Thumbnails bool    `json:"thumbnails,omitempty" yaml:"thumbnails"`
}

// Request is an estimation request: a boundary ring of [lon, lat] pairs and
// options. An empty ring selects the default boundary.
type Request struct {
	Coordinates [][2]float64 `json:"coordinates" yaml:"coordinates"`
	Options     Options      `json:"options" yaml:"options"`
}

// RegressionStats summarizes the predicted canopy height over the boundary.
type RegressionStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Thumbnails are rendered preview URLs.
type Thumbnails struct {
	Landcover    string `json:"landcover,omitempty"`
	CanopyHeight string `json:"canopyHeight,omitempty"`
}

// Result is the assembled output of one estimation.
type Result struct {
	RunID                string                 `json:"runId,omitempty"`
	Boundary             json.RawMessage        `json:"boundary"`
	VegetationAreas      []carbon.ClassArea     `json:"vegetationAreas"`
	RegressionStats      RegressionStats        `json:"regressionStats"`
	Metrics              carbon.AccuracyMetrics `json:"metrics"`
	TrainingSampleSize   int                    `json:"trainingSampleSize"`
	ValidationSampleSize int                    `json:"validationSampleSize"`
	CarbonData           *carbon.Report         `json:"carbonData"`
	Tier                 carbon.Tier            `json:"tier"`
	TierInputs           carbon.TierInputs      `json:"tierInputs"`
	Thumbnails           *Thumbnails            `json:"thumbnails,omitempty"`
}
