package carbon

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/vegetation"
)

const (
	// CarbonFraction is the share of dry biomass that is carbon.
	CarbonFraction = 0.47
	// CO2PerCarbon converts a mass of carbon to its CO₂ equivalent.
	CO2PerCarbon = 3.67
)

// SequestrationRate returns the annual sequestration rate for a class.
// Classes without a dedicated rate use 0.010.
func SequestrationRate(id vegetation.ClassID) float64 {
	switch id {
	case vegetation.DenseForest:
		return 0.025
	case vegetation.Shrubland:
		return 0.020
	case vegetation.Grassland:
		return 0.015
	case vegetation.Wetland:
		return 0.030
	case vegetation.Mangroves:
		return 0.035
	default:
		return 0.010
	}
}

// HeightStats holds the predicted canopy height statistics for one class.
type HeightStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// CarbonParameters echoes the coefficients used for a record.
type CarbonParameters struct {
	A                 float64 `json:"a"`
	B                 float64 `json:"b"`
	SequestrationRate float64 `json:"sequestrationRate"`
}

// Record is the carbon breakdown for one land-cover class.
type Record struct {
	ID                  vegetation.ClassID `json:"id"`
	Name                string             `json:"name"`
	AreaHectares        float64            `json:"area"`
	AreaPercent         float64            `json:"areaPercentage"`
	CarbonParameters    CarbonParameters   `json:"carbonParameters"`
	HeightMean          float64            `json:"heightMean"`
	HeightStdDev        float64            `json:"heightStdDev"`
	Biomass             float64            `json:"biomass"`
	CarbonStock         float64            `json:"carbonStock"`
	AnnualSequestration float64            `json:"annualSequestration"`
	CO2Equivalent       float64            `json:"co2Equivalent"`
}

// Report aggregates the per-class records for a boundary.
type Report struct {
	Records                  []Record `json:"vegetationData"`
	TotalArea                float64  `json:"totalArea"`
	TotalCarbon              float64  `json:"totalCarbon"`
	TotalAnnualSequestration float64  `json:"totalAnnualSequestration"`
	TotalCO2Equivalent       float64  `json:"totalCO2"`
}

// Biomass applies the class power-law model to a mean canopy height.
// Missing, non-positive, or NaN heights give zero biomass.
func Biomass(c vegetation.Class, heightMean float64) float64 {
	if !c.HasBiomassModel() || math.IsNaN(heightMean) || heightMean <= 0 {
		return 0
	}
	return math.Pow(heightMean, c.B) * c.A
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate builds the carbon report for the aggregated areas. Classes
// without an entry in heights are treated as having zero canopy height.
// The record order follows areas.
func Calculate(areas []ClassArea, totalArea float64, heights map[vegetation.ClassID]HeightStats) (*Report, error) {
	if totalArea <= 0 || math.IsNaN(totalArea) {
		return nil, eris.Wrap(ErrInsufficientData, "carbon: total area is zero")
	}

	r := &Report{
		Records:   make([]Record, 0, len(areas)),
		TotalArea: totalArea,
	}
	for _, a := range areas {
		hs := heights[a.ID]
		rate := SequestrationRate(a.ID)

		biomass := Biomass(a.Params, hs.Mean)
		stock := biomass * CarbonFraction * a.AreaHectares
		rec := Record{
			ID:           a.ID,
			Name:         a.Name,
			AreaHectares: a.AreaHectares,
			AreaPercent:  round2(a.AreaHectares / totalArea * 100),
			CarbonParameters: CarbonParameters{
				A:                 a.Params.A,
				B:                 a.Params.B,
				SequestrationRate: rate,
			},
			HeightMean:          hs.Mean,
			HeightStdDev:        hs.StdDev,
			Biomass:             biomass,
			CarbonStock:         stock,
			AnnualSequestration: stock * rate,
			CO2Equivalent:       stock * CO2PerCarbon,
		}

		r.Records = append(r.Records, rec)
		r.TotalCarbon += rec.CarbonStock
		r.TotalAnnualSequestration += rec.AnnualSequestration
		r.TotalCO2Equivalent += rec.CO2Equivalent
	}
	return r, nil
}
