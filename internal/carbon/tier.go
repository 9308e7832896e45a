package carbon

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/vegetation"
)

// Tier is the quality grade assigned to a boundary.
type Tier string

// Tiers from best to worst.
const (
	TierPlatinum Tier = "Platinum"
	TierGold     Tier = "Gold"
	TierSilver   Tier = "Silver"
	TierBronze   Tier = "Bronze"
	TierGrey     Tier = "Grey"
)

// TierInputs are the derived indicators the tier is decided on.
// SequestrationPerHectare is reported alongside but does not influence the
// tier.
type TierInputs struct {
	DenseForestPercent      float64 `json:"denseForestPercent"`
	CO2PerHectare           float64 `json:"co2PerHectare"`
	MeanCanopyHeight        float64 `json:"meanCanopyHeight"`
	SequestrationPerHectare float64 `json:"sequestrationPerHectare"`
}

// TierInputsFrom derives the tier indicators from a report and the global
// mean predicted canopy height.
func TierInputsFrom(r *Report, meanCanopy float64) (TierInputs, error) {
	if r == nil || r.TotalArea <= 0 {
		return TierInputs{}, eris.Wrap(ErrInsufficientData, "carbon: tier inputs need a positive total area")
	}

	var dense float64
	for _, rec := range r.Records {
		if rec.ID == vegetation.DenseForest {
			dense += rec.AreaHectares
		}
	}

	return TierInputs{
		DenseForestPercent:      dense / r.TotalArea * 100,
		CO2PerHectare:           r.TotalCO2Equivalent / r.TotalArea,
		MeanCanopyHeight:        meanCanopy,
		SequestrationPerHectare: r.TotalAnnualSequestration / r.TotalArea,
	}, nil
}

// ClassifyTier returns the first tier whose thresholds are all met.
func ClassifyTier(in TierInputs) Tier {
	dense, co2, canopy := in.DenseForestPercent, in.CO2PerHectare, in.MeanCanopyHeight
	switch {
	case dense > 70 && co2 > 3 && canopy > 10:
		return TierPlatinum
	case dense >= 30 && co2 >= 2 && canopy > 7:
		return TierGold
	case dense >= 10 && co2 >= 1 && canopy > 5:
		return TierSilver
	case dense >= 1 && co2 < 1 && canopy < 5:
		return TierBronze
	default:
		return TierGrey
	}
}
