// Package report renders an estimation result as a console summary, HTML
// charts and an XLSX workbook.
package report

import (
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/forest-carbon/internal/model"
)

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// Summary writes the human-readable summary of res to w: totals, the
// per-class breakdown, model statistics and the tier.
func Summary(w io.Writer, res *model.Result) error {
	if res == nil || res.CarbonData == nil {
		return eris.New("report: result has no carbon data")
	}
	p := printer()
	cd := res.CarbonData

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	p.Fprintln(tw, "CARBON ESTIMATE")
	if res.RunID != "" {
		p.Fprintf(tw, "Run:\t%s\n", res.RunID)
	}
	p.Fprintf(tw, "Total area:\t%.2f ha\n", cd.TotalArea)
	p.Fprintf(tw, "Total carbon stock:\t%.2f t C\n", cd.TotalCarbon)
	p.Fprintf(tw, "Annual sequestration:\t%.2f t C/yr\n", cd.TotalAnnualSequestration)
	p.Fprintf(tw, "CO2 equivalent:\t%.2f t CO2e\n", cd.TotalCO2Equivalent)
	p.Fprintf(tw, "Tier:\t%s\n", res.Tier)
	p.Fprintln(tw)

	p.Fprintln(tw, "VEGETATION BREAKDOWN")
	p.Fprintln(tw, "CLASS\tAREA (HA)\tSHARE\tHEIGHT (M)\tBIOMASS\tCARBON (T)\tCO2E (T)")
	for _, r := range cd.Records {
		p.Fprintf(tw, "%s\t%.2f\t%.2f%%\t%.2f ± %.2f\t%.2f\t%.2f\t%.2f\n",
			r.Name, r.AreaHectares, r.AreaPercent, r.HeightMean, r.HeightStdDev,
			r.Biomass, r.CarbonStock, r.CO2Equivalent)
	}
	p.Fprintln(tw)

	p.Fprintln(tw, "MODEL")
	p.Fprintf(tw, "Samples:\t%d training / %d validation\n", res.TrainingSampleSize, res.ValidationSampleSize)
	p.Fprintf(tw, "Training RMSE:\t%.2f m\n", res.Metrics.TrainingRMSE)
	p.Fprintf(tw, "Validation RMSE:\t%.2f m\n", res.Metrics.ValidationRMSE)
	p.Fprintf(tw, "R²:\t%.3f\n", res.Metrics.RSquared)
	p.Fprintf(tw, "Canopy height:\tmin %.2f / mean %.2f / max %.2f m\n",
		res.RegressionStats.Min, res.RegressionStats.Mean, res.RegressionStats.Max)
	p.Fprintln(tw)

	ti := res.TierInputs
	p.Fprintln(tw, "TIER INPUTS")
	p.Fprintf(tw, "Dense forest:\t%.2f%%\n", ti.DenseForestPercent)
	p.Fprintf(tw, "CO2e per hectare:\t%.2f t\n", ti.CO2PerHectare)
	p.Fprintf(tw, "Mean canopy height:\t%.2f m\n", ti.MeanCanopyHeight)
	p.Fprintf(tw, "Sequestration per hectare:\t%.4f t C/yr\n", ti.SequestrationPerHectare)

	if t := res.Thumbnails; t != nil {
		p.Fprintln(tw)
		p.Fprintln(tw, "THUMBNAILS")
		if t.Landcover != "" {
			p.Fprintf(tw, "Land cover:\t%s\n", t.Landcover)
		}
		if t.CanopyHeight != "" {
			p.Fprintf(tw, "Canopy height:\t%s\n", t.CanopyHeight)
		}
	}

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "report: write summary")
	}
	return nil
}
