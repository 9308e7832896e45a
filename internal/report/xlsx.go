package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/forest-carbon/internal/model"
)

// Sheet names in the exported workbook.
const (
	SheetSummary   = "Summary"
	SheetBreakdown = "Breakdown"
)

var breakdownHeader = []string{
	"Class ID", "Class", "Area (ha)", "Area (%)", "A", "B", "Sequestration rate",
	"Height mean (m)", "Height std dev (m)", "Biomass", "Carbon stock (t)",
	"Annual sequestration (t)", "CO2e (t)",
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addFloatRow(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(v)
}

// Workbook builds the summary and breakdown sheets for res.
func Workbook(res *model.Result) (*xlsx.File, error) {
	if res == nil || res.CarbonData == nil {
		return nil, eris.New("report: result has no carbon data")
	}
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return nil, eris.Wrap(err, "report: add summary sheet")
	}
	cd := res.CarbonData
	addStringRow(summary, "Metric", "Value")
	if res.RunID != "" {
		addStringRow(summary, "Run ID", res.RunID)
	}
	addStringRow(summary, "Tier", string(res.Tier))
	addFloatRow(summary, "Total area (ha)", cd.TotalArea)
	addFloatRow(summary, "Total carbon (t)", cd.TotalCarbon)
	addFloatRow(summary, "Annual sequestration (t)", cd.TotalAnnualSequestration)
	addFloatRow(summary, "CO2e (t)", cd.TotalCO2Equivalent)
	addFloatRow(summary, "Dense forest (%)", res.TierInputs.DenseForestPercent)
	addFloatRow(summary, "CO2e per ha (t)", res.TierInputs.CO2PerHectare)
	addFloatRow(summary, "Mean canopy height (m)", res.TierInputs.MeanCanopyHeight)
	addFloatRow(summary, "Training RMSE (m)", res.Metrics.TrainingRMSE)
	addFloatRow(summary, "Validation RMSE (m)", res.Metrics.ValidationRMSE)
	addFloatRow(summary, "R2", res.Metrics.RSquared)
	addFloatRow(summary, "Training samples", float64(res.TrainingSampleSize))
	addFloatRow(summary, "Validation samples", float64(res.ValidationSampleSize))

	breakdown, err := f.AddSheet(SheetBreakdown)
	if err != nil {
		return nil, eris.Wrap(err, "report: add breakdown sheet")
	}
	addStringRow(breakdown, breakdownHeader...)
	for _, r := range cd.Records {
		row := breakdown.AddRow()
		row.AddCell().SetInt(int(r.ID))
		row.AddCell().SetString(r.Name)
		for _, v := range []float64{
			r.AreaHectares, r.AreaPercent,
			r.CarbonParameters.A, r.CarbonParameters.B, r.CarbonParameters.SequestrationRate,
			r.HeightMean, r.HeightStdDev, r.Biomass,
			r.CarbonStock, r.AnnualSequestration, r.CO2Equivalent,
		} {
			row.AddCell().SetFloat(v)
		}
	}
	return f, nil
}

// RenderXLSX writes the workbook for res to w.
func RenderXLSX(w io.Writer, res *model.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

// WriteXLSX saves the workbook for res to path, creating parent directories.
func WriteXLSX(path string, res *model.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	return nil
}
