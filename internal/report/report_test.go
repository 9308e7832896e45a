package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/vegetation"
)

func testResult(t *testing.T) *model.Result {
	t.Helper()
	areas, total := carbon.AggregateAreas(map[string]float64{"10": 1500, "30": 300}, 1)
	rep, err := carbon.Calculate(areas, total, map[vegetation.ClassID]carbon.HeightStats{
		vegetation.DenseForest: {Mean: 20, StdDev: 4},
		vegetation.Grassland:   {Mean: 3, StdDev: 1},
	})
	require.NoError(t, err)
	in, err := carbon.TierInputsFrom(rep, 14)
	require.NoError(t, err)

	return &model.Result{
		RunID:                "run-1",
		VegetationAreas:      areas,
		RegressionStats:      model.RegressionStats{Min: 1, Max: 31, Mean: 14},
		Metrics:              carbon.AccuracyMetrics{TrainingRMSE: 2.5, ValidationRMSE: 3.1, RSquared: 0.62},
		TrainingSampleSize:   1400,
		ValidationSampleSize: 600,
		CarbonData:           rep,
		Tier:                 carbon.ClassifyTier(in),
		TierInputs:           in,
	}
}

func TestSummary(t *testing.T) {
	res := testResult(t)
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "CARBON ESTIMATE")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "1,800.00 ha")
	assert.Contains(t, out, "Dense Forest")
	assert.Contains(t, out, "Grassland")
	assert.Contains(t, out, "1,400 training / 600 validation")
	assert.Contains(t, out, "0.620")
	assert.Contains(t, out, string(res.Tier))
	assert.NotContains(t, out, "THUMBNAILS")
}

func TestSummary_Thumbnails(t *testing.T) {
	res := testResult(t)
	res.Thumbnails = &model.Thumbnails{Landcover: "https://engine.example/lc.png"}

	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, res))
	assert.Contains(t, buf.String(), "https://engine.example/lc.png")
}

func TestSummary_NoCarbonData(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Summary(&buf, &model.Result{}))
	assert.Error(t, Summary(&buf, nil))
}

func TestRenderCharts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCharts(&buf, testResult(t)))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"))
	assert.Contains(t, html, "Carbon stock by land cover")
	assert.Contains(t, html, "Area by land cover")
	assert.Contains(t, html, "#006400")
}

func TestWorkbook(t *testing.T) {
	res := testResult(t)
	f, err := Workbook(res)
	require.NoError(t, err)

	summary, ok := f.Sheet[SheetSummary]
	require.True(t, ok)
	assert.Equal(t, "Metric", summary.Rows[0].Cells[0].String())
	assert.Equal(t, "Run ID", summary.Rows[1].Cells[0].String())
	assert.Equal(t, "run-1", summary.Rows[1].Cells[1].String())

	breakdown, ok := f.Sheet[SheetBreakdown]
	require.True(t, ok)
	require.Len(t, breakdown.Rows, 3)
	assert.Equal(t, len(breakdownHeader), len(breakdown.Rows[0].Cells))
	assert.Equal(t, "Dense Forest", breakdown.Rows[1].Cells[1].String())

	area, err := breakdown.Rows[1].Cells[2].Float()
	require.NoError(t, err)
	assert.Equal(t, 1500.0, area)
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	files, err := Export(dir, testResult(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "estimate-run-1.html"), files.Charts)

	_, err = os.Stat(files.Charts)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(files.Workbook)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, SheetSummary, f.Sheets[0].Name)
	assert.Equal(t, SheetBreakdown, f.Sheets[1].Name)
}

func TestExport_NoCarbonData(t *testing.T) {
	dir := t.TempDir()
	_, err := Export(dir, &model.Result{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
