package report

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/vegetation"
)

const (
	chartWidth  = "900px"
	chartHeight = "500px"
)

func classColor(r carbon.Record) string {
	if c, ok := vegetation.Lookup(r.ID); ok {
		return "#" + c.Color
	}
	return "#5470C6"
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func carbonBar(res *model.Result) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Carbon stock by land cover",
			Subtitle: "tonnes of carbon",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
	)

	records := res.CarbonData.Records
	names := make([]string, len(records))
	data := make([]opts.BarData, len(records))
	for i, r := range records {
		names[i] = r.Name
		data[i] = opts.BarData{
			Name:      r.Name,
			Value:     round(r.CarbonStock),
			ItemStyle: &opts.ItemStyle{Color: classColor(r)},
		}
	}

	bar.SetXAxis(names).
		AddSeries("Carbon stock", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:     opts.Bool(true),
				Position: "top",
			}),
		)
	return bar
}

func areaPie(res *model.Result) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Area by land cover",
			Subtitle: "hectares",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)

	records := res.CarbonData.Records
	data := make([]opts.PieData, len(records))
	for i, r := range records {
		data[i] = opts.PieData{
			Name:      r.Name,
			Value:     round(r.AreaHectares),
			ItemStyle: &opts.ItemStyle{Color: classColor(r)},
		}
	}

	pie.AddSeries("Area", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)
	return pie
}

// RenderCharts writes an HTML page with the carbon-by-class bar chart and
// the area-share pie chart.
func RenderCharts(w io.Writer, res *model.Result) error {
	if res == nil || res.CarbonData == nil {
		return eris.New("report: result has no carbon data")
	}

	page := components.NewPage()
	page.PageTitle = "Forest carbon estimate"
	page.AddCharts(carbonBar(res), areaPie(res))

	if err := page.Render(w); err != nil {
		return eris.Wrap(err, "report: render charts")
	}
	return nil
}

// WriteCharts renders the charts page to path, creating parent directories.
func WriteCharts(path string, res *model.Result) error {
	if res == nil || res.CarbonData == nil {
		return eris.New("report: result has no carbon data")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create chart file")
	}
	defer f.Close() //nolint:errcheck

	return RenderCharts(f, res)
}
