package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/estimator"
	"github.com/sells-group/forest-carbon/internal/geo"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/report"
)

// estimateFlags are the request-shaping flags of the estimate command.
type estimateFlags struct {
	requestFile string
	shapefile   string
	geojsonFile string
	startDate   string
	endDate     string
	numSamples  int
	splitRatio  float64
	thumbnails  bool
}

var (
	estFlags     estimateFlags
	estJSON      bool
	estExport    bool
	estOutputDir string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate carbon stock for a boundary",
	Long:  "Runs one estimation for a boundary given as a YAML request, a shapefile or a GeoJSON file. Without a boundary the default study area is used.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		req, err := buildRequest(estFlags)
		if err != nil {
			return err
		}

		env, err := initEstimator(ctx, "estimate")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Estimator.Execute(ctx, req, model.SourceCLI)
		if err != nil {
			if run != nil {
				return eris.Wrapf(err, "estimate: run %s", run.ID)
			}
			return eris.Wrap(err, "estimate")
		}

		if err := printResult(os.Stdout, run.Result, estJSON); err != nil {
			return err
		}

		if estExport {
			dir := estOutputDir
			if dir == "" {
				dir = cfg.Report.OutputDir
			}
			files, err := report.Export(dir, run.Result)
			if err != nil {
				return err
			}
			zap.L().Info("report exported",
				zap.String("charts", files.Charts),
				zap.String("workbook", files.Workbook),
			)
		}
		return nil
	},
}

// buildRequest assembles the request from a request file and/or a boundary
// file, with flag options taking precedence over the file's.
func buildRequest(f estimateFlags) (estimator.Request, error) {
	var req estimator.Request
	if f.requestFile != "" {
		r, err := estimator.LoadRequestFile(f.requestFile)
		if err != nil {
			return req, err
		}
		req = r
	}

	if f.shapefile != "" && f.geojsonFile != "" {
		return req, eris.New("estimate: --boundary-shp and --boundary-geojson are mutually exclusive")
	}

	var boundary *geo.Boundary
	switch {
	case f.shapefile != "":
		b, err := geo.LoadShapefile(f.shapefile)
		if err != nil {
			return req, err
		}
		boundary = b
	case f.geojsonFile != "":
		data, err := os.ReadFile(f.geojsonFile)
		if err != nil {
			return req, eris.Wrapf(err, "estimate: read %s", f.geojsonFile)
		}
		b, err := geo.ParseGeoJSON(data)
		if err != nil {
			return req, err
		}
		boundary = b
	}
	if boundary != nil {
		req.Coordinates = boundary.Ring()
	}

	if f.startDate != "" {
		req.Options.StartDate = f.startDate
	}
	if f.endDate != "" {
		req.Options.EndDate = f.endDate
	}
	if f.numSamples > 0 {
		req.Options.NumSamples = f.numSamples
	}
	if f.splitRatio > 0 {
		req.Options.SplitRatio = f.splitRatio
	}
	if f.thumbnails {
		req.Options.Thumbnails = true
	}
	return req, nil
}

func printResult(w io.Writer, res *model.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "estimate: encode result")
		}
		return nil
	}
	if err := report.Summary(w, res); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&estFlags.requestFile, "request", "", "YAML request file (coordinates and options)")
	f.StringVar(&estFlags.shapefile, "boundary-shp", "", "shapefile whose first polygon is the boundary")
	f.StringVar(&estFlags.geojsonFile, "boundary-geojson", "", "GeoJSON Feature or Polygon file with the boundary")
	f.StringVar(&estFlags.startDate, "start", "", "imagery start date (YYYY-MM-DD)")
	f.StringVar(&estFlags.endDate, "end", "", "imagery end date (YYYY-MM-DD)")
	f.IntVar(&estFlags.numSamples, "samples", 0, "number of stratified reference points")
	f.Float64Var(&estFlags.splitRatio, "split", 0, "training share of the reference points, in (0, 1)")
	f.BoolVar(&estFlags.thumbnails, "thumbnails", false, "render land-cover and canopy-height thumbnail URLs")
	f.BoolVar(&estJSON, "json", false, "print the result as JSON instead of the summary")
	f.BoolVar(&estExport, "export", false, "write HTML charts and an XLSX workbook")
	f.StringVar(&estOutputDir, "output-dir", "", "export directory (default from report.output_dir)")
	rootCmd.AddCommand(estimateCmd)
}
