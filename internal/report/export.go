package report

import (
	"path/filepath"

	"github.com/sells-group/forest-carbon/internal/model"
)

// Files are the paths written by Export.
type Files struct {
	Charts   string
	Workbook string
}

// Export writes the charts page and the workbook for res into dir, named
// after the run ID.
func Export(dir string, res *model.Result) (Files, error) {
	name := "estimate"
	if res != nil && res.RunID != "" {
		name = "estimate-" + res.RunID
	}
	files := Files{
		Charts:   filepath.Join(dir, name+".html"),
		Workbook: filepath.Join(dir, name+".xlsx"),
	}

	if err := WriteCharts(files.Charts, res); err != nil {
		return Files{}, err
	}
	if err := WriteXLSX(files.Workbook, res); err != nil {
		return Files{}, err
	}
	return files, nil
}
