// Package store persists estimation runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/model"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Tier   carbon.Tier     `json:"tier,omitempty"`
	Source string          `json:"source,omitempty"`
	// CreatedAfter keeps runs created at or after this instant.
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

const defaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store records estimation runs.
type Store interface {
	CreateRun(ctx context.Context, req model.Request, source string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	// CompleteRun stores the result, marks the run complete and records the
	// per-class breakdown.
	CompleteRun(ctx context.Context, runID string, result *model.Result) error
	FailRun(ctx context.Context, runID string, kind model.FailureKind, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// classColumns are the columns of the per-class breakdown table.
var classColumns = []string{"run_id", "class_id", "name", "area_ha", "carbon_stock", "annual_sequestration", "co2_equivalent"}

func classRows(runID string, result *model.Result) [][]any {
	if result == nil || result.CarbonData == nil {
		return nil
	}
	rows := make([][]any, 0, len(result.CarbonData.Records))
	for _, rec := range result.CarbonData.Records {
		rows = append(rows, []any{
			runID, int(rec.ID), rec.Name, rec.AreaHectares,
			rec.CarbonStock, rec.AnnualSequestration, rec.CO2Equivalent,
		})
	}
	return rows
}
