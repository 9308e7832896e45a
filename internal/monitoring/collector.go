// Package monitoring watches recorded estimation runs and raises webhook
// alerts when run health degrades.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/store"
)

const maxCollectedRuns = 10000

// MetricsSnapshot holds a point-in-time view of run health.
type MetricsSnapshot struct {
	RunsTotal    int                 `json:"runs_total"`
	RunsComplete int                 `json:"runs_complete"`
	RunsFailed   int                 `json:"runs_failed"`
	RunsActive   int                 `json:"runs_active"`
	FailRate     float64             `json:"fail_rate"`
	StuckRuns    []string            `json:"stuck_runs,omitempty"`
	AuthFailures int                 `json:"auth_failures"`
	ByTier       map[carbon.Tier]int `json:"by_tier"`
	TotalCarbon  float64             `json:"total_carbon"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the slice of store.Store the collector reads from.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers run metrics from the store.
type Collector struct {
	store      RunLister
	stuckAfter time.Duration
	now        func() time.Time
}

// NewCollector creates a collector. Runs that are queued or running and
// have not been updated for stuckAfter are reported as stuck; zero
// disables the check.
func NewCollector(st RunLister, stuckAfter time.Duration) *Collector {
	return &Collector{store: st, stuckAfter: stuckAfter, now: time.Now}
}

// Collect gathers a snapshot over runs created within the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		ByTier:        make(map[carbon.Tier]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        maxCollectedRuns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
			if r.Result != nil {
				snap.ByTier[r.Result.Tier]++
				if r.Result.CarbonData != nil {
					snap.TotalCarbon += r.Result.CarbonData.TotalCarbon
				}
			}
		case model.RunStatusFailed:
			snap.RunsFailed++
			if r.FailureKind == model.FailureUnauthorized {
				snap.AuthFailures++
			}
		case model.RunStatusQueued, model.RunStatusRunning:
			snap.RunsActive++
			if c.stuckAfter > 0 && now.Sub(r.UpdatedAt) >= c.stuckAfter {
				snap.StuckRuns = append(snap.StuckRuns, r.ID)
			}
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	return snap, nil
}
