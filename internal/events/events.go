// Package events publishes run lifecycle events to Kafka.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/internal/model"
)

// Type names an event.
type Type string

// Event types.
const (
	RunCompleted Type = "run.completed"
	RunFailed    Type = "run.failed"
)

// Event is the payload written for a finished run.
type Event struct {
	ID          string      `json:"id"`
	Type        Type        `json:"type"`
	RunID       string      `json:"runId"`
	Source      string      `json:"source"`
	Tier        carbon.Tier `json:"tier,omitempty"`
	TotalArea   float64     `json:"totalArea,omitempty"`
	TotalCarbon float64     `json:"totalCarbon,omitempty"`
	TotalCO2    float64     `json:"totalCO2,omitempty"`
	Error       string      `json:"error,omitempty"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Completed builds the event for a run that produced a result.
func Completed(run *model.Run) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       RunCompleted,
		RunID:      run.ID,
		Source:     run.Source,
		OccurredAt: time.Now().UTC(),
	}
	if r := run.Result; r != nil {
		e.Tier = r.Tier
		if r.CarbonData != nil {
			e.TotalArea = r.CarbonData.TotalArea
			e.TotalCarbon = r.CarbonData.TotalCarbon
			e.TotalCO2 = r.CarbonData.TotalCO2Equivalent
		}
	}
	return e
}

// Failed builds the event for a run that aborted.
func Failed(run *model.Run, reason string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       RunFailed,
		RunID:      run.ID,
		Source:     run.Source,
		Error:      reason,
		OccurredAt: time.Now().UTC(),
	}
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() {}

// New returns a Kafka publisher, or Nop when no bootstrap servers are set.
func New(cfg config.KafkaConfig) (Publisher, error) {
	if cfg.BootstrapServers == "" {
		return Nop{}, nil
	}
	return NewKafka(cfg)
}
