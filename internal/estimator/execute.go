package estimator

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/events"
	"github.com/sells-group/forest-carbon/internal/geo"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/resilience"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

const defaultPublishTimeout = 10 * time.Second

// Execute records a run for req, performs it, and stores the outcome. The
// returned run carries the result on success; on failure it is returned
// alongside the error with its reason set.
func (e *Estimator) Execute(ctx context.Context, req Request, source string) (*model.Run, error) {
	run, err := e.store.CreateRun(ctx, req, source)
	if err != nil {
		return nil, eris.Wrap(err, "estimator: create run")
	}

	log := zap.L().With(zap.String("run_id", run.ID), zap.String("source", source))
	if err := e.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		log.Warn("estimator: failed to update status", zap.Error(err))
	}
	run.Status = model.RunStatusRunning

	// Recording the outcome must survive a cancelled request context.
	bg := context.WithoutCancel(ctx)

	result, runErr := e.Run(ctx, req)
	if runErr != nil {
		run.Status = model.RunStatusFailed
		run.Error = runErr.Error()
		run.FailureKind = failureKind(runErr)
		if err := e.store.FailRun(bg, run.ID, run.FailureKind, run.Error); err != nil {
			log.Warn("estimator: failed to record failure", zap.Error(err))
		}
		e.publish(bg, log, events.Failed(run, run.Error))
		return run, runErr
	}

	result.RunID = run.ID
	run.Status = model.RunStatusComplete
	run.Result = result
	if err := e.store.CompleteRun(bg, run.ID, result); err != nil {
		log.Error("estimator: failed to store result", zap.Error(err))
	}
	e.publish(bg, log, events.Completed(run))
	return run, nil
}

// failureKind classifies a run error by the sentinels in its chain.
func failureKind(err error) model.FailureKind {
	switch {
	case errors.Is(err, geoengine.ErrUnauthorized):
		return model.FailureUnauthorized
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, geo.ErrInvalidBoundary):
		return model.FailureInvalidRequest
	case errors.Is(err, carbon.ErrInsufficientData):
		return model.FailureInsufficientData
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, context.DeadlineExceeded),
		resilience.IsTransient(err):
		return model.FailureUnavailable
	default:
		return model.FailureInternal
	}
}

// publish sends ev, giving up after the publish timeout. The run outcome is
// already stored, so a stalled broker only costs the event.
func (e *Estimator) publish(ctx context.Context, log *zap.Logger, ev events.Event) {
	ctx, cancel := context.WithTimeout(ctx, e.publishTimeout)
	defer cancel()
	if err := e.publisher.Publish(ctx, ev); err != nil {
		log.Warn("estimator: failed to publish event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// LoadRequestFile reads a request from a YAML file.
func LoadRequestFile(path string) (Request, error) {
	var req Request
	data, err := os.ReadFile(path)
	if err != nil {
		return req, eris.Wrapf(err, "estimator: read request file %s", path)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, eris.Wrapf(ErrInvalidRequest, "estimator: parse request file %s: %v", path, err)
	}
	return req, nil
}
