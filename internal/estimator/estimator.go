// Package estimator runs the forest carbon estimation pipeline: it drives
// the remote engine through dataset loading, sampling, regression and
// reduction, then computes areas, accuracy, carbon stocks and the tier
// locally.
package estimator

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/internal/events"
	"github.com/sells-group/forest-carbon/internal/geo"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/sample"
	"github.com/sells-group/forest-carbon/internal/store"
	"github.com/sells-group/forest-carbon/internal/vegetation"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

// Request is an estimation request.
type Request = model.Request

// ErrInvalidRequest reports options that cannot be run.
var ErrInvalidRequest = eris.New("estimator: invalid request")

const regressionMode = "REGRESSION"

// KeySource supplies the current service-account key.
type KeySource interface {
	Key() *geoengine.ServiceAccountKey
}

// Estimator runs estimations. It is safe for concurrent use.
type Estimator struct {
	client    geoengine.Client
	keys      KeySource
	cfg       config.EstimatorConfig
	divisor   float64
	store     store.Store
	publisher events.Publisher

	publishTimeout time.Duration
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithStore records runs in st. The default is an in-memory store.
func WithStore(st store.Store) Option {
	return func(e *Estimator) {
		e.store = st
	}
}

// WithPublisher publishes run events to p.
func WithPublisher(p events.Publisher) Option {
	return func(e *Estimator) {
		e.publisher = p
	}
}

// WithPublishTimeout bounds how long a run waits for its event to be
// delivered. A non-positive d keeps the default.
func WithPublishTimeout(d time.Duration) Option {
	return func(e *Estimator) {
		if d > 0 {
			e.publishTimeout = d
		}
	}
}

// New creates an Estimator.
func New(client geoengine.Client, keys KeySource, cfg *config.Config, opts ...Option) *Estimator {
	e := &Estimator{
		client:    client,
		keys:      keys,
		cfg:       cfg.Estimator,
		divisor:   cfg.Carbon.PixelAreaDivisor,
		store:     store.NewMemory(),
		publisher: events.Nop{},

		publishTimeout: defaultPublishTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// settings is a request's options merged over the configured defaults.
type settings struct {
	startDate  string
	endDate    string
	numSamples int
	splitRatio float64
	thumbnails bool
	scale      float64
	crs        string
}

func (e *Estimator) settings(o model.Options) (settings, error) {
	s := settings{
		startDate:  e.cfg.StartDate,
		endDate:    e.cfg.EndDate,
		numSamples: e.cfg.NumSamples,
		splitRatio: e.cfg.SplitRatio,
		thumbnails: o.Thumbnails,
		scale:      float64(e.cfg.Scale),
		crs:        e.cfg.CRS,
	}
	if o.StartDate != "" {
		s.startDate = o.StartDate
	}
	if o.EndDate != "" {
		s.endDate = o.EndDate
	}
	if o.NumSamples != 0 {
		s.numSamples = o.NumSamples
	}
	if o.SplitRatio != 0 {
		s.splitRatio = o.SplitRatio
	}

	start, err := time.Parse(time.DateOnly, s.startDate)
	if err != nil {
		return s, eris.Wrapf(ErrInvalidRequest, "estimator: start date %q: %v", s.startDate, err)
	}
	end, err := time.Parse(time.DateOnly, s.endDate)
	if err != nil {
		return s, eris.Wrapf(ErrInvalidRequest, "estimator: end date %q: %v", s.endDate, err)
	}
	if !end.After(start) {
		return s, eris.Wrapf(ErrInvalidRequest, "estimator: end date %s is not after start date %s", s.endDate, s.startDate)
	}
	if s.numSamples <= 0 {
		return s, eris.Wrapf(ErrInvalidRequest, "estimator: numSamples must be positive, got %d", s.numSamples)
	}
	if s.splitRatio <= 0 || s.splitRatio >= 1 {
		return s, eris.Wrapf(ErrInvalidRequest, "estimator: splitRatio must be in (0, 1), got %g", s.splitRatio)
	}
	if s.scale <= 0 {
		s.scale = 30
	}
	return s, nil
}

func (e *Estimator) key() *geoengine.ServiceAccountKey {
	if e.keys == nil {
		return nil
	}
	return e.keys.Key()
}

// phase runs one pipeline step and logs its outcome and duration.
func phase[T any](log *zap.Logger, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		log.Error("estimator: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return v, err
	}
	log.Info("estimator: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", duration),
	)
	return v, nil
}

// Run performs one estimation. Any engine failure aborts the run and no
// partial result is returned.
func (e *Estimator) Run(ctx context.Context, req Request) (*model.Result, error) {
	s, err := e.settings(req.Options)
	if err != nil {
		return nil, err
	}

	boundary, err := geo.NewBoundary(req.Coordinates)
	if err != nil {
		return nil, err
	}
	region, err := boundary.Geometry()
	if err != nil {
		return nil, err
	}

	if e.cfg.RunTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.RunTimeoutSecs)*time.Second)
		defer cancel()
	}

	log := zap.L().With(
		zap.Float64("approx_ha", boundary.ApproxHectares()),
		zap.String("start_date", s.startDate),
		zap.String("end_date", s.endDate),
		zap.Int("num_samples", s.numSamples),
	)
	log.Info("estimator: starting run")
	started := time.Now()

	if _, err := phase(log, "authenticate", func() (*geoengine.Session, error) {
		return e.client.Authenticate(ctx, e.key())
	}); err != nil {
		return nil, eris.Wrap(err, "estimator: authenticate")
	}

	ds, err := phase(log, "load_datasets", func() ([numDatasets]*geoengine.Raster, error) {
		return e.loadDatasets(ctx, region, s)
	})
	if err != nil {
		return nil, err
	}
	landcover := ds[idxLandcover]

	areas, err := phase(log, "vegetation_areas", func() ([]carbon.ClassArea, error) {
		return e.vegetationAreas(ctx, landcover, region, s)
	})
	if err != nil {
		return nil, err
	}
	var totalArea float64
	for _, a := range areas {
		totalArea += a.AreaHectares
	}

	set, err := phase(log, "sample", func() (sample.Set, error) {
		return e.samplePoints(ctx, ds[idxGEDI], landcover, region, s)
	})
	if err != nil {
		return nil, err
	}

	merged, err := phase(log, "merge_predictors", func() (*geoengine.Raster, error) {
		return e.client.Combine(ctx, []string{
			ds[idxSentinel2].ID, ds[idxSentinel1].ID, ds[idxTerrain].ID, landcover.ID,
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "estimator: merge predictors")
	}

	regressor, err := phase(log, "train", func() (*geoengine.Regressor, error) {
		return e.train(ctx, merged, set, s)
	})
	if err != nil {
		return nil, err
	}

	predicted, err := phase(log, "classify", func() (*geoengine.Raster, error) {
		return e.client.Classify(ctx, geoengine.ClassifyRequest{
			Raster:     merged.ID,
			Regressor:  regressor.ID,
			OutputBand: bandPredicted,
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "estimator: classify")
	}

	metrics, err := phase(log, "accuracy", func() (carbon.AccuracyMetrics, error) {
		return e.accuracy(ctx, predicted, set, s)
	})
	if err != nil {
		return nil, err
	}

	stats, err := phase(log, "regression_stats", func() (model.RegressionStats, error) {
		return e.regressionStats(ctx, predicted, region, s)
	})
	if err != nil {
		return nil, err
	}

	heights, err := phase(log, "class_heights", func() (map[vegetation.ClassID]carbon.HeightStats, error) {
		return e.classHeights(ctx, predicted, landcover, areas, region, s)
	})
	if err != nil {
		return nil, err
	}

	report, err := carbon.Calculate(areas, totalArea, heights)
	if err != nil {
		return nil, err
	}
	tierIn, err := carbon.TierInputsFrom(report, stats.Mean)
	if err != nil {
		return nil, err
	}

	feature, err := boundary.GeoJSON(nil)
	if err != nil {
		return nil, err
	}

	result := &model.Result{
		Boundary:             feature,
		VegetationAreas:      areas,
		RegressionStats:      stats,
		Metrics:              metrics,
		TrainingSampleSize:   len(set.Training),
		ValidationSampleSize: len(set.Validation),
		CarbonData:           report,
		Tier:                 carbon.ClassifyTier(tierIn),
		TierInputs:           tierIn,
	}

	if s.thumbnails {
		result.Thumbnails = e.thumbnails(ctx, log, landcover, predicted, region)
	}

	log.Info("estimator: run complete",
		zap.String("tier", string(result.Tier)),
		zap.Float64("total_area_ha", report.TotalArea),
		zap.Float64("total_carbon", report.TotalCarbon),
		zap.Float64("validation_rmse", metrics.ValidationRMSE),
		zap.Float64("r_squared", metrics.RSquared),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// reduce runs a single-band reduction and returns its scalar. A region with
// no unmasked pixels reduces to 0.
func (e *Estimator) reduce(ctx context.Context, req geoengine.ReduceRequest) (float64, error) {
	res, err := e.client.ReduceRegion(ctx, req)
	if err != nil {
		return 0, eris.Wrapf(err, "estimator: reduce %s %s", req.Band, req.Reducer)
	}
	if res == nil || res.Value == nil || math.IsNaN(*res.Value) || math.IsInf(*res.Value, 0) {
		return 0, nil
	}
	return *res.Value, nil
}

func reduceRequest(raster, band string, r geoengine.Reducer, region json.RawMessage, s settings, maxPixels float64) geoengine.ReduceRequest {
	return geoengine.ReduceRequest{
		Raster:    raster,
		Band:      band,
		Reducer:   r,
		Region:    region,
		Scale:     s.scale,
		CRS:       s.crs,
		MaxPixels: maxPixels,
	}
}
