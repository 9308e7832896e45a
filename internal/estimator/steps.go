package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/sample"
	"github.com/sells-group/forest-carbon/internal/vegetation"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

const (
	maxPixelsRegion = 1e13
	maxPixelsClass  = 1e9
	thumbnailSize   = 1000
)

// CanopyPalette colours predicted canopy height from 0 m (white) to the
// tallest stands (deep green).
var CanopyPalette = []string{
	"FFFFFF", "CE7E45", "DF923D", "F1B555", "FCD163", "99B718",
	"74A901", "66A000", "529400", "3E8601", "207401",
}

func (e *Estimator) limit() int {
	if e.cfg.MaxConcurrency > 0 {
		return e.cfg.MaxConcurrency
	}
	return 8
}

func (e *Estimator) loadDatasets(ctx context.Context, region json.RawMessage, s settings) ([numDatasets]*geoengine.Raster, error) {
	var out [numDatasets]*geoengine.Raster
	reqs := datasetRequests(region, s.startDate, s.endDate, s.crs, s.scale)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())
	for i, req := range reqs {
		g.Go(func() error {
			r, err := e.client.LoadRaster(gCtx, req)
			if err != nil {
				return eris.Wrapf(err, "estimator: load %s", req.Dataset)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func (e *Estimator) vegetationAreas(ctx context.Context, landcover *geoengine.Raster, region json.RawMessage, s settings) ([]carbon.ClassArea, error) {
	req := reduceRequest(landcover.ID, bandLandcover, geoengine.ReducerFrequencyHistogram, region, s, maxPixelsRegion)
	res, err := e.client.ReduceRegion(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "estimator: landcover histogram")
	}

	var hist map[string]float64
	if res != nil {
		hist = res.Histogram
	}

	areas, total := carbon.AggregateAreas(hist, e.divisor)
	if len(areas) == 0 || total <= 0 {
		return nil, eris.Wrap(carbon.ErrInsufficientData, "estimator: no classified land cover inside boundary")
	}
	return areas, nil
}

// samplePoints draws the stratified reference sample from the GEDI heights
// stacked on land cover, then partitions it locally on the random column.
func (e *Estimator) samplePoints(ctx context.Context, gedi, landcover *geoengine.Raster, region json.RawMessage, s settings) (sample.Set, error) {
	stacked, err := e.client.Combine(ctx, []string{gedi.ID, landcover.ID})
	if err != nil {
		return sample.Set{}, eris.Wrap(err, "estimator: stack reference heights")
	}

	features, err := e.client.StratifiedSample(ctx, geoengine.StratifiedSampleRequest{
		Raster:       stacked.ID,
		ClassBand:    bandLandcover,
		NumPoints:    s.numSamples,
		Region:       region,
		Scale:        s.scale,
		Seed:         int64(e.cfg.SampleSeed),
		RandomColumn: columnRandom,
		RandomSeed:   int64(e.cfg.RandomSeed),
	})
	if err != nil {
		return sample.Set{}, eris.Wrap(err, "estimator: stratified sample")
	}

	set := sample.Split(toPoints(features), s.splitRatio)
	if len(set.Training) == 0 {
		return set, eris.Wrap(carbon.ErrInsufficientData, "estimator: no training points")
	}
	if len(set.Validation) == 0 {
		return set, eris.Wrap(carbon.ErrInsufficientData, "estimator: no validation points")
	}
	return set, nil
}

func (e *Estimator) train(ctx context.Context, merged *geoengine.Raster, set sample.Set, s settings) (*geoengine.Regressor, error) {
	training, err := e.client.SampleRegions(ctx, geoengine.SampleRegionsRequest{
		Raster:     merged.ID,
		Points:     toFeatures(set.Training),
		Scale:      s.scale,
		Properties: []string{bandHeight},
	})
	if err != nil {
		return nil, eris.Wrap(err, "estimator: sample predictors")
	}
	if len(training) == 0 {
		return nil, eris.Wrap(carbon.ErrInsufficientData, "estimator: no predictor values at training points")
	}

	reg, err := e.client.TrainRegressor(ctx, geoengine.TrainRequest{
		Features:   training,
		Target:     bandHeight,
		Predictors: Predictors,
		NumTrees:   e.cfg.TreeCount,
		Mode:       regressionMode,
	})
	if err != nil {
		return nil, eris.Wrap(err, "estimator: train regressor")
	}
	return reg, nil
}

// accuracy samples the predicted heights at both partitions concurrently
// and evaluates them against the reference heights.
func (e *Estimator) accuracy(ctx context.Context, predicted *geoengine.Raster, set sample.Set, s settings) (carbon.AccuracyMetrics, error) {
	parts := [2][]sample.Point{set.Training, set.Validation}
	var pairs [2][]sample.Pair

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())
	for i, pts := range parts {
		g.Go(func() error {
			fs, err := e.client.SampleRegions(gCtx, geoengine.SampleRegionsRequest{
				Raster:     predicted.ID,
				Points:     toFeatures(pts),
				Scale:      s.scale,
				Properties: []string{bandHeight},
			})
			if err != nil {
				return eris.Wrap(err, "estimator: sample predictions")
			}
			pairs[i] = toPairs(fs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return carbon.AccuracyMetrics{}, err
	}
	return carbon.Evaluate(pairs[0], pairs[1])
}

func (e *Estimator) regressionStats(ctx context.Context, predicted *geoengine.Raster, region json.RawMessage, s settings) (model.RegressionStats, error) {
	reducers := [3]geoengine.Reducer{geoengine.ReducerMin, geoengine.ReducerMax, geoengine.ReducerMean}
	var vals [3]float64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())
	for i, r := range reducers {
		g.Go(func() error {
			v, err := e.reduce(gCtx, reduceRequest(predicted.ID, bandPredicted, r, region, s, maxPixelsRegion))
			if err != nil {
				return err
			}
			vals[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.RegressionStats{}, err
	}
	return model.RegressionStats{Min: vals[0], Max: vals[1], Mean: vals[2]}, nil
}

// classHeights reduces the predicted height to a mean and standard
// deviation within each present land-cover class. Every reduction is an
// independent request, so all of them share one bounded group.
func (e *Estimator) classHeights(ctx context.Context, predicted, landcover *geoengine.Raster, areas []carbon.ClassArea, region json.RawMessage, s settings) (map[vegetation.ClassID]carbon.HeightStats, error) {
	means := make([]float64, len(areas))
	sds := make([]float64, len(areas))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit())
	for i, a := range areas {
		req := reduceRequest(predicted.ID, bandPredicted, geoengine.ReducerMean, region, s, maxPixelsClass)
		req.Mask = &geoengine.ClassMask{Raster: landcover.ID, Band: bandLandcover, Value: int(a.ID)}
		g.Go(func() error {
			v, err := e.reduce(gCtx, req)
			if err != nil {
				return eris.Wrapf(err, "estimator: class %d mean height", a.ID)
			}
			means[i] = v
			return nil
		})

		sdReq := req
		sdReq.Reducer = geoengine.ReducerStdDev
		g.Go(func() error {
			v, err := e.reduce(gCtx, sdReq)
			if err != nil {
				return eris.Wrapf(err, "estimator: class %d height spread", a.ID)
			}
			sds[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[vegetation.ClassID]carbon.HeightStats, len(areas))
	for i, a := range areas {
		out[a.ID] = carbon.HeightStats{Mean: means[i], StdDev: sds[i]}
	}
	return out, nil
}

// thumbnails renders the preview URLs. Failures are logged and leave the
// corresponding URL empty.
func (e *Estimator) thumbnails(ctx context.Context, log *zap.Logger, landcover, predicted *geoengine.Raster, region json.RawMessage) *model.Thumbnails {
	reqs := [2]geoengine.ThumbnailRequest{
		{
			Raster: landcover.ID, Band: bandLandcover, Region: region,
			Min: float64(vegetation.DenseForest), Max: float64(vegetation.MossAndLichen),
			Palette: vegetation.Palette(), Dimensions: thumbnailSize,
		},
		{
			Raster: predicted.ID, Band: bandPredicted, Region: region,
			Min: 0, Max: 30,
			Palette: CanopyPalette, Dimensions: thumbnailSize,
		},
	}
	var urls [2]string

	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			u, err := e.client.ThumbnailURL(ctx, req)
			if err != nil {
				log.Warn("estimator: thumbnail failed", zap.String("band", req.Band), zap.Error(err))
				return nil
			}
			urls[i] = u
			return nil
		})
	}
	_ = g.Wait()

	return &model.Thumbnails{Landcover: urls[0], CanopyHeight: urls[1]}
}

// toPoints keeps the sampled features that carry a reference height, a
// land-cover class and a random key.
func toPoints(fs []geoengine.Feature) []sample.Point {
	points := make([]sample.Point, 0, len(fs))
	for i, f := range fs {
		h, ok := finite(f.Properties, bandHeight)
		if !ok {
			continue
		}
		r, ok := finite(f.Properties, columnRandom)
		if !ok {
			continue
		}
		lc, _ := finite(f.Properties, bandLandcover)

		id := f.ID
		if id == "" {
			id = fmt.Sprintf("pt-%d", i)
		}
		points = append(points, sample.Point{
			ID:              id,
			Lon:             f.Lon,
			Lat:             f.Lat,
			ReferenceHeight: h,
			ClassID:         vegetation.ClassID(lc),
			Random:          r,
		})
	}
	return points
}

func toFeatures(points []sample.Point) []geoengine.Feature {
	fs := make([]geoengine.Feature, len(points))
	for i, p := range points {
		fs[i] = geoengine.Feature{
			ID:  p.ID,
			Lon: p.Lon,
			Lat: p.Lat,
			Properties: map[string]float64{
				bandHeight:    p.ReferenceHeight,
				bandLandcover: float64(p.ClassID),
				columnRandom:  p.Random,
			},
		}
	}
	return fs
}

// toPairs pairs reference and predicted heights, skipping points the
// prediction did not cover.
func toPairs(fs []geoengine.Feature) []sample.Pair {
	pairs := make([]sample.Pair, 0, len(fs))
	for _, f := range fs {
		ref, ok := finite(f.Properties, bandHeight)
		if !ok {
			continue
		}
		pred, ok := finite(f.Properties, bandPredicted)
		if !ok {
			continue
		}
		pairs = append(pairs, sample.Pair{Reference: ref, Predicted: pred})
	}
	return pairs
}

// finite reads a band value, treating absent, NaN and infinite values as
// missing.
func finite(props geoengine.Bands, key string) (float64, bool) {
	v, ok := props[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
