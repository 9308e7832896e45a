package carbon

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/forest-carbon/internal/sample"
)

// AccuracyMetrics summarizes how well the canopy-height regression fits the
// lidar reference heights.
type AccuracyMetrics struct {
	TrainingRMSE   float64 `json:"trainingRMSE"`
	ValidationRMSE float64 `json:"validationRMSE"`
	RSquared       float64 `json:"rSquared"`
}

func columns(pairs []sample.Pair) (ref, pred []float64) {
	ref = make([]float64, len(pairs))
	pred = make([]float64, len(pairs))
	for i, p := range pairs {
		ref[i] = p.Reference
		pred[i] = p.Predicted
	}
	return ref, pred
}

// RMSE returns the root-mean-squared error between reference and predicted
// heights. It is NaN for an empty set.
func RMSE(pairs []sample.Pair) float64 {
	if len(pairs) == 0 {
		return math.NaN()
	}
	ref, pred := columns(pairs)
	resid := floats.SubTo(make([]float64, len(ref)), ref, pred)
	return math.Sqrt(floats.Dot(resid, resid) / float64(len(resid)))
}

// RSquared returns the coefficient of determination over pairs, using the
// set's own mean reference height. When every reference value is identical
// the total sum of squares is zero and the result is 0 by convention. It is
// NaN for an empty set.
func RSquared(pairs []sample.Pair) float64 {
	if len(pairs) == 0 {
		return math.NaN()
	}
	ref, pred := columns(pairs)
	if floats.Min(ref) == floats.Max(ref) {
		return 0
	}

	resid := floats.SubTo(make([]float64, len(ref)), ref, pred)
	ssRes := floats.Dot(resid, resid)

	mean := stat.Mean(ref, nil)
	dev := make([]float64, len(ref))
	copy(dev, ref)
	floats.AddConst(-mean, dev)
	ssTot := floats.Dot(dev, dev)
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluate computes training RMSE, validation RMSE, and validation R².
// Either partition being empty is reported as ErrInsufficientData.
func Evaluate(training, validation []sample.Pair) (AccuracyMetrics, error) {
	if len(training) == 0 {
		return AccuracyMetrics{}, eris.Wrap(ErrInsufficientData, "carbon: empty training sample")
	}
	if len(validation) == 0 {
		return AccuracyMetrics{}, eris.Wrap(ErrInsufficientData, "carbon: empty validation sample")
	}
	return AccuracyMetrics{
		TrainingRMSE:   RMSE(training),
		ValidationRMSE: RMSE(validation),
		RSquared:       RSquared(validation),
	}, nil
}
