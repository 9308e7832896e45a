// Package sample models the stratified reference sample drawn from the
// lidar canopy-height dataset and its training/validation partition.
package sample

import "github.com/sells-group/forest-carbon/internal/vegetation"

// Point is one stratified sample location. Random is the per-point
// fractional key in [0, 1) that decides its partition.
type Point struct {
	ID              string             `json:"id"`
	Lon             float64            `json:"lon"`
	Lat             float64            `json:"lat"`
	ReferenceHeight float64            `json:"reference_height"`
	ClassID         vegetation.ClassID `json:"class_id"`
	Random          float64            `json:"random"`
}

// Pair couples a reference canopy height with the model prediction at the
// same location.
type Pair struct {
	Reference float64 `json:"reference"`
	Predicted float64 `json:"predicted"`
}

// Set is a partitioned sample.
type Set struct {
	Training   []Point `json:"training"`
	Validation []Point `json:"validation"`
}

// Split partitions points by their random key: Random < ratio goes to
// training, everything else to validation. Order within each side follows
// the input order.
func Split(points []Point, ratio float64) Set {
	var s Set
	for _, p := range points {
		if p.Random < ratio {
			s.Training = append(s.Training, p)
		} else {
			s.Validation = append(s.Validation, p)
		}
	}
	return s
}

// Size returns the total number of points across both partitions.
func (s Set) Size() int {
	return len(s.Training) + len(s.Validation)
}
