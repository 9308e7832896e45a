package carbon

import (
	"sort"

	"github.com/sells-group/forest-carbon/internal/vegetation"
)

// ClassArea is the area covered by one land-cover class inside the boundary.
type ClassArea struct {
	ID           vegetation.ClassID `json:"id"`
	Name         string             `json:"name"`
	AreaHectares float64            `json:"area"`
	Params       vegetation.Class   `json:"params"`
}

// AggregateAreas converts a class histogram (as returned by a remote
// frequency-histogram reduction, keyed by class code) into per-class areas.
// Each count is divided by divisor; a non-positive divisor means 1. Keys
// that do not parse to a known class and zero counts are dropped. The
// result is sorted by area descending, ties by ascending class ID, and the
// returned total is the sum of the included areas.
func AggregateAreas(hist map[string]float64, divisor float64) ([]ClassArea, float64) {
	if divisor <= 0 {
		divisor = 1
	}

	counts := make(map[vegetation.ClassID]float64, len(hist))
	for key, n := range hist {
		id, ok := vegetation.Parse(key)
		if !ok {
			continue
		}
		counts[id] += n
	}

	var areas []ClassArea
	for _, c := range vegetation.All() {
		n, ok := counts[c.ID]
		if !ok || n <= 0 {
			continue
		}
		areas = append(areas, ClassArea{
			ID:           c.ID,
			Name:         c.Name,
			AreaHectares: n / divisor,
			Params:       c,
		})
	}

	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].AreaHectares > areas[j].AreaHectares
	})

	var total float64
	for _, a := range areas {
		total += a.AreaHectares
	}
	return areas, total
}
