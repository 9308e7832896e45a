package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forest-carbon/internal/vegetation"
)

func TestAggregateAreas_SortedAndTotal(t *testing.T) {
	hist := map[string]float64{"10": 500, "30": 300, "50": 200}

	areas, total := AggregateAreas(hist, 1)

	require.Len(t, areas, 3)
	assert.Equal(t, vegetation.DenseForest, areas[0].ID)
	assert.Equal(t, vegetation.Grassland, areas[1].ID)
	assert.Equal(t, vegetation.BuiltUp, areas[2].ID)
	assert.Equal(t, "Built-up", areas[2].Name)
	assert.Equal(t, 0.0, areas[2].Params.A, "zero-coefficient classes still count toward area")

	var sum float64
	for _, a := range areas {
		sum += a.AreaHectares
	}
	assert.Equal(t, sum, total)
	assert.Equal(t, 1000.0, total)
}

func TestAggregateAreas_DropsUnknownAndZero(t *testing.T) {
	hist := map[string]float64{"10": 5, "15": 100, "x": 3, "80": 0, "95.0": 7}

	areas, total := AggregateAreas(hist, 1)

	require.Len(t, areas, 2)
	assert.Equal(t, vegetation.Mangroves, areas[0].ID)
	assert.Equal(t, vegetation.DenseForest, areas[1].ID)
	assert.Equal(t, 12.0, total)
}

func TestAggregateAreas_TiesByID(t *testing.T) {
	areas, _ := AggregateAreas(map[string]float64{"90": 4, "20": 4, "60": 4}, 1)

	require.Len(t, areas, 3)
	assert.Equal(t, vegetation.Shrubland, areas[0].ID)
	assert.Equal(t, vegetation.SparseVegetation, areas[1].ID)
	assert.Equal(t, vegetation.Wetland, areas[2].ID)
}

func TestAggregateAreas_Divisor(t *testing.T) {
	tests := []struct {
		name    string
		divisor float64
		want    float64
	}{
		{"one", 1, 900},
		{"pixels per hectare", 9, 100},
		{"zero means one", 0, 900},
		{"negative means one", -3, 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			areas, total := AggregateAreas(map[string]float64{"10": 900}, tt.divisor)
			require.Len(t, areas, 1)
			assert.Equal(t, tt.want, areas[0].AreaHectares)
			assert.Equal(t, tt.want, total)
		})
	}
}

func TestAggregateAreas_Empty(t *testing.T) {
	areas, total := AggregateAreas(nil, 1)
	assert.Empty(t, areas)
	assert.Equal(t, 0.0, total)
}
