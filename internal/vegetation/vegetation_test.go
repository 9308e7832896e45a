package vegetation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_HasElevenClasses(t *testing.T) {
	all := All()
	require.Len(t, all, 11)

	want := []ClassID{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100}
	for i, c := range all {
		assert.Equal(t, want[i], c.ID)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		id   ClassID
		name string
		a    float64
		b    float64
	}{
		{DenseForest, "Dense Forest", 0.0776, 1.58},
		{Shrubland, "Shrubland", 0.0500, 1.35},
		{Grassland, "Grassland", 0.0350, 1.20},
		{Cropland, "Cropland", 0.0250, 1.10},
		{BuiltUp, "Built-up", 0, 0},
		{SparseVegetation, "Sparse Vegetation", 0.0100, 1.00},
		{SnowAndIce, "Snow and Ice", 0, 0},
		{WaterBodies, "Water Bodies", 0, 0},
		{Wetland, "Wetland", 0.0450, 1.25},
		{Mangroves, "Mangroves", 0.0900, 1.65},
		{MossAndLichen, "Moss and Lichen", 0.0200, 1.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Lookup(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.a, c.A)
			assert.Equal(t, tt.b, c.B)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, ok := Lookup(15)
	assert.False(t, ok)
}

func TestHasBiomassModel(t *testing.T) {
	for _, id := range []ClassID{BuiltUp, SnowAndIce, WaterBodies} {
		c, _ := Lookup(id)
		assert.False(t, c.HasBiomassModel(), "class %d", id)
	}
	c, _ := Lookup(DenseForest)
	assert.True(t, c.HasBiomassModel())
}

func TestParse(t *testing.T) {
	tests := []struct {
		key  string
		want ClassID
		ok   bool
	}{
		{"10", DenseForest, true},
		{" 95 ", Mangroves, true},
		{"100.0", MossAndLichen, true},
		{"15", 0, false},
		{"10.5", 0, false},
		{"forest", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.key)
		assert.Equal(t, tt.ok, ok, "key %q", tt.key)
		assert.Equal(t, tt.want, got, "key %q", tt.key)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "mutated"

	c, _ := Lookup(DenseForest)
	assert.Equal(t, "Dense Forest", c.Name)
	assert.Equal(t, "Dense Forest", All()[0].Name)
}

func TestPalette(t *testing.T) {
	p := Palette()
	require.Len(t, p, 11)
	assert.Equal(t, "006400", p[0])
	assert.Equal(t, "FAE6A0", p[10])
}
