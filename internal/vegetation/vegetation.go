// Package vegetation holds the static land-cover class table with the
// allometric coefficients used to turn canopy height into biomass.
package vegetation

import (
	"strconv"
	"strings"
)

// ClassID is an ESA WorldCover land-cover code.
type ClassID int

// Land-cover codes present in the table.
const (
	DenseForest      ClassID = 10
	Shrubland        ClassID = 20
	Grassland        ClassID = 30
	Cropland         ClassID = 40
	BuiltUp          ClassID = 50
	SparseVegetation ClassID = 60
	SnowAndIce       ClassID = 70
	WaterBodies      ClassID = 80
	Wetland          ClassID = 90
	Mangroves        ClassID = 95
	MossAndLichen    ClassID = 100
)

// Class describes one land-cover class. A and B parameterize the power-law
// biomass model biomass = height^B * A. A=0, B=0 means the class has no
// biomass model and contributes zero biomass.
type Class struct {
	ID                ClassID `json:"id"`
	Name              string  `json:"name"`
	A                 float64 `json:"a"`
	B                 float64 `json:"b"`
	SequestrationRate float64 `json:"sequestration_rate"`
	Color             string  `json:"color"`
}

// HasBiomassModel reports whether the class carries non-zero coefficients.
func (c Class) HasBiomassModel() bool {
	return c.A != 0 || c.B != 0
}

// table is ordered by ascending ID.
var table = []Class{
	{ID: DenseForest, Name: "Dense Forest", A: 0.0776, B: 1.58, SequestrationRate: 0.025, Color: "006400"},
	{ID: Shrubland, Name: "Shrubland", A: 0.0500, B: 1.35, SequestrationRate: 0.020, Color: "FFBB22"},
	{ID: Grassland, Name: "Grassland", A: 0.0350, B: 1.20, SequestrationRate: 0.015, Color: "FFFF4C"},
	{ID: Cropland, Name: "Cropland", A: 0.0250, B: 1.10, SequestrationRate: 0.010, Color: "F096FF"},
	{ID: BuiltUp, Name: "Built-up", Color: "FA0000"},
	{ID: SparseVegetation, Name: "Sparse Vegetation", A: 0.0100, B: 1.00, SequestrationRate: 0.010, Color: "B4B4B4"},
	{ID: SnowAndIce, Name: "Snow and Ice", Color: "F0F0F0"},
	{ID: WaterBodies, Name: "Water Bodies", Color: "0064C8"},
	{ID: Wetland, Name: "Wetland", A: 0.0450, B: 1.25, SequestrationRate: 0.030, Color: "0096A0"},
	{ID: Mangroves, Name: "Mangroves", A: 0.0900, B: 1.65, SequestrationRate: 0.035, Color: "00CF75"},
	{ID: MossAndLichen, Name: "Moss and Lichen", A: 0.0200, B: 1.05, SequestrationRate: 0.010, Color: "FAE6A0"},
}

var byID = func() map[ClassID]Class {
	m := make(map[ClassID]Class, len(table))
	for _, c := range table {
		m[c.ID] = c
	}
	return m
}()

// Lookup returns the class for id.
func Lookup(id ClassID) (Class, bool) {
	c, ok := byID[id]
	return c, ok
}

// All returns a copy of the table in ascending ID order.
func All() []Class {
	out := make([]Class, len(table))
	copy(out, table)
	return out
}

// Parse converts a loosely typed histogram key ("10", "10.0", " 95 ") into
// a known ClassID.
func Parse(key string) (ClassID, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(key, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	id := ClassID(int(f))
	if _, ok := byID[id]; !ok {
		return 0, false
	}
	return id, true
}

// Palette returns the landcover display colours in table order.
func Palette() []string {
	out := make([]string, len(table))
	for i, c := range table {
		out[i] = c.Color
	}
	return out
}
