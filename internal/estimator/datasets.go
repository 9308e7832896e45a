package estimator

import (
	"encoding/json"

	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

// Catalog identifiers.
const (
	datasetSentinel1  = "COPERNICUS/S1_GRD"
	datasetSentinel2  = "COPERNICUS/S2_SR"
	datasetElevation  = "USGS/SRTMGL1_003"
	datasetWorldCover = "ESA/WorldCover/v100"
	datasetGEDI       = "LARSE/GEDI/GEDI02_A_002_MONTHLY"
)

// GEDI canopy heights are drawn from the whole mission record, not the
// request window.
const (
	gediStartDate = "2020-01-01"
	gediEndDate   = "2023-12-31"
)

// Band names.
const (
	bandLandcover = "landcover"
	bandHeight    = "rh98"
	bandPredicted = "predicted"
	columnRandom  = "random"
)

// Predictors are the 14 bands the canopy-height regressor is trained on.
var Predictors = []string{
	"B2", "B3", "B4", "B5", "B6", "B7", "B8", "B11", "B12",
	"VV_iqr", "VH_iqr", "elevation", "slope", bandLandcover,
}

var sentinel2Bands = []string{"B2", "B3", "B4", "B5", "B6", "B7", "B8", "B11", "B12"}

// Dataset indexes into the fan-out of catalog loads.
const (
	idxLandcover = iota
	idxSentinel1
	idxSentinel2
	idxTerrain
	idxGEDI
	numDatasets
)

// datasetRequests lists the five catalog loads, in index order. Every
// layer is clipped to region and reprojected to crs at scale metres.
func datasetRequests(region json.RawMessage, start, end, crs string, scale float64) [numDatasets]geoengine.LoadRequest {
	var reqs [numDatasets]geoengine.LoadRequest

	reqs[idxLandcover] = geoengine.LoadRequest{
		Dataset:   datasetWorldCover,
		Region:    region,
		Composite: &geoengine.Composite{Reducer: "first"},
		Rename:    []string{bandLandcover},
		CRS:       crs,
		PixelSize: scale,
	}

	// Percentiles are taken in dB and converted to linear power before the
	// interquartile ranges are derived.
	reqs[idxSentinel1] = geoengine.LoadRequest{
		Dataset:   datasetSentinel1,
		Region:    region,
		StartDate: start,
		EndDate:   end,
		Filters: map[string]string{
			"transmitterReceiverPolarisation": "VV,VH",
			"instrumentMode":                  "IW",
			"orbitProperties_pass":            "ASCENDING",
		},
		Composite: &geoengine.Composite{Reducer: "percentile", Percentiles: []int{25, 50, 75}},
		Derive:    []string{"db_to_linear", "VV_iqr=VV_p75-VV_p25", "VH_iqr=VH_p75-VH_p25"},
		Select:    []string{"VH_p50", "VV_p50", "VV_iqr", "VH_iqr"},
		CRS:       crs,
		PixelSize: scale,
	}

	reqs[idxSentinel2] = geoengine.LoadRequest{
		Dataset:   datasetSentinel2,
		Region:    region,
		StartDate: start,
		EndDate:   end,
		CloudMax:  20,
		Mask:      "QA60",
		Scale:     1.0 / 10000,
		Select:    sentinel2Bands,
		Composite: &geoengine.Composite{Reducer: "median"},
		CRS:       crs,
		PixelSize: scale,
	}

	reqs[idxTerrain] = geoengine.LoadRequest{
		Dataset:   datasetElevation,
		Region:    region,
		Rename:    []string{"elevation"},
		Derive:    []string{"slope"},
		CRS:       crs,
		PixelSize: scale,
	}

	reqs[idxGEDI] = geoengine.LoadRequest{
		Dataset:   datasetGEDI,
		Region:    region,
		StartDate: gediStartDate,
		EndDate:   gediEndDate,
		Mask:      "quality_flag",
		Select:    []string{bandHeight},
		Composite: &geoengine.Composite{Reducer: "mosaic"},
	}

	return reqs
}
