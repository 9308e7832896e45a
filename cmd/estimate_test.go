//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/internal/geo"
	"github.com/sells-group/forest-carbon/internal/model"
	"github.com/sells-group/forest-carbon/internal/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuildRequest_Empty(t *testing.T) {
	req, err := buildRequest(estimateFlags{})
	require.NoError(t, err)
	assert.Empty(t, req.Coordinates)
	assert.Equal(t, model.Options{}, req.Options)
}

func TestBuildRequest_FlagsOverrideRequestFile(t *testing.T) {
	path := writeFile(t, "req.yaml", `
coordinates:
  - [102.30, 4.40]
  - [102.30, 4.30]
  - [102.40, 4.30]
options:
  start_date: "2022-01-01"
  num_samples: 1500
`)

	req, err := buildRequest(estimateFlags{requestFile: path, numSamples: 800, splitRatio: 0.6, thumbnails: true})
	require.NoError(t, err)
	require.Len(t, req.Coordinates, 3)
	assert.Equal(t, "2022-01-01", req.Options.StartDate)
	assert.Equal(t, 800, req.Options.NumSamples)
	assert.Equal(t, 0.6, req.Options.SplitRatio)
	assert.True(t, req.Options.Thumbnails)
}

func TestBuildRequest_GeoJSONBoundary(t *testing.T) {
	path := writeFile(t, "boundary.geojson", `{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[102.3,4.3],[102.3,4.4],[102.4,4.4],[102.4,4.3],[102.3,4.3]]]}}`)

	req, err := buildRequest(estimateFlags{geojsonFile: path, startDate: "2021-05-01"})
	require.NoError(t, err)
	require.Len(t, req.Coordinates, 5)
	assert.Equal(t, [2]float64{102.3, 4.3}, req.Coordinates[0])
	assert.Equal(t, "2021-05-01", req.Options.StartDate)
}

func TestBuildRequest_ShapefileBoundaryReplacesFileRing(t *testing.T) {
	reqPath := writeFile(t, "req.yaml", "coordinates: [[1, 1], [2, 1], [2, 2]]\n")

	shpPath := filepath.Join(t.TempDir(), "boundary.shp")
	w, err := shp.Create(shpPath, shp.POLYGON)
	require.NoError(t, err)
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{
		{X: 102.3, Y: 4.3}, {X: 102.3, Y: 4.4}, {X: 102.4, Y: 4.4}, {X: 102.4, Y: 4.3}, {X: 102.3, Y: 4.3},
	}}))
	w.Write(&poly)
	w.Close()

	req, err := buildRequest(estimateFlags{requestFile: reqPath, shapefile: shpPath})
	require.NoError(t, err)
	require.Len(t, req.Coordinates, 5)
	assert.Equal(t, [2]float64{102.3, 4.3}, req.Coordinates[0])
}

func TestBuildRequest_Errors(t *testing.T) {
	_, err := buildRequest(estimateFlags{shapefile: "a.shp", geojsonFile: "b.geojson"})
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = buildRequest(estimateFlags{geojsonFile: filepath.Join(t.TempDir(), "missing.geojson")})
	assert.Error(t, err)

	line := writeFile(t, "line.geojson", `{"type":"LineString","coordinates":[[0,0],[1,1]]}`)
	_, err = buildRequest(estimateFlags{geojsonFile: line})
	assert.ErrorIs(t, err, geo.ErrInvalidBoundary)
}

func TestPrintResult(t *testing.T) {
	res := &model.Result{
		RunID:      "run-1",
		Tier:       carbon.TierSilver,
		CarbonData: &carbon.Report{TotalArea: 10, TotalCarbon: 20},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res, false))
	assert.Contains(t, buf.String(), "CARBON ESTIMATE")
	assert.Contains(t, buf.String(), "Silver")

	buf.Reset()
	require.NoError(t, printResult(&buf, res, true))
	var decoded model.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
}

func TestInitStore(t *testing.T) {
	tests := []struct {
		name    string
		store   config.StoreConfig
		wantErr bool
		memory  bool
	}{
		{name: "sqlite", store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "test.db")}},
		{name: "none", store: config.StoreConfig{Driver: "none"}, memory: true},
		{name: "unknown", store: config.StoreConfig{Driver: "mongo"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = &config.Config{Store: tt.store}
			st, err := initStore(context.Background())
			if tt.wantErr {
				assert.ErrorContains(t, err, "unsupported store driver")
				return
			}
			require.NoError(t, err)
			defer st.Close() //nolint:errcheck
			require.NoError(t, st.Migrate(context.Background()))
			if tt.memory {
				assert.IsType(t, &store.MemoryStore{}, st)
			}
		})
	}
}

func TestInitEstimator_InvalidConfig(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "none"}}
	_, err := initEstimator(context.Background(), "estimate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.base_url is required")
}

func TestInitEstimator_ServeWithoutCredentials(t *testing.T) {
	cfg = &config.Config{
		Engine:      config.EngineConfig{BaseURL: "http://engine.invalid"},
		Credentials: config.CredentialsConfig{KeyPath: filepath.Join(t.TempDir(), "missing.json")},
		Estimator:   config.EstimatorConfig{NumSamples: 100, SplitRatio: 0.7, MaxConcurrency: 4},
		Store:       config.StoreConfig{Driver: "none"},
		Server:      config.ServerConfig{Port: 3001},
	}

	env, err := initEstimator(context.Background(), "serve")
	require.NoError(t, err)
	defer env.Close()
	assert.Nil(t, env.Credentials.Key())
	assert.NotNil(t, env.Estimator)

	_, err = initEstimator(context.Background(), "estimate")
	require.Error(t, err)
}
