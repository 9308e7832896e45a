// Package mocks provides test doubles for the geoengine client.
package mocks

import (
	"context"

	geoengine "github.com/sells-group/forest-carbon/pkg/geoengine"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Authenticate provides a mock function with given fields: ctx, key
func (_m *MockClient) Authenticate(ctx context.Context, key *geoengine.ServiceAccountKey) (*geoengine.Session, error) {
	ret := _m.Called(ctx, key)

	if len(ret) == 0 {
		panic("no return value specified for Authenticate")
	}

	var r0 *geoengine.Session
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, *geoengine.ServiceAccountKey) (*geoengine.Session, error)); ok {
		return rf(ctx, key)
	}
	if rf, ok := ret.Get(0).(func(context.Context, *geoengine.ServiceAccountKey) *geoengine.Session); ok {
		r0 = rf(ctx, key)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geoengine.Session)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, *geoengine.ServiceAccountKey) error); ok {
		r1 = rf(ctx, key)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// LoadRaster provides a mock function with given fields: ctx, req
func (_m *MockClient) LoadRaster(ctx context.Context, req geoengine.LoadRequest) (*geoengine.Raster, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for LoadRaster")
	}

	var r0 *geoengine.Raster
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.LoadRequest) (*geoengine.Raster, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.LoadRequest) *geoengine.Raster); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geoengine.Raster)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.LoadRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Combine provides a mock function with given fields: ctx, rasters
func (_m *MockClient) Combine(ctx context.Context, rasters []string) (*geoengine.Raster, error) {
	ret := _m.Called(ctx, rasters)

	if len(ret) == 0 {
		panic("no return value specified for Combine")
	}

	var r0 *geoengine.Raster
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []string) (*geoengine.Raster, error)); ok {
		return rf(ctx, rasters)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []string) *geoengine.Raster); ok {
		r0 = rf(ctx, rasters)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geoengine.Raster)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, []string) error); ok {
		r1 = rf(ctx, rasters)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ReduceRegion provides a mock function with given fields: ctx, req
func (_m *MockClient) ReduceRegion(ctx context.Context, req geoengine.ReduceRequest) (*geoengine.ReduceResult, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ReduceRegion")
	}

	var r0 *geoengine.ReduceResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.ReduceRequest) (*geoengine.ReduceResult, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.ReduceRequest) *geoengine.ReduceResult); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geoengine.ReduceResult)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.ReduceRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// StratifiedSample provides a mock function with given fields: ctx, req
func (_m *MockClient) StratifiedSample(ctx context.Context, req geoengine.StratifiedSampleRequest) ([]geoengine.Feature, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for StratifiedSample")
	}

	var r0 []geoengine.Feature
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.StratifiedSampleRequest) ([]geoengine.Feature, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.StratifiedSampleRequest) []geoengine.Feature); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]geoengine.Feature)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.StratifiedSampleRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// SampleRegions provides a mock function with given fields: ctx, req
func (_m *MockClient) SampleRegions(ctx context.Context, req geoengine.SampleRegionsRequest) ([]geoengine.Feature, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for SampleRegions")
	}

	var r0 []geoengine.Feature
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.SampleRegionsRequest) ([]geoengine.Feature, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.SampleRegionsRequest) []geoengine.Feature); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]geoengine.Feature)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.SampleRegionsRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// TrainRegressor provides a mock function with given fields: ctx, req
func (_m *MockClient) TrainRegressor(ctx context.Context, req geoengine.TrainRequest) (*geoengine.Regressor, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for TrainRegressor")
	}

	var r0 *geoengine.Regressor
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.TrainRequest) (*geoengine.Regressor, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.TrainRequest) *geoengine.Regressor); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geoengine.Regressor)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.TrainRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Classify provides a mock function with given fields: ctx, req
func (_m *MockClient) Classify(ctx context.Context, req geoengine.ClassifyRequest) (*geoengine.Raster, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Classify")
	}

	var r0 *geoengine.Raster
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.ClassifyRequest) (*geoengine.Raster, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.ClassifyRequest) *geoengine.Raster); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geoengine.Raster)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.ClassifyRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ThumbnailURL provides a mock function with given fields: ctx, req
func (_m *MockClient) ThumbnailURL(ctx context.Context, req geoengine.ThumbnailRequest) (string, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ThumbnailURL")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.ThumbnailRequest) (string, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, geoengine.ThumbnailRequest) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, geoengine.ThumbnailRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
