// Package geoengine is a client for the remote geospatial compute engine
// that holds the satellite catalog: it loads and composites datasets,
// reduces regions, samples points, and trains and applies regressors.
package geoengine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/forest-carbon/internal/resilience"
)

const defaultBaseURL = "https://earthengine.googleapis.com/v1"

// Client defines the engine operations used by the estimator. Every
// operation except Authenticate requires a prior successful Authenticate.
type Client interface {
	Authenticate(ctx context.Context, key *ServiceAccountKey) (*Session, error)
	LoadRaster(ctx context.Context, req LoadRequest) (*Raster, error)
	Combine(ctx context.Context, rasters []string) (*Raster, error)
	ReduceRegion(ctx context.Context, req ReduceRequest) (*ReduceResult, error)
	StratifiedSample(ctx context.Context, req StratifiedSampleRequest) ([]Feature, error)
	SampleRegions(ctx context.Context, req SampleRegionsRequest) ([]Feature, error)
	TrainRegressor(ctx context.Context, req TrainRequest) (*Regressor, error)
	Classify(ctx context.Context, req ClassifyRequest) (*Raster, error)
	ThumbnailURL(ctx context.Context, req ThumbnailRequest) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default limit of 10 req/s. A non-positive
// rate disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithPolicy overrides the retry and circuit-breaker policy.
func WithPolicy(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	policy  resilience.Policy
	now     func() time.Time

	mu      sync.RWMutex
	key     *ServiceAccountKey
	session *Session

	// refreshMu admits one token exchange at a time.
	refreshMu sync.Mutex
}

// NewClient creates an engine client. Calls are limited to 10 req/s and
// retried with the default policy behind a circuit breaker.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
		policy: resilience.Policy{
			Service: "geoengine",
			Retry:   resilience.DefaultRetryConfig(),
			Breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.policy.Service == "" {
		c.policy.Service = "geoengine"
	}
	return c
}

// Authenticate exchanges the key for an access token. A still-valid
// session for the same service account is reused.
func (c *httpClient) Authenticate(ctx context.Context, key *ServiceAccountKey) (*Session, error) {
	if key == nil {
		return nil, resilience.Permanent(eris.Wrap(ErrUnauthorized, "geoengine: no service account key"))
	}

	if s := c.current(key); s != nil {
		return s, nil
	}

	// Callers that raced past the fast path find the session refreshed by
	// whoever held the lock before them.
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if s := c.current(key); s != nil {
		return s, nil
	}

	s, err := resilience.Call(ctx, c.policy, "authenticate", func(ctx context.Context) (*Session, error) {
		return c.exchange(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.key = key
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// current returns the cached session if it is valid and was issued for key.
func (c *httpClient) current(key *ServiceAccountKey) *Session {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()
	if s.Valid(c.now()) && s.ClientEmail == key.ClientEmail {
		return s
	}
	return nil
}

// token returns the current access token, refreshing an expired session
// with the key it was issued for.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.RLock()
	s, key := c.session, c.key
	c.mu.RUnlock()

	if s.Valid(c.now()) {
		return s.AccessToken, nil
	}
	if key == nil {
		return "", resilience.Permanent(eris.Wrap(ErrUnauthorized, "geoengine: not authenticated"))
	}
	s, err := c.Authenticate(ctx, key)
	if err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// post sends in as JSON to path and decodes the response into out.
func (c *httpClient) post(ctx context.Context, op, path string, in, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrapf(err, "geoengine: %s: marshal request", op)
	}

	_, err = resilience.Call(ctx, c.policy, op, func(ctx context.Context) (struct{}, error) {
		if err := c.wait(ctx); err != nil {
			return struct{}{}, eris.Wrap(err, "geoengine: rate limit")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, eris.Wrapf(err, "geoengine: %s: create request", op)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tok)

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, eris.Wrapf(err, "geoengine: %s: send request", op)
		}
		defer resp.Body.Close() //nolint:errcheck

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return struct{}{}, eris.Wrapf(err, "geoengine: %s: read response", op)
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, classify(op, resp.StatusCode, respBody)
		}
		if out == nil {
			return struct{}{}, nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return struct{}{}, eris.Wrapf(err, "geoengine: %s: unmarshal response", op)
		}
		return struct{}{}, nil
	})
	return err
}

type combineRequest struct {
	Rasters []string `json:"rasters"`
}

type featuresResponse struct {
	Features []Feature `json:"features"`
}

type thumbnailResponse struct {
	URL string `json:"url"`
}

func (c *httpClient) LoadRaster(ctx context.Context, req LoadRequest) (*Raster, error) {
	var out Raster
	if err := c.post(ctx, "load raster", "/rasters:load", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Combine(ctx context.Context, rasters []string) (*Raster, error) {
	if len(rasters) == 0 {
		return nil, eris.New("geoengine: combine: no rasters")
	}
	var out Raster
	if err := c.post(ctx, "combine", "/rasters:combine", combineRequest{Rasters: rasters}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ReduceRegion(ctx context.Context, req ReduceRequest) (*ReduceResult, error) {
	var out ReduceResult
	if err := c.post(ctx, "reduce region", "/rasters:reduceRegion", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) StratifiedSample(ctx context.Context, req StratifiedSampleRequest) ([]Feature, error) {
	var out featuresResponse
	if err := c.post(ctx, "stratified sample", "/samples:stratified", req, &out); err != nil {
		return nil, err
	}
	return out.Features, nil
}

func (c *httpClient) SampleRegions(ctx context.Context, req SampleRegionsRequest) ([]Feature, error) {
	var out featuresResponse
	if err := c.post(ctx, "sample regions", "/rasters:sampleRegions", req, &out); err != nil {
		return nil, err
	}
	return out.Features, nil
}

func (c *httpClient) TrainRegressor(ctx context.Context, req TrainRequest) (*Regressor, error) {
	if len(req.Features) == 0 {
		return nil, eris.New("geoengine: train regressor: no training features")
	}
	var out Regressor
	if err := c.post(ctx, "train regressor", "/regressors:train", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Classify(ctx context.Context, req ClassifyRequest) (*Raster, error) {
	var out Raster
	if err := c.post(ctx, "classify", "/rasters:classify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ThumbnailURL(ctx context.Context, req ThumbnailRequest) (string, error) {
	var out thumbnailResponse
	if err := c.post(ctx, "thumbnail", "/rasters:thumbnail", req, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", eris.New("geoengine: thumbnail: empty url")
	}
	return out.URL, nil
}
