package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/credentials"
	"github.com/sells-group/forest-carbon/internal/estimator"
	"github.com/sells-group/forest-carbon/internal/events"
	"github.com/sells-group/forest-carbon/internal/resilience"
	"github.com/sells-group/forest-carbon/internal/store"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

// estimatorEnv holds the store, credentials, engine client and estimator
// shared by the estimate and serve commands.
type estimatorEnv struct {
	Store       store.Store
	Credentials *credentials.Provider
	Publisher   events.Publisher
	Estimator   *estimator.Estimator
}

// Close releases resources held by the environment.
func (env *estimatorEnv) Close() {
	if env.Publisher != nil {
		env.Publisher.Close()
	}
	if env.Store != nil {
		_ = env.Store.Close()
	}
}

// initStore opens the configured run store. The "none" driver keeps runs
// in memory for the life of the process.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "carbon.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "none", "":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine builds the engine client from the engine settings.
func initEngine() geoengine.Client {
	ec := cfg.Engine
	timeout := time.Duration(ec.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	policy := resilience.Policy{
		Service: "geoengine",
		Retry:   resilience.FromRetryConfig(ec.MaxAttempts, ec.InitialBackoffMs, ec.MaxBackoffMs),
		Breaker: resilience.NewCircuitBreaker(resilience.FromCircuitConfig(ec.BreakerThreshold, ec.BreakerResetSecs)),
	}

	return geoengine.NewClient(
		geoengine.WithBaseURL(ec.BaseURL),
		geoengine.WithHTTPClient(&http.Client{Timeout: timeout}),
		geoengine.WithRateLimit(float64(ec.RateLimitRPS)),
		geoengine.WithPolicy(policy),
	)
}

// initEstimator validates the config for mode and wires the estimator.
// Callers should defer env.Close().
func initEstimator(ctx context.Context, mode string) (*estimatorEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	// The server starts without a key and reports it on /api/health.
	newProvider := credentials.NewProvider
	if mode == "serve" {
		newProvider = credentials.NewOptionalProvider
	}
	creds, err := newProvider(cfg.Credentials)
	if err != nil {
		return nil, err
	}
	if creds.Key() == nil {
		zap.L().Warn("credentials not found", zap.String("key_path", cfg.Credentials.KeyPath), zap.String("env_var", cfg.Credentials.EnvVar))
	} else {
		zap.L().Info("credentials loaded", zap.String("source", string(creds.Source())))
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	pub, err := events.New(cfg.Kafka)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	est := estimator.New(initEngine(), creds, cfg,
		estimator.WithStore(st),
		estimator.WithPublisher(pub),
		estimator.WithPublishTimeout(time.Duration(cfg.Kafka.PublishTimeoutSecs)*time.Second),
	)

	return &estimatorEnv{
		Store:       st,
		Credentials: creds,
		Publisher:   pub,
		Estimator:   est,
	}, nil
}
