package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	Credentials CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	Estimator   EstimatorConfig   `yaml:"estimator" mapstructure:"estimator"`
	Carbon      CarbonConfig      `yaml:"carbon" mapstructure:"carbon"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Kafka       KafkaConfig       `yaml:"kafka" mapstructure:"kafka"`
	Report      ReportConfig      `yaml:"report" mapstructure:"report"`
	Monitoring  MonitoringConfig  `yaml:"monitoring" mapstructure:"monitoring"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// EngineConfig configures the remote geospatial compute engine client.
type EngineConfig struct {
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS     int    `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int    `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// CredentialsConfig locates the service-account key.
type CredentialsConfig struct {
	KeyPath string `yaml:"key_path" mapstructure:"key_path"`
	EnvVar  string `yaml:"env_var" mapstructure:"env_var"`
	Watch   bool   `yaml:"watch" mapstructure:"watch"`
}

// EstimatorConfig holds the pipeline defaults applied to each request.
type EstimatorConfig struct {
	NumSamples     int     `yaml:"num_samples" mapstructure:"num_samples"`
	SplitRatio     float64 `yaml:"split_ratio" mapstructure:"split_ratio"`
	StartDate      string  `yaml:"start_date" mapstructure:"start_date"`
	EndDate        string  `yaml:"end_date" mapstructure:"end_date"`
	Scale          int     `yaml:"scale" mapstructure:"scale"`
	CRS            string  `yaml:"crs" mapstructure:"crs"`
	TreeCount      int     `yaml:"tree_count" mapstructure:"tree_count"`
	SampleSeed     int     `yaml:"sample_seed" mapstructure:"sample_seed"`
	RandomSeed     int     `yaml:"random_seed" mapstructure:"random_seed"`
	MaxConcurrency int     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	RunTimeoutSecs int     `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
}

// CarbonConfig tunes the carbon calculator.
type CarbonConfig struct {
	PixelAreaDivisor float64 `yaml:"pixel_area_divisor" mapstructure:"pixel_area_divisor"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// KafkaConfig configures run event publication. An empty
// BootstrapServers disables it.
type KafkaConfig struct {
	BootstrapServers string `yaml:"bootstrap_servers" mapstructure:"bootstrap_servers"`
	Topic            string `yaml:"topic" mapstructure:"topic"`
	// PublishTimeoutSecs bounds the wait for a delivery report.
	PublishTimeoutSecs int `yaml:"publish_timeout_secs" mapstructure:"publish_timeout_secs"`
}

// ReportConfig configures report export.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// MonitoringConfig configures the background run-health checker. An empty
// WebhookURL disables alerting.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	StuckRunMinutes      int     `yaml:"stuck_run_minutes" mapstructure:"stuck_run_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and CARBON_* environment
// variables, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARBON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("engine.base_url", "")
	v.SetDefault("engine.timeout_secs", 60)
	v.SetDefault("engine.rate_limit_rps", 10)
	v.SetDefault("engine.max_attempts", 3)
	v.SetDefault("engine.initial_backoff_ms", 500)
	v.SetDefault("engine.max_backoff_ms", 10000)
	v.SetDefault("engine.breaker_threshold", 5)
	v.SetDefault("engine.breaker_reset_secs", 30)
	v.SetDefault("credentials.key_path", "service-account.json")
	v.SetDefault("credentials.env_var", "GOOGLE_CREDENTIALS")
	v.SetDefault("credentials.watch", false)
	v.SetDefault("estimator.num_samples", 2000)
	v.SetDefault("estimator.split_ratio", 0.7)
	v.SetDefault("estimator.start_date", "2021-04-01")
	v.SetDefault("estimator.end_date", "2021-06-30")
	v.SetDefault("estimator.scale", 30)
	v.SetDefault("estimator.crs", "EPSG:32647")
	v.SetDefault("estimator.tree_count", 50)
	v.SetDefault("estimator.sample_seed", 66)
	v.SetDefault("estimator.random_seed", 27)
	v.SetDefault("estimator.max_concurrency", 8)
	v.SetDefault("estimator.run_timeout_secs", 900)
	v.SetDefault("carbon.pixel_area_divisor", 1.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "carbon.db")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("kafka.bootstrap_servers", "")
	v.SetDefault("kafka.topic", "carbon-runs")
	v.SetDefault("kafka.publish_timeout_secs", 10)
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.stuck_run_minutes", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes are
// "estimate", "serve" and "runs".
func (c *Config) Validate(mode string) error {
	switch mode {
	case "estimate", "serve", "runs":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
	case "none":
		if mode == "runs" {
			problems = append(problems, "store.driver none has no runs to list")
		}
	default:
		problems = append(problems, "store.driver must be sqlite, postgres or none")
	}

	if mode != "runs" {
		if c.Engine.BaseURL == "" {
			problems = append(problems, "engine.base_url is required")
		}
		if c.Credentials.KeyPath == "" && c.Credentials.EnvVar == "" {
			problems = append(problems, "credentials.key_path or credentials.env_var is required")
		}
		if c.Estimator.SplitRatio <= 0 || c.Estimator.SplitRatio >= 1 {
			problems = append(problems, "estimator.split_ratio must be between 0 and 1")
		}
		if c.Estimator.NumSamples <= 0 {
			problems = append(problems, "estimator.num_samples must be > 0")
		}
		if c.Estimator.MaxConcurrency < 1 || c.Estimator.MaxConcurrency > 64 {
			problems = append(problems, "estimator.max_concurrency must be between 1 and 64")
		}
		if c.Carbon.PixelAreaDivisor < 0 {
			problems = append(problems, "carbon.pixel_area_divisor must be >= 0")
		}
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be > 0 and <= 65535")
	}
	if mode == "serve" && c.Monitoring.WebhookURL != "" {
		if c.Monitoring.FailureRateThreshold <= 0 || c.Monitoring.FailureRateThreshold > 1 {
			problems = append(problems, "monitoring.failure_rate_threshold must be > 0 and <= 1")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
