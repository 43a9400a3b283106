package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError indicates a missing or invalid required setting. Fatal at startup.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("config: %s %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("config: %s is required", e.Field)
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	WAQI struct {
		BaseURL        string        `yaml:"base_url"`
		Token          string        `yaml:"token"`
		Stations       []string      `yaml:"stations"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
		Retry          struct {
			MaxAttempts    int           `yaml:"max_attempts"`
			InitialBackoff time.Duration `yaml:"initial_backoff"`
			MaxBackoff     time.Duration `yaml:"max_backoff"`
		} `yaml:"retry"`
	} `yaml:"waqi"`
	Models struct {
		AttributionPath string `yaml:"attribution_path"`
		ForecastPath    string `yaml:"forecast_path"`
	} `yaml:"models"`
	Sampler struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"sampler"`
	History struct {
		MaxPoints int           `yaml:"max_points"`
		MaxAge    time.Duration `yaml:"max_age"`
	} `yaml:"history"`
	Firehose struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"firehose"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("WAQI_TOKEN"); v != "" {
		c.WAQI.Token = v
	}
	if v := os.Getenv("WAQI_STATIONS"); v != "" {
		c.WAQI.Stations = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Firehose.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Firehose.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.WAQI.BaseURL == "" {
		c.WAQI.BaseURL = "https://api.waqi.info"
	}
	if c.WAQI.RequestTimeout <= 0 {
		c.WAQI.RequestTimeout = 15 * time.Second
	}
	if c.WAQI.CacheTTL <= 0 {
		c.WAQI.CacheTTL = 5 * time.Minute
	}
	if c.WAQI.Retry.MaxAttempts <= 0 {
		c.WAQI.Retry.MaxAttempts = 3
	}
	if c.WAQI.Retry.InitialBackoff <= 0 {
		c.WAQI.Retry.InitialBackoff = 250 * time.Millisecond
	}
	if c.WAQI.Retry.MaxBackoff <= 0 {
		c.WAQI.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Sampler.Interval <= 0 {
		c.Sampler.Interval = time.Hour
	}
	if c.History.MaxPoints <= 0 {
		c.History.MaxPoints = 168 // one week at hourly sampling
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return &ConfigError{Field: "environment"}
	}
	if c.WAQI.Token == "" {
		return &ConfigError{Field: "waqi.token", Detail: "is required (set WAQI_TOKEN)"}
	}
	if len(c.WAQI.Stations) == 0 {
		return &ConfigError{Field: "waqi.stations", Detail: "cannot be empty"}
	}
	if c.Models.AttributionPath == "" {
		return &ConfigError{Field: "models.attribution_path"}
	}
	if c.Models.ForecastPath == "" {
		return &ConfigError{Field: "models.forecast_path"}
	}
	if c.Firehose.Enabled && len(c.Firehose.Brokers) == 0 {
		return &ConfigError{Field: "firehose.brokers", Detail: "cannot be empty when firehose is enabled"}
	}
	return nil
}
