package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const DefaultAPIBase = "http://localhost:8000"

type Config struct {
	// Backend
	APIBase        string        `yaml:"api_base"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Client-side throttle on outgoing requests
	RateLimit         int           `yaml:"rate_limit"`
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`

	JournalDSN string `yaml:"journal_dsn"`

	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Video       VideoConfig       `yaml:"video"`
	S3          S3Config          `yaml:"s3"`
	Stub        StubConfig        `yaml:"stub"`
}

type CoordinatorConfig struct {
	// RejectStale drops completions that belong to a superseded dispatch of
	// the same group instead of letting the last completion win.
	RejectStale bool `yaml:"reject_stale"`
}

type VideoConfig struct {
	// StrictURL requires the video link to be an http(s) YouTube URL.
	StrictURL bool `yaml:"strict_url"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type StubConfig struct {
	Addr              string        `yaml:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	Latency           time.Duration `yaml:"latency"`
	RateLimit         int           `yaml:"rate_limit"`
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`
}

func Defaults() *Config {
	return &Config{
		APIBase:           DefaultAPIBase,
		RequestTimeout:    10 * time.Minute,
		RateLimit:         5,
		RateLimitInterval: 1 * time.Second,
		LogLevel:          "info",
		JournalDSN:        "file:journal?mode=memory&cache=shared",
		S3: S3Config{
			Region: "us-east-1",
		},
		Stub: StubConfig{
			Addr:              ":8000",
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			RateLimit:         5,
			RateLimitInterval: 1 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if any), then a .env file in the working directory (if any), then the
// process environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %s", path)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.APIBase = strings.TrimRight(GetEnv("API_BASE", cfg.APIBase), "/")
	cfg.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RateLimit = getEnvAsInt("RATE_LIMIT", cfg.RateLimit)
	cfg.RateLimitInterval = getEnvAsDuration("RATE_LIMIT_INTERVAL", cfg.RateLimitInterval)
	cfg.LogLevel = GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDir = GetEnv("LOG_DIR", cfg.LogDir)
	cfg.JournalDSN = GetEnv("JOURNAL_DSN", cfg.JournalDSN)
	cfg.Coordinator.RejectStale = getEnvAsBool("REJECT_STALE", cfg.Coordinator.RejectStale)
	cfg.Video.StrictURL = getEnvAsBool("STRICT_VIDEO_URL", cfg.Video.StrictURL)

	cfg.S3.Endpoint = GetEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = GetEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.AccessKey = GetEnv("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = GetEnv("S3_SECRET_KEY", cfg.S3.SecretKey)

	cfg.Stub.Addr = GetEnv("STUB_ADDR", cfg.Stub.Addr)
	cfg.Stub.Latency = getEnvAsDuration("STUB_LATENCY", cfg.Stub.Latency)
	cfg.Stub.RateLimit = getEnvAsInt("STUB_RATE_LIMIT", cfg.Stub.RateLimit)
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.APIBase == "" {
		return errors.New("api base is required")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return errors.Wrap(err, "api base is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("api base must start with http or https")
	}
	if u.Host == "" {
		return errors.New("api base must have a host")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be greater than 0")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateLimitInterval <= 0 {
		return errors.New("rate limit interval must be greater than 0")
	}
	if c.JournalDSN == "" {
		return errors.New("journal dsn is required")
	}
	return nil
}
