package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlaceholderCookieSecret ships in the default config. It is only accepted when
// Env is dev or local.
const PlaceholderCookieSecret = "change-me-in-production"

// Config aggregates runtime configuration used across the service.
type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Form      FormConfig      `yaml:"form"`
	Predictor PredictorConfig `yaml:"predictor"`
	Inference InferenceConfig `yaml:"inference"`
	History   HistoryConfig   `yaml:"history"`
	Valkey    ValkeyConfig    `yaml:"valkey"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// FormConfig controls the server side form sessions.
type FormConfig struct {
	SessionTTL     time.Duration `yaml:"sessionTtl"`
	ToastDuration  time.Duration `yaml:"toastDuration"`
	SubmitGuardTTL time.Duration `yaml:"submitGuardTtl"`
	CookieName     string        `yaml:"cookieName"`
	CookieSecret   string        `yaml:"cookieSecret"`
	CookieSecure   bool          `yaml:"cookieSecure"`
}

// PredictorConfig points the form at the prediction endpoint.
type PredictorConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// InferenceConfig enables the valuation gateway when BaseURL is set.
type InferenceConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig bounds the prediction history endpoints.
type HistoryConfig struct {
	RecentLimit    int    `yaml:"recentLimit"`
	MaxComparables int    `yaml:"maxComparables"`
	MemoryLimit    int    `yaml:"memoryLimit"`
	ArchivePrefix  string `yaml:"archivePrefix"`
}

// ValkeyConfig contains connection information for the session store.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
	Migrate  bool   `yaml:"migrate"`
}

// ArchiveConfig configures the S3-compatible sample archive.
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// KafkaConfig configures prediction event publishing.
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"clientId"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("FORM_SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Form.SessionTTL = parsed
		}
	}
	if v := os.Getenv("FORM_TOAST_DURATION"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Form.ToastDuration = parsed
		}
	}
	if v := os.Getenv("FORM_SUBMIT_GUARD_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Form.SubmitGuardTTL = parsed
		}
	}
	if v := os.Getenv("FORM_COOKIE_SECRET"); v != "" {
		cfg.Form.CookieSecret = v
	}
	if v := os.Getenv("FORM_COOKIE_SECURE"); v != "" {
		cfg.Form.CookieSecure = parseBool(v)
	}
	if v := os.Getenv("PREDICTOR_ENDPOINT"); v != "" {
		cfg.Predictor.Endpoint = v
	}
	if v := os.Getenv("PREDICTOR_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Predictor.Timeout = parsed
		}
	}
	if v := os.Getenv("INFERENCE_BASE_URL"); v != "" {
		cfg.Inference.BaseURL = v
	}
	if v := os.Getenv("INFERENCE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Inference.Timeout = parsed
		}
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIGRATE"); v != "" {
		cfg.Postgres.Migrate = parseBool(v)
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 45 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Form: FormConfig{
			SessionTTL:     24 * time.Hour,
			ToastDuration:  4 * time.Second,
			SubmitGuardTTL: time.Minute,
			CookieName:     "flat_session",
			CookieSecret:   PlaceholderCookieSecret,
		},
		Predictor: PredictorConfig{
			Endpoint: "http://localhost:8080/api/predict",
			Timeout:  30 * time.Second,
		},
		Inference: InferenceConfig{
			Timeout: 10 * time.Second,
		},
		History: HistoryConfig{
			RecentLimit:    20,
			MaxComparables: 10,
			MemoryLimit:    1000,
			ArchivePrefix:  "samples",
		},
		Valkey: ValkeyConfig{
			Prefix: "form",
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Archive: ArchiveConfig{
			Bucket: "flat-price-samples",
		},
		Kafka: KafkaConfig{
			Topic:    "prediction.completed",
			ClientID: "flat-price",
		},
	}
}

// IsDev reports whether the service runs in a developer environment.
func (c *Config) IsDev() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "dev", "local":
		return true
	}
	return false
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Form.SessionTTL <= 0 {
		return errors.New("form.sessionTtl must be positive")
	}
	if c.Form.ToastDuration <= 0 {
		return errors.New("form.toastDuration must be positive")
	}
	if c.Form.SubmitGuardTTL <= 0 {
		return errors.New("form.submitGuardTtl must be positive")
	}
	if c.Predictor.Timeout > 0 && c.Form.SubmitGuardTTL < c.Predictor.Timeout {
		return errors.New("form.submitGuardTtl must cover predictor.timeout")
	}
	if strings.TrimSpace(c.Form.CookieName) == "" {
		return errors.New("form.cookieName cannot be empty")
	}
	if len(c.Form.CookieSecret) < 16 {
		return errors.New("form.cookieSecret must be at least 16 bytes")
	}
	if c.Form.CookieSecret == PlaceholderCookieSecret && !c.IsDev() {
		return errors.New("form.cookieSecret must be replaced outside dev (set FORM_COOKIE_SECRET)")
	}
	if err := validateURL("predictor.endpoint", c.Predictor.Endpoint); err != nil {
		return err
	}
	if c.Predictor.Timeout < 0 {
		return errors.New("predictor.timeout cannot be negative")
	}
	if strings.TrimSpace(c.Inference.BaseURL) != "" {
		if err := validateURL("inference.baseUrl", c.Inference.BaseURL); err != nil {
			return err
		}
	}
	if c.Inference.Timeout < 0 {
		return errors.New("inference.timeout cannot be negative")
	}
	if c.History.RecentLimit <= 0 {
		return errors.New("history.recentLimit must be positive")
	}
	if c.History.MaxComparables <= 0 {
		return errors.New("history.maxComparables must be positive")
	}
	if c.History.MemoryLimit < 0 {
		return errors.New("history.memoryLimit cannot be negative")
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	if strings.TrimSpace(c.Archive.Endpoint) != "" && strings.TrimSpace(c.Archive.Bucket) == "" {
		return errors.New("archive.bucket cannot be empty when archive.endpoint is set")
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("kafka.topic cannot be empty when brokers are set")
	}
	return nil
}

func validateURL(name, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", name)
	}
	return nil
}
