package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	cfg.Env = "dev"
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://localhost:8080/api/predict", cfg.Predictor.Endpoint)
	require.Equal(t, 4*time.Second, cfg.Form.ToastDuration)
	require.Equal(t, "flat_session", cfg.Form.CookieName)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
form:
  toastDuration: 6s
predictor:
  endpoint: "http://predictor:5000/api/predict"
kafka:
  brokers: ["kafka:9092"]
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PREDICTOR_TIMEOUT", "15s")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "http://localhost:3000, https://flat.example.com")
	t.Setenv("INFERENCE_BASE_URL", "http://models:8000")
	t.Setenv("APP_ENV", "")
	t.Setenv("FORM_COOKIE_SECRET", "a-real-secret-for-tests")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, 6*time.Second, cfg.Form.ToastDuration)
	require.Equal(t, "http://predictor:5000/api/predict", cfg.Predictor.Endpoint)
	require.Equal(t, 15*time.Second, cfg.Predictor.Timeout)
	require.Equal(t, []string{"http://localhost:3000", "https://flat.example.com"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, "http://models:8000", cfg.Inference.BaseURL)
	require.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "prediction.completed", cfg.Kafka.Topic)
	require.Equal(t, "a-real-secret-for-tests", cfg.Form.CookieSecret)
}

func TestPlaceholderCookieSecretOnlyAllowedInDev(t *testing.T) {
	for _, env := range []string{"", "production", "staging"} {
		cfg := defaultConfig()
		cfg.Env = env
		require.ErrorContains(t, cfg.Validate(), "cookieSecret", "env %q", env)
	}
	for _, env := range []string{"dev", "local", " DEV "} {
		cfg := defaultConfig()
		cfg.Env = env
		require.NoError(t, cfg.Validate(), "env %q", env)
	}

	cfg := defaultConfig()
	cfg.Form.CookieSecret = "a-real-secret-for-tests"
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsPlaceholderSecretOutsideDev(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_ENV", "production")
	t.Setenv("FORM_COOKIE_SECRET", "")

	_, err := Load()
	require.ErrorContains(t, err, "form.cookieSecret must be replaced")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"empty address":       func(c *Config) { c.HTTP.Address = "" },
		"relative endpoint":   func(c *Config) { c.Predictor.Endpoint = "/api/predict" },
		"short secret":        func(c *Config) { c.Form.CookieSecret = "short" },
		"zero toast":          func(c *Config) { c.Form.ToastDuration = 0 },
		"guard below timeout": func(c *Config) { c.Form.SubmitGuardTTL = time.Second },
		"valkey without addr": func(c *Config) { c.Valkey.Enabled = true },
		"bad inference url":   func(c *Config) { c.Inference.BaseURL = "models" },
		"archive no bucket": func(c *Config) {
			c.Archive.Endpoint = "http://minio:9000"
			c.Archive.Bucket = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Env = "dev"
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestUnboundedPredictorTimeoutAllowed(t *testing.T) {
	cfg := defaultConfig()
	cfg.Env = "dev"
	cfg.Predictor.Timeout = 0
	cfg.Form.SubmitGuardTTL = time.Second
	require.NoError(t, cfg.Validate())
}
