package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the YAML file.
const (
	EnvAddr         = "CHURN_ADDR"
	EnvModelPath    = "CHURN_MODEL_PATH"
	EnvScalerPath   = "CHURN_SCALER_PATH"
	EnvFeaturesPath = "CHURN_FEATURES_PATH"
	EnvWatch        = "CHURN_WATCH_ARTIFACTS"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Loader reads a YAML config file, applies env overrides and watches the file for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load. A missing file
// is not an error: defaults and environment apply.
func NewLoader(path string) (*Loader, error) {
	// A .env file is optional; real environment variables win over it.
	_ = godotenv.Load()

	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path is the config file location.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch hot-reloads the config on file changes. Call the returned stop function to clean up.
// Invalid files are skipped and the previous config stays current.
func (l *Loader) Watch() (stop func(), err error) {
	return WatchFiles([]string{l.path}, func(string) {
		if _, err := l.Reload(); err != nil {
			slog.Warn("config reload skipped", "path", l.path, "err", err)
		}
	})
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*Config, error) {
	var cfg Config
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", l.path, err)
			}
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvModelPath); v != "" {
		cfg.Artifacts.Model = v
	}
	if v := os.Getenv(EnvScalerPath); v != "" {
		cfg.Artifacts.Scaler = v
	}
	if v := os.Getenv(EnvFeaturesPath); v != "" {
		cfg.Artifacts.FeatureNames = v
	}
	if v := os.Getenv(EnvWatch); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Artifacts.Watch = b
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvOTLPEndpoint); v != "" {
		cfg.Tracing.OTLPEndpoint = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = 10000
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = 30000
	}
	if cfg.Server.IdleTimeoutMs == 0 {
		cfg.Server.IdleTimeoutMs = 60000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Artifacts.Model == "" {
		cfg.Artifacts.Model = "artifacts/model.yaml"
	}
	if cfg.Artifacts.Scaler == "" {
		cfg.Artifacts.Scaler = "artifacts/scaler.yaml"
	}
	if cfg.Artifacts.FeatureNames == "" {
		cfg.Artifacts.FeatureNames = "artifacts/feature_names.yaml"
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 8
	}
	if cfg.Batch.QueueDepth == 0 {
		cfg.Batch.QueueDepth = 1000
	}
	if cfg.Batch.MaxSize == 0 {
		cfg.Batch.MaxSize = 100
	}
	if cfg.Batch.TimeoutMs == 0 {
		cfg.Batch.TimeoutMs = 5000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "churn"
	}
}
