package config

import (
	"fmt"
	"strings"
)

const maxBatchSize = 1000

// Validate checks the config for:
//   - Required fields (listen address, artifact paths)
//   - Positive pool sizes and timeouts
//   - A batch queue deep enough for the largest batch
//   - Known logging level and format
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Version == "" {
		errs = append(errs, "version is required")
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if cfg.Server.ReadTimeoutMs < 0 || cfg.Server.WriteTimeoutMs < 0 || cfg.Server.IdleTimeoutMs < 0 {
		errs = append(errs, "server timeouts must not be negative")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, "server.max_body_bytes must not be negative")
	}

	for _, a := range []struct{ name, path string }{
		{"artifacts.model", cfg.Artifacts.Model},
		{"artifacts.scaler", cfg.Artifacts.Scaler},
		{"artifacts.feature_names", cfg.Artifacts.FeatureNames},
	} {
		if a.path == "" {
			errs = append(errs, fmt.Sprintf("%s is required", a.name))
		}
	}

	if cfg.Batch.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("batch.workers must be positive, got %d", cfg.Batch.Workers))
	}
	if cfg.Batch.QueueDepth <= 0 {
		errs = append(errs, fmt.Sprintf("batch.queue_depth must be positive, got %d", cfg.Batch.QueueDepth))
	}
	if cfg.Batch.MaxSize <= 0 || cfg.Batch.MaxSize > maxBatchSize {
		errs = append(errs, fmt.Sprintf("batch.max_size must be between 1 and %d, got %d", maxBatchSize, cfg.Batch.MaxSize))
	}
	// A batch is enqueued all at once, so the queue must hold the largest one.
	if cfg.Batch.QueueDepth > 0 && cfg.Batch.QueueDepth < cfg.Batch.MaxSize {
		errs = append(errs, fmt.Sprintf("batch.queue_depth (%d) must be >= batch.max_size (%d)", cfg.Batch.QueueDepth, cfg.Batch.MaxSize))
	}
	if cfg.Batch.TimeoutMs <= 0 {
		errs = append(errs, fmt.Sprintf("batch.timeout_ms must be positive, got %d", cfg.Batch.TimeoutMs))
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level))
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q is not one of text, json", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
