package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "churn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoader_ShippedConfig(t *testing.T) {
	l, err := NewLoader("../../configs/churn.yaml")
	require.NoError(t, err)
	cfg := l.Config()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "artifacts/model.yaml", cfg.Artifacts.Model)
	assert.True(t, cfg.Artifacts.Watch)
	assert.Equal(t, 100, cfg.Batch.MaxSize)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	l, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg := l.Config()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 5*time.Second, cfg.Batch.Timeout())
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, Validate(cfg))
}

func TestLoader_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\nlogging:\n  level: warn\n")
	t.Setenv(EnvAddr, ":7070")
	t.Setenv(EnvModelPath, "/srv/model.json")
	t.Setenv(EnvWatch, "true")
	t.Setenv(EnvOTLPEndpoint, "collector:4317")

	l, err := NewLoader(path)
	require.NoError(t, err)
	cfg := l.Config()
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/srv/model.json", cfg.Artifacts.Model)
	assert.True(t, cfg.Artifacts.Watch)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "collector:4317", cfg.Tracing.OTLPEndpoint)
}

func TestLoader_ParseError(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	_, err := NewLoader(path)
	assert.Error(t, err)
}

func TestLoader_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, "batch:\n  workers: 2\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	var seen *Config
	l.OnChange(func(c *Config) { seen = c })

	require.NoError(t, os.WriteFile(path, []byte("batch:\n  workers: 4\n"), 0o644))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Batch.Workers)
	require.NotNil(t, seen)
	assert.Equal(t, 4, seen.Batch.Workers)
	assert.Equal(t, 4, l.Config().Batch.Workers)
}

func TestLoader_ReloadKeepsOldOnInvalid(t *testing.T) {
	path := writeConfig(t, "batch:\n  workers: 2\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  format: xml\n"), 0o644))
	_, err = l.Reload()
	require.Error(t, err)
	assert.Equal(t, 2, l.Config().Batch.Workers)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Version: "v1",
		Server:  ServerConf{Addr: ""},
		Batch:   BatchConf{Workers: 0, QueueDepth: 10, MaxSize: 5000, TimeoutMs: 10},
		Logging: LoggingConf{Level: "loud", Format: "text"},
	}
	err := Validate(cfg)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"server.addr is required",
		"artifacts.model is required",
		"batch.workers must be positive",
		"batch.max_size must be between 1 and 1000",
		"batch.queue_depth (10) must be >= batch.max_size (5000)",
		`logging.level "loud"`,
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in:\n%s", want, msg)
	}
}

func TestValidate_QueueDepthCoversMaxBatch(t *testing.T) {
	cfg := &Config{
		Version:   "v1",
		Server:    ServerConf{Addr: ":8080"},
		Artifacts: ArtifactsConf{Model: "m.yaml", Scaler: "s.yaml", FeatureNames: "f.yaml"},
		Batch:     BatchConf{Workers: 1, QueueDepth: 2, MaxSize: 3, TimeoutMs: 100},
		Logging:   LoggingConf{Level: "info", Format: "text"},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.queue_depth (2) must be >= batch.max_size (3)")

	cfg.Batch.QueueDepth = 3
	assert.NoError(t, Validate(cfg))
}

func TestWatchFiles_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "model.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("a"), 0o644))

	changed := make(chan string, 8)
	stop, err := WatchFiles([]string{watched}, func(p string) { changed <- p })
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("b"), 0o644))

	abs, _ := filepath.Abs(watched)
	select {
	case got := <-changed:
		assert.Equal(t, abs, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}
