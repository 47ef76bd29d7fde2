package config

import "time"

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	Artifacts ArtifactsConf `yaml:"artifacts"`
	Batch     BatchConf     `yaml:"batch"`
	Logging   LoggingConf   `yaml:"logging"`
	Tracing   TracingConf   `yaml:"tracing"`
}

// ServerConf holds HTTP listener settings.
type ServerConf struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	IdleTimeoutMs  int    `yaml:"idle_timeout_ms"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes"`
}

func (s ServerConf) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func (s ServerConf) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

func (s ServerConf) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMs) * time.Millisecond
}

// ArtifactsConf locates the fitted model files.
type ArtifactsConf struct {
	Model        string `yaml:"model"`
	Scaler       string `yaml:"scaler"`
	FeatureNames string `yaml:"feature_names"`
	Watch        bool   `yaml:"watch"` // reload on file change
}

// BatchConf tunes the batch scoring pool.
type BatchConf struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
	MaxSize    int `yaml:"max_size"`
	TimeoutMs  int `yaml:"timeout_ms"`
}

func (b BatchConf) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

type LoggingConf struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type TracingConf struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"` // empty disables tracing
	ServiceName  string `yaml:"service_name"`
}
