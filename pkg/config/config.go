// Package config loads aisflow configuration.
// Priority: defaults < config file < environment < flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all aisflow configuration.
type Config struct {
	Version int `yaml:"version"`

	Input    InputConfig    `yaml:"input"`
	Storage  StorageConfig  `yaml:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// InputConfig locates the raw message files.
type InputConfig struct {
	// Dir is the directory holding the input files.
	Dir string `yaml:"dir"`

	// Source is the provenance tag stamped on ingested records.
	Source int `yaml:"source"`
}

// StorageConfig selects and connects the storage backend.
type StorageConfig struct {
	// Backend is "postgres" or "duckdb".
	Backend string `yaml:"backend"`

	// DSN is the Postgres connection string, or the database file path
	// for DuckDB.
	DSN string `yaml:"dsn"`
}

// PipelineConfig tunes the ingestion engine.
type PipelineConfig struct {
	// QueueCapacity bounds each sink queue (and the maximum batch size).
	QueueCapacity int `yaml:"queue_capacity"`

	// ErrorLogDir receives one rejected-record CSV per input file.
	ErrorLogDir string `yaml:"error_log_dir"`
}

// TelemetryConfig enables optional trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Input: InputConfig{
			Dir: "data",
		},
		Storage: StorageConfig{
			Backend: "duckdb",
			DSN:     "aisflow.db",
		},
		Pipeline: PipelineConfig{
			QueueCapacity: 5000,
			ErrorLogDir:   "baddata",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// AISFLOW_* environment variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var partial Config
		if err := yaml.Unmarshal(data, &partial); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.merge(&partial)
	}

	cfg.loadEnv()
	return cfg, nil
}

// merge copies non-zero values from src.
func (c *Config) merge(src *Config) {
	if src.Input.Dir != "" {
		c.Input.Dir = src.Input.Dir
	}
	if src.Input.Source != 0 {
		c.Input.Source = src.Input.Source
	}
	if src.Storage.Backend != "" {
		c.Storage.Backend = src.Storage.Backend
	}
	if src.Storage.DSN != "" {
		c.Storage.DSN = src.Storage.DSN
	}
	if src.Pipeline.QueueCapacity != 0 {
		c.Pipeline.QueueCapacity = src.Pipeline.QueueCapacity
	}
	if src.Pipeline.ErrorLogDir != "" {
		c.Pipeline.ErrorLogDir = src.Pipeline.ErrorLogDir
	}
	if src.Telemetry.Enabled {
		c.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		c.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv applies AISFLOW_* overrides.
func (c *Config) loadEnv() {
	if v := os.Getenv("AISFLOW_INPUT_DIR"); v != "" {
		c.Input.Dir = v
	}
	if v := os.Getenv("AISFLOW_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("AISFLOW_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("AISFLOW_ERROR_LOG_DIR"); v != "" {
		c.Pipeline.ErrorLogDir = v
	}
	if v := os.Getenv("AISFLOW_QUEUE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.QueueCapacity = n
		}
	}
	if v := os.Getenv("AISFLOW_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Endpoint = v
	}
}
