package app

import (
	"errors"
	"fmt"
	"time"
)

// Defaults for optional Config fields.
const (
	DefaultWorkerCount = 4
	DefaultDebounce    = 300 * time.Millisecond
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BuildPaths []string // hcl files or directories
	// Pandoc overrides the converter path of the build files.
	Pandoc string

	LogFormat       string
	LogLevel        string
	OutputFormat    string
	HealthcheckPort int
	WorkerCount     int
	Debounce        time.Duration
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.BuildPaths) == 0 {
		return nil, errors.New("BuildPaths is a required configuration field and cannot be empty")
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch OutputFormat(cfg.OutputFormat) {
	case "":
		cfg.OutputFormat = string(OutputYAML)
	case OutputYAML, OutputJSON:
	default:
		return nil, fmt.Errorf("invalid output format %q: must be 'yaml' or 'json'", cfg.OutputFormat)
	}

	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d", cfg.WorkerCount)
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &cfg, nil
}
