package app

import (
	"fmt"
	"strings"
)

// DefaultConfigPath is read when no configuration path is given.
const DefaultConfigPath = "doop.hcl"

// Config holds process-level settings, usually taken from CLI flags.
// Pointer fields override the project configuration only when set.
type Config struct {
	ConfigPaths []string

	LogFormat string
	LogLevel  string
	// LogFile additionally receives every log record when set.
	LogFile string

	Orphans       *bool
	URL           *bool
	GlobalEmitter string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if len(cfg.ConfigPaths) == 0 {
		cfg.ConfigPaths = []string{DefaultConfigPath}
	}
	return &cfg, nil
}
