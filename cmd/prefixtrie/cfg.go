package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/prefixtrie/common/go/logging"
	"github.com/yanet-platform/prefixtrie/filter"
	"github.com/yanet-platform/prefixtrie/internal/kroute"
	"github.com/yanet-platform/prefixtrie/internal/server"
)

// Config represents the main configuration structure.
type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Filter configuration, including the rules.
	Filter *filter.Config `yaml:"filter"`
	// Server configuration of the HTTP lookup API.
	Server *server.Config `yaml:"server"`
	// Routes configures kernel route import.
	Routes *kroute.Config `yaml:"routes"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Filter:  filter.DefaultConfig(),
		Server:  server.DefaultConfig(),
		Routes:  kroute.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
//
// An empty path yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	// An empty section, e.g. "filter:" with no body, decodes to nil.
	defaults := DefaultConfig()
	if cfg.Filter == nil {
		cfg.Filter = defaults.Filter
	}
	if cfg.Server == nil {
		cfg.Server = defaults.Server
	}
	if cfg.Routes == nil {
		cfg.Routes = defaults.Routes
	}

	return cfg, nil
}
