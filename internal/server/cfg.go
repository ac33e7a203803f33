package server

import (
	"time"
)

// Config is the HTTP lookup service configuration.
type Config struct {
	// Endpoint is the address to listen on.
	Endpoint string `yaml:"endpoint"`
	// ListenAttempts is the number of bind attempts before giving up.
	ListenAttempts int `yaml:"listen_attempts"`
	// ShutdownTimeout limits graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:        "[::1]:8090",
		ListenAttempts:  5,
		ShutdownTimeout: 5 * time.Second,
	}
}
