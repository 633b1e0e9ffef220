package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/vk/musicscripts/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Command is the name of the command to run.
	Command string
	// ConfigPaths are the configuration files or directories to load.
	ConfigPaths []string
	// Overrides are applied to the loaded model in order, typically one per
	// command-line flag the user set.
	Overrides []func(*config.Model)

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	// AssumeYes skips interactive confirmations.
	AssumeYes bool
	// Stdin is read for confirmations. Nil means no input.
	Stdin io.Reader
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		return nil, errors.New("a command is required")
	}
	if _, ok := commands[cfg.Command]; !ok {
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.WorkerCount)
	}
	return &cfg, nil
}
