package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/musicscripts/internal/config"
	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/metrics"
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/restart"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	appConfig  *Config
	config     *config.Model
	registry   *registry.Set
	metrics    *metrics.Metrics
	httpServer *http.Server

	// submit overrides the batch submitter in tests.
	submit restart.Submitter
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry and
// metrics.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	model, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	for _, override := range appConfig.Overrides {
		override(model)
	}
	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("invalid command-line options: %w", err))
	}
	logger.Debug("Configuration loaded.", "run", model.Core.Path, "output", model.Output.Driver)

	// Create and populate the registry with Go handlers.
	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewSetFrom(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	return &App{
		ctx:       ctx,
		outW:      outW,
		logger:    logger,
		appConfig: appConfig,
		config:    model,
		registry:  reg,
		metrics:   metrics.New(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Set {
	return a.registry
}

// Config returns the effective configuration model.
func (a *App) Config() *config.Model {
	return a.config
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}
