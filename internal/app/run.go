package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vk/musicscripts/internal/ctxlog"
)

type command struct {
	summary string
	run     func(ctx context.Context, s *session) error
}

// commands maps command names to their implementation.
var commands = map[string]command{
	"field":         {"export a field of every selected dump", runField},
	"rprof":         {"export a time-averaged radial profile", runRprof},
	"tseries":       {"export a time series", runTseries},
	"info":          {"print information about the run", runInfo},
	"igw":           {"export the internal gravity waves power spectrum", runIGW},
	"restart":       {"restart a MUSIC run from batch files", runRestart},
	"renumber":      {"renumber dumps from 1", runRenumber},
	"pendepth":      {"export penetration depth contours from PP data", runPendepth},
	"field_pp":      {"export a field from PP data", runFieldPP},
	"contour_pp":    {"export contour fields from PP data", runContourPP},
	"rprof_pp":      {"export a radial profile from PP data", runRprofPP},
	"rprof_tave_pp": {"export a time-averaged radial profile from PP data", runRprofTavePP},
	"lmax":          {"export the lmax time series from PP data", runLmax},
	"lscale":        {"export the relative temperature perturbation of a binary file", runLscale},
	"mesa1d":        {"export radial profiles of a 1D stellar model", runMesa1d},
}

// CommandInfo describes a command for usage texts.
type CommandInfo struct {
	Name    string
	Summary string
}

// Commands lists the available commands sorted by name.
func Commands() []CommandInfo {
	out := make([]CommandInfo, 0, len(commands))
	for name, c := range commands {
		out = append(out, CommandInfo{Name: name, Summary: c.summary})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.With(ctxlog.WithLogger(ctx, a.logger), "command", a.appConfig.Command)
	a.logger.Debug("App.Run method started.", "command", a.appConfig.Command)

	if err := a.healthCheckServer(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.closeHealthCheckServer())
	}()

	cmd, ok := commands[a.appConfig.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", a.appConfig.Command)
	}

	s := newSession(a)
	defer func() {
		err = errors.Join(err, s.close())
	}()

	a.logger.Info("🚀 Running command.", "command", a.appConfig.Command)
	start := time.Now()
	runErr := cmd.run(ctx, s)
	a.metrics.ObserveCommand(a.appConfig.Command, time.Since(start), runErr)
	if runErr != nil {
		return fmt.Errorf("%s: %w", a.appConfig.Command, runErr)
	}
	a.logger.Info("🏁 Command finished.", "command", a.appConfig.Command, "duration", time.Since(start))

	a.logger.Debug("App.Run method finished.")
	return nil
}
