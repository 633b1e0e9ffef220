package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/musicscripts/internal/app"
	"github.com/vk/musicscripts/internal/hcl_adapter"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("music-scripts", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
music-scripts - Post-processing of MUSIC simulations.

Usage:
  music-scripts [options] COMMAND [command options]

Commands:
`)
		for _, c := range app.Commands() {
			fmt.Fprintf(output, "  %-14s %s\n", c.Name, c.Summary)
		}
		fmt.Fprint(output, "\nOptions:\n")
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Comma separated configuration files or directories. Defaults to "+hcl_adapter.DefaultFile+" when present.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for per-dump commands.")
	yesFlag := flagSet.Bool("yes", false, "Assume yes to confirmations.")
	global := newBinder(flagSet)
	globalFlags(global)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := flagSet.Arg(0)
	register, ok := commandFlags[command]
	if !ok {
		return nil, false, usageError("unknown command %q, run music-scripts -h for the list", command)
	}

	cmdSet := flag.NewFlagSet("music-scripts "+command, flag.ContinueOnError)
	cmdSet.SetOutput(output)
	local := newBinder(cmdSet)
	register(local)
	if err := cmdSet.Parse(flagSet.Args()[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s: %s", command, err.Error())
	}
	if cmdSet.NArg() > 0 {
		return nil, false, usageError("%s: unexpected arguments %v", command, cmdSet.Args())
	}
	slog.Debug("Command determined.", "command", command)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	configPaths := []string{hcl_adapter.DefaultFile}
	if *configFlag != "" {
		configPaths = nil
		for _, p := range strings.Split(*configFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				configPaths = append(configPaths, p)
			}
		}
	}

	config, err := app.NewConfig(app.Config{
		Command:         command,
		ConfigPaths:     configPaths,
		Overrides:       append(global.overrides(), local.overrides()...),
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		WorkerCount:     *workersFlag,
		AssumeYes:       *yesFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command, "overrides", len(config.Overrides))
	return config, false, nil
}
