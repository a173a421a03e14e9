// Package main provides the forklaunch CLI entry point.
//
// forklaunch forks, replaces the child's image with a target executable and
// waits in the parent for the child's exit status, reporting each stage.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/randomizedcoder/go-forklaunch/internal/config"
	"github.com/randomizedcoder/go-forklaunch/internal/launcher"
	"github.com/randomizedcoder/go-forklaunch/internal/logging"
	"github.com/randomizedcoder/go-forklaunch/internal/metrics"
	"github.com/randomizedcoder/go-forklaunch/internal/preflight"
	"github.com/randomizedcoder/go-forklaunch/internal/process"
	"github.com/randomizedcoder/go-forklaunch/internal/report"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/forklaunch
var version = "dev"

// Exit codes of forklaunch itself. The child's code is only reported.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, process.NewUnix()))
}

func run(args []string, stdout, stderr io.Writer, sys process.System) int {
	// Handle version flag early (before flag parsing)
	if len(args) > 0 {
		arg := args[0]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Fprintf(stdout, "forklaunch %s\n", version)
			return exitOK
		}
	}

	cfg, err := config.Parse(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	logger := logging.NewLoggerWithWriter(stderr, cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	logger = logging.WithBranch(logger, sys.Cloned(), sys.PID())
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	// The clone re-parses the same argv; everything before the fork point
	// already ran in its parent.
	if !sys.Cloned() {
		logger.Info("starting",
			"version", version,
			"target", cfg.Target,
			"argv", cfg.Argv(),
		)
		if cfg.Preflight {
			preflight.PrintResults(stderr, preflight.RunAll(cfg.Target))
		}
	}

	l := launcher.New(launcher.Config{
		System:   sys,
		Reporter: report.NewConsole(stdout, stderr, cfg.NoColor),
		Logger:   logger,
	})

	outcome, launchErr := l.Launch(cfg.Target, cfg.Argv())

	if !sys.Cloned() && cfg.MetricsTextfile != "" {
		writeMetrics(cfg, logger, outcome, launchErr)
	}

	if launchErr != nil {
		return exitFailed
	}
	return exitOK
}

// writeMetrics records the parent's view of the launch to the textfile.
func writeMetrics(cfg *config.Config, logger *slog.Logger, outcome launcher.ExitOutcome, launchErr error) {
	rec := metrics.NewRecorder(version, cfg.Target)

	var cerr *launcher.ProcessCreationError
	var werr *launcher.WaitError
	switch {
	case errors.As(launchErr, &cerr):
		rec.ObserveFailure(metrics.ResultForkFailed)
	case errors.As(launchErr, &werr):
		rec.ObserveFailure(metrics.ResultWaitFailed)
	case launchErr == nil:
		rec.ObserveOutcome(outcome)
	default:
		return
	}

	if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Warn("metrics_write_failed", "path", cfg.MetricsTextfile, "error", err)
		return
	}
	logger.Debug("metrics_written", "path", cfg.MetricsTextfile)
}
