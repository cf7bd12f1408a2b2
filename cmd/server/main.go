// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package main is the seatcast entrypoint.
//
// Seatcast predicts weekday seat occupancy from historical sensor records,
// retrains its models every cycle and serves predictions over HTTP.
//
// # Modes
//
//	-mode=check    run the scheduler once if a cycle is due, then exit
//	-mode=force    train, save and report once regardless of the cycle
//	-mode=monitor  poll the scheduler until SIGINT/SIGTERM
//	-mode=serve    monitor plus the HTTP API and websocket event stream (default)
//
// check and force print the run outcome as JSON on stdout and exit 1 when the
// run failed. A run blocked by another active run exits 0 without doing
// anything.
//
// # Configuration
//
// Settings load from built-in defaults, then a YAML file (-config,
// CONFIG_PATH or ./config.yaml), then environment variables such as
// DB_DRIVER, DB_DSN, ARTIFACT_DIR and HTTP_ADDR. See internal/config.
//
// # Example
//
//	DB_DRIVER=sqlite3 DB_DSN=/data/history.db DB_SEED_FILE=/data/history.csv \
//	  ./seatcast -mode=force
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seatcast/internal/config"
	"github.com/tomtom215/seatcast/internal/logging"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/scheduler"
)

// Run modes.
const (
	modeCheck   = "check"
	modeForce   = "force"
	modeMonitor = "monitor"
	modeServe   = "serve"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("seatcast", flag.ContinueOnError)
	mode := fs.String("mode", modeServe, "check, force, monitor or serve")
	configPath := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := validMode(*mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		return 1
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()
	logger.Info().
		Str("mode", *mode).
		Str("db_driver", cfg.Database.Driver).
		Str("artifact_dir", cfg.Storage.ArtifactDir).
		Msg("starting seatcast")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize")
		return 1
	}
	defer app.Close()

	switch *mode {
	case modeCheck:
		return runOnce(ctx, app.scheduler.Check, stdout)
	case modeForce:
		return runOnce(ctx, app.scheduler.Force, stdout)
	default:
		if err := app.Serve(ctx, *mode == modeServe); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("supervisor stopped with error")
			return 1
		}
		logger.Info().Msg("shutdown complete")
		return 0
	}
}

func validMode(mode string) error {
	switch mode {
	case modeCheck, modeForce, modeMonitor, modeServe:
		return nil
	}
	return fmt.Errorf("unknown mode %q: want check, force, monitor or serve", mode)
}

// runOnce executes a single scheduler pass and prints its outcome.
func runOnce(ctx context.Context, fn func(context.Context) (*scheduler.Outcome, error), stdout io.Writer) int {
	out, err := fn(ctx)
	if errors.Is(err, models.ErrLockContention) {
		logging.Warn().Err(err).Msg("another run is active, nothing to do")
		return 0
	}
	if out != nil {
		data, merr := json.MarshalIndent(out, "", "  ")
		if merr == nil {
			fmt.Fprintln(stdout, string(data))
		}
	}
	if err != nil {
		logging.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}
