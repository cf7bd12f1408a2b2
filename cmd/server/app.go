// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/api"
	"github.com/tomtom215/seatcast/internal/config"
	"github.com/tomtom215/seatcast/internal/database"
	"github.com/tomtom215/seatcast/internal/events"
	"github.com/tomtom215/seatcast/internal/forecast"
	"github.com/tomtom215/seatcast/internal/forecast/algorithms"
	"github.com/tomtom215/seatcast/internal/forecast/storage"
	"github.com/tomtom215/seatcast/internal/logging"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/prediction"
	"github.com/tomtom215/seatcast/internal/report"
	"github.com/tomtom215/seatcast/internal/scheduler"
	"github.com/tomtom215/seatcast/internal/supervisor"
	"github.com/tomtom215/seatcast/internal/supervisor/services"
	"github.com/tomtom215/seatcast/internal/websocket"
)

// app holds every component of one process.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	source    *database.Source
	store     *storage.Store
	predictor *prediction.Service
	reports   *report.Generator
	state     *scheduler.BadgerStateStore
	nats      *events.EmbeddedServer
	bus       *events.Bus
	scheduler *scheduler.Scheduler

	// closers run in reverse order.
	closers []func() error
}

// newApp wires the components in dependency order. On error everything
// opened so far is closed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	a.source, err = database.Open(ctx, database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		Table:        cfg.Database.Table,
		CreateSchema: cfg.Database.CreateSchema,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		QueryTimeout: cfg.Database.QueryTimeout,
	}, logger)
	if err != nil {
		return a, fmt.Errorf("open data source: %w", err)
	}
	a.closers = append(a.closers, a.source.Close)

	if cfg.Database.SeedFile != "" {
		if err = a.seed(ctx, cfg.Database.SeedFile); err != nil {
			return a, err
		}
	}

	trainer, err := forecast.NewTrainer(trainerConfig(cfg.Training), logger)
	if err != nil {
		return a, fmt.Errorf("create trainer: %w", err)
	}

	if a.store, err = storage.NewStore(cfg.Storage.ArtifactDir, logger); err != nil {
		return a, fmt.Errorf("open artifact store: %w", err)
	}

	a.predictor = prediction.NewService(a.store, a.source, prediction.Config{Capacity: cfg.Prediction.Capacity}, logger)

	if a.reports, err = report.NewGenerator(cfg.Storage.ReportDir, a.predictor, logger); err != nil {
		return a, fmt.Errorf("open report store: %w", err)
	}

	if a.state, err = scheduler.OpenBadgerStateStore(cfg.Storage.StateDir); err != nil {
		return a, fmt.Errorf("open scheduler state: %w", err)
	}
	a.closers = append(a.closers, a.state.Close)

	if err = a.openEvents(logger); err != nil {
		return a, err
	}

	a.scheduler, err = scheduler.New(ctx, scheduler.Config{
		CycleDays:    cfg.Scheduler.CycleDays,
		Targets:      models.AllTargets,
		WeekdayOnly:  true,
		LookbackDays: cfg.Scheduler.LookbackDays,
	}, scheduler.Deps{
		Source:  a.source,
		Trainer: trainer,
		Store:   a.store,
		Reports: a.reports,
		Events:  a.bus,
		State:   a.state,
	}, logger)
	if err != nil {
		return a, fmt.Errorf("create scheduler: %w", err)
	}
	return a, nil
}

func (a *app) seed(ctx context.Context, path string) error {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	n, err := a.source.Seed(ctx, f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	a.logger.Info().Str("file", path).Int("records", n).Msg("seeded historical records")
	return nil
}

// openEvents starts the embedded NATS server when requested and connects
// the run event bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (a *app) openEvents(logger zerolog.Logger) error {
	busCfg := events.Config{
		URL:           a.cfg.NATS.URL,
		MaxReconnects: a.cfg.NATS.MaxReconnects,
		ReconnectWait: a.cfg.NATS.ReconnectWait,
	}

	if a.cfg.NATS.Embedded {
		ns, err := events.NewEmbeddedServer(events.ServerConfig{
			Host:     a.cfg.NATS.Host,
			Port:     a.cfg.NATS.Port,
			StoreDir: a.cfg.NATS.StoreDir,
		})
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		a.nats = ns
		a.closers = append(a.closers, func() error {
			if !ns.IsRunning() {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return ns.Shutdown(ctx)
		})
		busCfg.URL = ns.ClientURL()
		logger.Info().Str("url", busCfg.URL).Msg("embedded NATS server started")
	}

	bus, err := events.NewBus(busCfg, logger)
	if err != nil {
		return fmt.Errorf("connect event bus: %w", err)
	}
	a.bus = bus
	a.closers = append(a.closers, bus.Close)
	logger.Info().Str("transport", bus.Transport()).Msg("run event bus ready")
	return nil
}

// Serve runs the supervisor tree until ctx ends. withAPI adds the HTTP
// server and the websocket hub; without it only the monitor loop runs.
func (a *app) Serve(ctx context.Context, withAPI bool) error {
	tree := supervisor.NewTree(logging.NewSlogLogger(a.logger), supervisor.TreeConfig{
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	})

	tree.AddTrainingService(services.NewMonitorService(a.scheduler, services.MonitorConfig{
		PollInterval: a.cfg.Scheduler.PollInterval,
	}, a.logger))

	if a.nats != nil {
		tree.AddMessagingService(services.NewNATSServerService(a.nats, a.cfg.Server.ShutdownTimeout))
	}

	if withAPI {
		hub := websocket.NewHub(a.logger)
		tree.AddMessagingService(services.NewWebSocketHubService(hub, a.bus))

		handler := api.NewHandler(api.Deps{
			Predictor:      a.predictor,
			Reports:        a.reports,
			Runs:           a.scheduler,
			History:        a.source,
			Database:       a.source,
			Hub:            hub,
			BaseContext:    ctx,
			AllowedOrigins: a.cfg.Server.CORSOrigins,
		}, a.logger)

		srv := &http.Server{
			Addr:              a.cfg.Server.Addr,
			Handler:           api.NewRouter(handler, a.cfg.Server),
			ReadTimeout:       a.cfg.Server.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      a.cfg.Server.WriteTimeout,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		tree.AddAPIService(services.NewHTTPServerService(srv, a.cfg.Server.ShutdownTimeout))
		a.logger.Info().Str("addr", srv.Addr).Msg("HTTP API enabled")
	}

	err := tree.Serve(ctx)
	if unstopped, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(unstopped) > 0 {
		a.logger.Warn().Int("count", len(unstopped)).Msg("services did not stop within the shutdown timeout")
	}
	return err
}

// Close releases every opened resource in reverse order.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn().Err(err).Msg("errors while closing")
	}
}

// trainerConfig maps the training section onto the trainer's config.
func trainerConfig(c config.TrainingConfig) forecast.Config {
	families := make([]algorithms.Family, 0, len(c.Families))
	for _, f := range c.Families {
		families = append(families, algorithms.Family(f))
	}
	return forecast.Config{
		Trials:       c.Trials,
		Seed:         c.Seed,
		Folds:        c.Folds,
		TestFraction: c.TestFraction,
		MinRecords:   c.MinRecords,
		Families:     families,
		Workers:      c.Workers,
	}
}
