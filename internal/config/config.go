// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package config

import (
	"runtime"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Database   DatabaseConfig   `koanf:"database"`
	Storage    StorageConfig    `koanf:"storage"`
	Training   TrainingConfig   `koanf:"training"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Prediction PredictionConfig `koanf:"prediction"`
	Server     ServerConfig     `koanf:"server"`
	NATS       NATSConfig       `koanf:"nats"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the historical data source.
type DatabaseConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=duckdb postgres sqlite3"`
	DSN          string        `koanf:"dsn"`
	Table        string        `koanf:"table" validate:"required,max=63"`
	CreateSchema bool          `koanf:"create_schema"`
	SeedFile     string        `koanf:"seed_file"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gte=1s"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"min=0"`
}

// StorageConfig names the on-disk directories.
type StorageConfig struct {
	ArtifactDir string `koanf:"artifact_dir" validate:"required"`
	ReportDir   string `koanf:"report_dir" validate:"required"`
	StateDir    string `koanf:"state_dir" validate:"required"`
}

// TrainingConfig configures the model trainer.
type TrainingConfig struct {
	Trials       int      `koanf:"trials" validate:"min=1,max=1000"`
	Seed         int64    `koanf:"seed"`
	Folds        int      `koanf:"folds" validate:"min=2,max=20"`
	TestFraction float64  `koanf:"test_fraction" validate:"gt=0,lt=1"`
	MinRecords   int      `koanf:"min_records" validate:"min=3"`
	Families     []string `koanf:"families" validate:"dive,family"`
	Workers      int      `koanf:"workers" validate:"min=0"`
}

// SchedulerConfig configures periodic retraining.
type SchedulerConfig struct {
	CycleDays    int           `koanf:"cycle_days" validate:"min=1"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=1s"`
	LookbackDays int           `koanf:"lookback_days" validate:"min=0"`
}

// PredictionConfig configures derived prediction values.
type PredictionConfig struct {
	Capacity int `koanf:"capacity" validate:"min=1"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"hostname_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gte=1s"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gte=1s"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gte=1s"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// NATSConfig configures the run event bus.
type NATSConfig struct {
	// URL of an external server. Empty keeps events in-process unless
	// Embedded is set.
	URL           string        `koanf:"url" validate:"omitempty,url"`
	Embedded      bool          `koanf:"embedded"`
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port" validate:"min=-1,max=65535"`
	StoreDir      string        `koanf:"store_dir"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			DSN:          "/data/seatcast.duckdb",
			Table:        "density_history",
			CreateSchema: true,
			QueryTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			ArtifactDir: "/data/models",
			ReportDir:   "/data/reports",
			StateDir:    "/data/state",
		},
		Training: TrainingConfig{
			Trials:       50,
			Seed:         42,
			Folds:        5,
			TestFraction: 0.2,
			MinRecords:   10,
			Families:     []string{"ridge", "elastic_net", "svr", "random_forest", "gradient_boosting"},
			Workers:      runtime.NumCPU(),
		},
		Scheduler: SchedulerConfig{
			CycleDays:    14,
			PollInterval: time.Hour,
		},
		Prediction: PredictionConfig{
			Capacity: 100,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		NATS: NATSConfig{
			Host:          "127.0.0.1",
			Port:          4222,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
	}
}
