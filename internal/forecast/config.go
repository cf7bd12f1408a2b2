// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package forecast

import (
	"fmt"
	"runtime"

	"github.com/tomtom215/seatcast/internal/forecast/algorithms"
)

// Config contains configuration for the Trainer.
type Config struct {
	// Trials is the hyperparameter-search budget per algorithm family.
	Trials int

	// Seed drives the split, the samplers and every model fit.
	// If zero, a fixed default seed is used.
	Seed int64

	// Folds is the number of cross-validation folds.
	Folds int

	// TestFraction is the share of records held out for final evaluation.
	TestFraction float64

	// MinRecords is the smallest dataset the trainer accepts.
	MinRecords int

	// Families restricts the candidate algorithm families.
	// Empty means every family.
	Families []algorithms.Family

	// Workers bounds how many family studies run at once.
	Workers int
}

// DefaultConfig returns the default trainer configuration.
func DefaultConfig() Config {
	return Config{
		Trials:       50,
		Seed:         42,
		Folds:        5,
		TestFraction: 0.2,
		MinRecords:   10,
		Families:     append([]algorithms.Family(nil), algorithms.Families...),
		Workers:      runtime.NumCPU(),
	}
}

// applyDefaults fills zero values from DefaultConfig.
//
//nolint:gocritic // Config is small and copied intentionally
func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Trials == 0 {
		cfg.Trials = def.Trials
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.Folds == 0 {
		cfg.Folds = def.Folds
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = def.TestFraction
	}
	if cfg.MinRecords == 0 {
		cfg.MinRecords = def.MinRecords
	}
	if len(cfg.Families) == 0 {
		cfg.Families = def.Families
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return cfg
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Trials < 1 {
		return fmt.Errorf("trials must be positive, got %d", c.Trials)
	}
	if c.Folds < 2 {
		return fmt.Errorf("folds must be at least 2, got %d", c.Folds)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0, 1), got %v", c.TestFraction)
	}
	if c.MinRecords < 2*c.Folds {
		return fmt.Errorf("min records (%d) must be at least twice the fold count (%d)", c.MinRecords, c.Folds)
	}
	for _, f := range c.Families {
		if !f.Valid() {
			return fmt.Errorf("unknown algorithm family %q", f)
		}
	}
	return nil
}
