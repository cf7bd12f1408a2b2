// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/seatcast/internal/validation"
)

// Validate checks field rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return errors.New("DB_DSN is required when DB_DRIVER is postgres")
	}
	if c.NATS.Embedded && c.NATS.URL != "" {
		return errors.New("NATS_URL and NATS_EMBEDDED are mutually exclusive")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive when RATE_LIMIT_REQUESTS is set")
	}
	if c.Training.TestFraction*float64(c.Training.MinRecords) < 1 {
		return fmt.Errorf("training.test_fraction %.2f holds out no records at min_records %d",
			c.Training.TestFraction, c.Training.MinRecords)
	}
	return nil
}
