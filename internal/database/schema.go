// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package database

import (
	"context"
	"fmt"
)

// schemaFor returns the CREATE statements for a driver.
func schemaFor(driver, table string) []string {
	switch driver {
	case DriverPostgres:
		return []string{
			"CREATE TABLE IF NOT EXISTS " + table + " (" +
				"id BIGINT PRIMARY KEY, " +
				"occupied_seats INTEGER NOT NULL CHECK (occupied_seats >= 0), " +
				"density_rate DOUBLE PRECISION NOT NULL, " +
				"created_at TIMESTAMPTZ NOT NULL, " +
				"day_of_week INTEGER NOT NULL)",
			"CREATE INDEX IF NOT EXISTS idx_" + table + "_created_at ON " + table + " (created_at)",
		}
	case DriverSQLite:
		return []string{
			"CREATE TABLE IF NOT EXISTS " + table + " (" +
				"id INTEGER PRIMARY KEY, " +
				"occupied_seats INTEGER NOT NULL CHECK (occupied_seats >= 0), " +
				"density_rate REAL NOT NULL, " +
				"created_at TIMESTAMP NOT NULL, " +
				"day_of_week INTEGER NOT NULL)",
			"CREATE INDEX IF NOT EXISTS idx_" + table + "_created_at ON " + table + " (created_at)",
		}
	default:
		return []string{
			"CREATE TABLE IF NOT EXISTS " + table + " (" +
				"id BIGINT PRIMARY KEY, " +
				"occupied_seats INTEGER NOT NULL CHECK (occupied_seats >= 0), " +
				"density_rate DOUBLE NOT NULL, " +
				"created_at TIMESTAMP NOT NULL, " +
				"day_of_week INTEGER NOT NULL)",
		}
	}
}

// EnsureSchema creates the records table if it does not exist.
func (s *Source) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver, s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
