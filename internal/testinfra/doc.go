// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

// Package testinfra starts throwaway containers for integration tests.
//
// Files are guarded by the integration build tag and need a Docker daemon:
//
//	go test -tags integration ./internal/database/...
//
// # PostgreSQL
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg.Container)
//
//	src, err := database.Open(ctx, database.Config{
//	    Driver:       database.DriverPostgres,
//	    DSN:          pg.DSN,
//	    CreateSchema: true,
//	}, zerolog.Nop())
//
// Tests are skipped when Docker is unavailable. The first run pulls the
// image; later runs use the local cache.
package testinfra
