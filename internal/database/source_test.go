// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/models"
)

func openTestSource(t *testing.T, driver string) *Source {
	t.Helper()
	src, err := Open(context.Background(), Config{Driver: driver, CreateSchema: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(%s) error = %v", driver, err)
	}
	t.Cleanup(func() { _ = src.Close() }) //nolint:errcheck // test cleanup
	return src
}

// fixtureRecords spans two weeks including a weekend record.
func fixtureRecords() []models.HistoricalRecord {
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var out []models.HistoricalRecord
	for i := 0; i < 14; i++ {
		ts := monday.AddDate(0, 0, i)
		out = append(out, models.HistoricalRecord{
			ID:            int64(i + 1),
			OccupiedSeats: i % 6,
			DensityRate:   float64(10 + i),
			CreatedAt:     ts,
			DayOfWeek:     WeekdayIndex(ts),
		})
	}
	return out
}

var drivers = []string{DriverSQLite, DriverDuckDB}

func TestSource_QueryFilters(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			src := openTestSource(t, driver)
			ctx := context.Background()
			if err := src.Insert(ctx, fixtureRecords()); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			all, err := src.Query(ctx, false, nil)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(all) != 14 {
				t.Errorf("len(all) = %d, want 14", len(all))
			}
			for i := 1; i < len(all); i++ {
				if all[i].CreatedAt.Before(all[i-1].CreatedAt) {
					t.Errorf("records not ordered at %d", i)
				}
			}

			weekdays, err := src.Query(ctx, true, nil)
			if err != nil {
				t.Fatalf("Query(weekdayOnly) error = %v", err)
			}
			if len(weekdays) != 10 {
				t.Errorf("len(weekdays) = %d, want 10", len(weekdays))
			}
			for _, r := range weekdays {
				if r.DayOfWeek > 4 {
					t.Errorf("weekend record %d returned", r.ID)
				}
			}

			since := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
			recent, err := src.Query(ctx, true, &since)
			if err != nil {
				t.Fatalf("Query(since) error = %v", err)
			}
			if len(recent) != 5 {
				t.Errorf("len(recent) = %d, want 5", len(recent))
			}
			if len(recent) > 0 && recent[0].CreatedAt.Before(since) {
				t.Errorf("first recent record at %v, before %v", recent[0].CreatedAt, since)
			}
		})
	}
}

func TestSource_CountByDay(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			src := openTestSource(t, driver)
			ctx := context.Background()
			if err := src.Insert(ctx, fixtureRecords()); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			counts, err := src.CountByDay(ctx)
			if err != nil {
				t.Fatalf("CountByDay() error = %v", err)
			}
			if len(counts) != 5 {
				t.Errorf("days = %d, want 5", len(counts))
			}
			for day := 0; day <= 4; day++ {
				if counts[day] != 2 {
					t.Errorf("counts[%d] = %d, want 2", day, counts[day])
				}
			}
		})
	}
}

func TestSource_RecentAndCount(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			src := openTestSource(t, driver)
			ctx := context.Background()

			n, err := src.Count(ctx)
			if err != nil || n != 0 {
				t.Fatalf("Count() on empty table = %d, %v", n, err)
			}
			if err := src.Insert(ctx, fixtureRecords()); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}

			n, err = src.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != 14 {
				t.Errorf("Count() = %d, want 14 (weekends included)", n)
			}

			recent, err := src.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(recent) != 3 {
				t.Fatalf("len(Recent(3)) = %d", len(recent))
			}
			want := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
			if !recent[0].CreatedAt.Equal(want) {
				t.Errorf("newest = %v, want %v", recent[0].CreatedAt, want)
			}
			for i := 1; i < len(recent); i++ {
				if recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
					t.Errorf("recent not newest-first at %d", i)
				}
			}

			all, err := src.Recent(ctx, 100)
			if err != nil || len(all) != 14 {
				t.Errorf("Recent(100) = %d records, %v", len(all), err)
			}

			for _, limit := range []int{0, -1, MaxRecentLimit + 1} {
				if _, err := src.Recent(ctx, limit); !errors.Is(err, models.ErrValidation) {
					t.Errorf("Recent(%d) error = %v, want ErrValidation", limit, err)
				}
			}
		})
	}
}

func TestSource_InsertAssignsIDs(t *testing.T) {
	src := openTestSource(t, DriverSQLite)
	ctx := context.Background()

	if err := src.Insert(ctx, fixtureRecords()[:3]); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	extra := []models.HistoricalRecord{
		{OccupiedSeats: 1, DensityRate: 5, CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC), DayOfWeek: 2},
		{OccupiedSeats: 2, DensityRate: 6, CreatedAt: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC), DayOfWeek: 3},
	}
	if err := src.Insert(ctx, extra); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	all, err := src.Query(ctx, false, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	if all[3].ID != 4 || all[4].ID != 5 {
		t.Errorf("assigned ids = %d,%d, want 4,5", all[3].ID, all[4].ID)
	}
}

func TestSource_Seed(t *testing.T) {
	src := openTestSource(t, DriverDuckDB)
	csvData := `id,occupied_seats,density_rate,created_at
1,3,20.5,2026-03-02T09:00:00Z
2,4,22.0,2026-03-03 09:30:00
3,0,0,2026-03-07T10:00:00Z
`
	n, err := src.Seed(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Seed() = %d, want 3", n)
	}

	weekdays, err := src.Query(context.Background(), true, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(weekdays) != 2 {
		t.Errorf("weekday records = %d, want 2 (Saturday filtered)", len(weekdays))
	}
	if len(weekdays) > 0 && weekdays[0].DayOfWeek != 0 {
		t.Errorf("derived day_of_week = %d, want 0", weekdays[0].DayOfWeek)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing column", "id,occupied_seats\n1,3\n"},
		{"bad seats", "occupied_seats,density_rate,created_at\nx,1,2026-03-02T09:00:00Z\n"},
		{"bad time", "occupied_seats,density_rate,created_at\n1,1,yesterday\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tt.data)); err == nil {
				t.Error("ParseCSV() succeeded, want error")
			}
		})
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown driver", Config{Driver: "oracle"}},
		{"postgres without dsn", Config{Driver: DriverPostgres}},
		{"bad table", Config{Driver: DriverSQLite, Table: "records; DROP TABLE x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg, zerolog.Nop())
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("Open() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestSource_BreakerOpensOnRepeatedFailure(t *testing.T) {
	src := openTestSource(t, DriverSQLite)
	src.table = "missing_table"

	for i := 0; i < 5; i++ {
		if _, err := src.Query(context.Background(), true, nil); err == nil {
			t.Fatalf("Query() on missing table succeeded")
		}
	}
	_, err := src.Query(context.Background(), true, nil)
	if err == nil || !strings.Contains(err.Error(), "data source unavailable") {
		t.Errorf("Query() after repeated failures error = %v, want breaker open", err)
	}
}

func TestWeekdayIndex(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := WeekdayIndex(monday.AddDate(0, 0, i)); got != i {
			t.Errorf("WeekdayIndex(+%d) = %d, want %d", i, got, i)
		}
	}
}
