// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/seatcast/internal/models"
)

var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseCSV reads records with a header naming at least occupied_seats,
// density_rate and created_at. id and day_of_week are optional; a missing
// day_of_week is derived from created_at.
func ParseCSV(r io.Reader) ([]models.HistoricalRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"occupied_seats", "density_rate", "created_at"} {
		if _, ok := col[required]; !ok {
			return nil, &models.ValidationError{Field: "csv", Value: required, Message: "missing required column"}
		}
	}

	var out []models.HistoricalRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		rec, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, col map[string]int) (models.HistoricalRecord, error) {
	var rec models.HistoricalRecord
	field := func(name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	if v, ok := field("id"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return rec, fmt.Errorf("id: %w", err)
		}
		rec.ID = id
	}

	v, _ := field("occupied_seats")
	seats, err := strconv.Atoi(v)
	if err != nil {
		return rec, fmt.Errorf("occupied_seats: %w", err)
	}
	rec.OccupiedSeats = seats

	v, _ = field("density_rate")
	density, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return rec, fmt.Errorf("density_rate: %w", err)
	}
	rec.DensityRate = density

	v, _ = field("created_at")
	created, err := parseTime(v)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = created

	if v, ok := field("day_of_week"); ok {
		day, err := strconv.Atoi(v)
		if err != nil {
			return rec, fmt.Errorf("day_of_week: %w", err)
		}
		rec.DayOfWeek = day
	} else {
		rec.DayOfWeek = WeekdayIndex(created)
	}
	return rec, nil
}

func parseTime(v string) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at: unrecognized time %q", v)
}

// Seed parses CSV records and inserts them.
func (s *Source) Seed(ctx context.Context, r io.Reader) (int, error) {
	records, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.Insert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
