// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/features"
	"github.com/tomtom215/seatcast/internal/fsutil"
	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/prediction"
)

const (
	latestFile    = "latest_data.json"
	archivePrefix = "data_"
	archiveLayout = "20060102_150405"
	monthLayout   = "2006-01"

	// maxArchiveSeq bounds same-second archive suffixes.
	maxArchiveSeq = 999
)

// Predictor pins the model set a snapshot's prediction sections come from.
type Predictor interface {
	View(ctx context.Context) (*prediction.View, error)
}

// Generator builds snapshots and writes them to a report directory.
type Generator struct {
	dir       string
	predictor Predictor
	logger    zerolog.Logger
	now       func() time.Time

	// mu serializes writes.
	mu sync.Mutex
}

// NewGenerator creates a generator writing to dir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGenerator(dir string, predictor Predictor, logger zerolog.Logger) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for report output
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &Generator{
		dir:       dir,
		predictor: predictor,
		logger:    logger.With().Str("component", "report").Logger(),
		now:       time.Now,
	}, nil
}

// Generate builds a snapshot from the records and the current models and
// persists it.
//
//nolint:gocritic // rangeValCopy is acceptable for small records
func (g *Generator) Generate(ctx context.Context, records []models.HistoricalRecord) (*Snapshot, error) {
	snap, err := g.build(ctx, records)
	if err != nil {
		metrics.RecordReportGeneration(false)
		return nil, err
	}
	if err := g.write(snap); err != nil {
		metrics.RecordReportGeneration(false)
		return nil, err
	}
	metrics.RecordReportGeneration(true)
	g.logger.Info().
		Int("records", snap.Metadata.TotalRecords).
		Time("generated_at", snap.Metadata.GeneratedAt).
		Msg("report generated")
	return snap, nil
}

//nolint:gocritic // rangeValCopy is acceptable for small records
func (g *Generator) build(ctx context.Context, records []models.HistoricalRecord) (*Snapshot, error) {
	snap := &Snapshot{
		Metadata: Metadata{
			GeneratedAt:  g.now().UTC().Truncate(time.Second),
			TotalRecords: len(records),
		},
	}

	var density, seats []float64
	perDay := make(map[int][2][]float64)
	perMonth := make(map[string][2][]float64)
	for i := range records {
		r := &records[i]
		if snap.Metadata.DataPeriod.Start == nil || r.CreatedAt.Before(*snap.Metadata.DataPeriod.Start) {
			t := r.CreatedAt
			snap.Metadata.DataPeriod.Start = &t
		}
		if snap.Metadata.DataPeriod.End == nil || r.CreatedAt.After(*snap.Metadata.DataPeriod.End) {
			t := r.CreatedAt
			snap.Metadata.DataPeriod.End = &t
		}
		if features.ValidateDay(r.DayOfWeek) != nil {
			continue
		}
		snap.Metadata.WeekdayRecords++
		density = append(density, r.DensityRate)
		seats = append(seats, float64(r.OccupiedSeats))
		d := perDay[r.DayOfWeek]
		d[0] = append(d[0], r.DensityRate)
		d[1] = append(d[1], float64(r.OccupiedSeats))
		perDay[r.DayOfWeek] = d
		month := r.CreatedAt.UTC().Format(monthLayout)
		m := perMonth[month]
		m[0] = append(m[0], r.DensityRate)
		m[1] = append(m[1], float64(r.OccupiedSeats))
		perMonth[month] = m
	}

	snap.Analysis.BasicStatistics = map[string]Stats{
		"density_rate":   describe(density),
		"occupied_seats": describe(seats),
	}
	snap.Analysis.WeekdayAnalysis = make(map[string]DayStats, len(perDay))
	for day, series := range perDay {
		snap.Analysis.WeekdayAnalysis[features.DayName(day)] = DayStats{
			DayOfWeek:     day,
			DensityRate:   describe(series[0]),
			OccupiedSeats: describe(series[1]),
		}
	}
	snap.Analysis.MonthlyAnalysis = make(map[string]MonthStats, len(perMonth))
	for month, series := range perMonth {
		snap.Analysis.MonthlyAnalysis[month] = MonthStats{
			Month:         month,
			Records:       len(series[0]),
			DensityRate:   describe(series[0]),
			OccupiedSeats: describe(series[1]),
		}
	}
	snap.Analysis.CorrelationAnalysis = Correlation{
		Pearson: correlate(density, seats),
		Fit:     fitLine(seats, density),
	}

	view, err := g.predictor.View(ctx)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	snap.Metadata.ModelGeneration = view.Generation()

	weekly, err := view.WeeklyAverage()
	if err != nil {
		return nil, fmt.Errorf("weekly predictions: %w", err)
	}
	snap.Analysis.DailySummary = summarize(weekly)

	snap.Predictions.Schedules = make(map[string][]prediction.ScheduleEntry, features.MaxDay+1)
	for day := features.MinDay; day <= features.MaxDay; day++ {
		schedule, err := view.PredictSchedule(day)
		if err != nil {
			return nil, fmt.Errorf("schedule for %s: %w", features.DayName(day), err)
		}
		snap.Predictions.Schedules[features.DayName(day)] = schedule.Entries()
	}

	info := view.ModelInfo()
	snap.Predictions.ModelPerformance = make(map[models.Target]prediction.ModelSummary, len(info.Models))
	for _, m := range info.Models {
		snap.Predictions.ModelPerformance[m.Target] = m
	}

	return snap, nil
}

func summarize(w *prediction.WeeklySummary) DailySummary {
	s := DailySummary{
		AverageDensityRate:   w.AverageDensityRate,
		AverageOccupiedSeats: w.AverageOccupiedSeats,
		Status:               w.Status,
	}
	if len(w.Days) == 0 {
		return s
	}
	peak, quiet := w.Days[0], w.Days[0]
	for _, d := range w.Days[1:] {
		if d.DensityRate > peak.DensityRate {
			peak = d
		}
		if d.DensityRate < quiet.DensityRate {
			quiet = d
		}
	}
	s.PeakDay = peak.DayName
	s.QuietestDay = quiet.DayName
	return s
}

// write stores the archive entry first and then replaces the latest file.
// Archive entries are never overwritten: a second snapshot within the same
// second gets a _N suffix.
func (g *Generator) write(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	stamp := snap.Metadata.GeneratedAt.Format(archiveLayout)
	for seq := 0; ; seq++ {
		if seq > maxArchiveSeq {
			return fmt.Errorf("write archive entry: too many snapshots at %s", stamp)
		}
		err := fsutil.WriteFileExclusive(filepath.Join(g.dir, archiveName(stamp, seq)), data, 0o640)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("write archive entry: %w", err)
		}
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(g.dir, latestFile), data, 0o640); err != nil {
		return fmt.Errorf("replace latest snapshot: %w", err)
	}
	return nil
}

func archiveName(stamp string, seq int) string {
	if seq == 0 {
		return archivePrefix + stamp + ".json"
	}
	return fmt.Sprintf("%s%s_%d.json", archivePrefix, stamp, seq)
}

// parseArchiveName returns the timestamp and sequence of an archive file.
func parseArchiveName(name string) (time.Time, int, bool) {
	if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, ".json") {
		return time.Time{}, 0, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), ".json")
	if len(rest) < len(archiveLayout) {
		return time.Time{}, 0, false
	}
	ts, err := time.ParseInLocation(archiveLayout, rest[:len(archiveLayout)], time.UTC)
	if err != nil {
		return time.Time{}, 0, false
	}
	seq := 0
	if suffix := rest[len(archiveLayout):]; suffix != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(suffix, "_"))
		if err != nil || !strings.HasPrefix(suffix, "_") || n < 1 {
			return time.Time{}, 0, false
		}
		seq = n
	}
	return ts, seq, true
}

// Latest reads the most recent snapshot.
func (g *Generator) Latest(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(g.dir, latestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &models.NotFoundError{Resource: "report", Key: "latest"}
	}
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode latest snapshot: %w", err)
	}
	return &snap, nil
}

// ListArchive lists archived snapshots, oldest first.
func (g *Generator) ListArchive() ([]ArchiveEntry, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return nil, fmt.Errorf("read report directory: %w", err)
	}

	type ranked struct {
		entry ArchiveEntry
		seq   int
	}
	var found []ranked
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, seq, ok := parseArchiveName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, ranked{
			entry: ArchiveEntry{Name: entry.Name(), GeneratedAt: ts, SizeBytes: info.Size()},
			seq:   seq,
		})
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].entry.GeneratedAt.Equal(found[j].entry.GeneratedAt) {
			return found[i].entry.GeneratedAt.Before(found[j].entry.GeneratedAt)
		}
		return found[i].seq < found[j].seq
	})

	out := make([]ArchiveEntry, len(found))
	for i := range found {
		out[i] = found[i].entry
	}
	return out, nil
}
