// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package report

import (
	"time"

	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/prediction"
)

// Snapshot is one generated report.
type Snapshot struct {
	Metadata    Metadata    `json:"metadata"`
	Analysis    Analysis    `json:"analysis"`
	Predictions Predictions `json:"predictions"`
}

// Metadata describes the data behind a snapshot.
type Metadata struct {
	GeneratedAt     time.Time `json:"generated_at"`
	DataPeriod      Period    `json:"data_period"`
	TotalRecords    int       `json:"total_records"`
	WeekdayRecords  int       `json:"weekday_records"`
	ModelGeneration int64     `json:"model_generation"`
}

// Period is the created_at range of the records. Both ends are nil when
// there are no records.
type Period struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Stats are descriptive statistics of one series.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// DayStats are the statistics of one weekday.
type DayStats struct {
	DayOfWeek     int   `json:"day_of_week"`
	DensityRate   Stats `json:"density_rate"`
	OccupiedSeats Stats `json:"occupied_seats"`
}

// MonthStats are the statistics of one calendar month (UTC) of weekday
// records. The means are the month's averages.
type MonthStats struct {
	Month         string `json:"month"`
	Records       int    `json:"records"`
	DensityRate   Stats  `json:"density_rate"`
	OccupiedSeats Stats  `json:"occupied_seats"`
}

// LinearFit is density_rate ≈ Intercept + Slope·occupied_seats.
type LinearFit struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	R2        float64 `json:"r2"`
	Formula   string  `json:"formula"`
}

// Correlation relates density to occupied seats. Pearson is nil when
// either series is constant; Fit is nil when the fit cannot be computed.
type Correlation struct {
	Pearson *float64   `json:"density_seats_correlation"`
	Fit     *LinearFit `json:"linear_fit,omitempty"`
}

// DailySummary summarizes the predicted week.
type DailySummary struct {
	AverageDensityRate   float64           `json:"average_density_rate"`
	AverageOccupiedSeats float64           `json:"average_occupied_seats"`
	Status               prediction.Status `json:"status"`
	PeakDay              string            `json:"peak_day"`
	QuietestDay          string            `json:"quietest_day"`
}

// Analysis holds the statistics section.
type Analysis struct {
	BasicStatistics     map[string]Stats      `json:"basic_statistics"`
	WeekdayAnalysis     map[string]DayStats   `json:"weekday_analysis"`
	MonthlyAnalysis     map[string]MonthStats `json:"monthly_analysis"`
	CorrelationAnalysis Correlation           `json:"correlation_analysis"`
	DailySummary        DailySummary          `json:"daily_summary"`
}

// Predictions holds one schedule per weekday, keyed by day name, and the
// performance of each current model.
type Predictions struct {
	Schedules        map[string][]prediction.ScheduleEntry     `json:"schedules"`
	ModelPerformance map[models.Target]prediction.ModelSummary `json:"model_performance"`
}

// ArchiveEntry describes one archived snapshot file.
type ArchiveEntry struct {
	Name        string    `json:"name"`
	GeneratedAt time.Time `json:"generated_at"`
	SizeBytes   int64     `json:"size_bytes"`
}
