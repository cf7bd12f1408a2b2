// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/cache"
	"github.com/tomtom215/seatcast/internal/features"
	"github.com/tomtom215/seatcast/internal/forecast"
	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/models"
)

// DefaultCapacity is the seat capacity used for available-seat math.
const DefaultCapacity = 100

// DefaultCountsTTL is how long per-day sample counts are reused.
const DefaultCountsTTL = 5 * time.Minute

// ModelSource provides the current trained models.
type ModelSource interface {
	// LoadCurrent returns every current model from one consistent snapshot.
	LoadCurrent(ctx context.Context) (map[models.Target]*forecast.TrainedModel, int64, error)
	// Generation identifies the current snapshot.
	Generation() int64
}

// SampleCounter reports how many historical records exist per weekday.
type SampleCounter interface {
	CountByDay(ctx context.Context) (map[int]int, error)
}

// Config holds prediction settings.
type Config struct {
	// Capacity is the total number of seats (default: 100).
	Capacity int

	// CountsTTL bounds how long sample counts are cached (default: 5m).
	// Counts are also refetched whenever the model generation changes.
	CountsTTL time.Duration
}

// Point is a day-level prediction.
type Point struct {
	DayOfWeek      int     `json:"day_of_week"`
	DayName        string  `json:"day_name"`
	DensityRate    float64 `json:"density_rate"`
	OccupiedSeats  int     `json:"occupied_seats"`
	OccupancyRate  float64 `json:"occupancy_rate"`
	AvailableSeats int     `json:"available_seats"`
	Status         Status  `json:"status"`
}

// WeeklySummary averages the five weekday predictions.
type WeeklySummary struct {
	Days                 []Point `json:"days"`
	AverageDensityRate   float64 `json:"average_density_rate"`
	AverageOccupiedSeats float64 `json:"average_occupied_seats"`
	AverageOccupancyRate float64 `json:"average_occupancy_rate"`
	Status               Status  `json:"status"`
}

// DayForecast is a dated prediction with its confidence.
type DayForecast struct {
	Date          string     `json:"date"`
	Prediction    Point      `json:"prediction"`
	SampleCount   int        `json:"sample_count"`
	Confidence    Confidence `json:"confidence"`
	RolledForward bool       `json:"rolled_forward,omitempty"`
}

// TodayTomorrow holds the forecasts for the current and next weekday.
type TodayTomorrow struct {
	Today    DayForecast `json:"today"`
	Tomorrow DayForecast `json:"tomorrow"`
}

// ModelSummary describes one current model.
type ModelSummary struct {
	Target              models.Target      `json:"target"`
	Algorithm           string             `json:"algorithm"`
	Version             int                `json:"version"`
	Hyperparameters     map[string]float64 `json:"hyperparameters"`
	RMSE                float64            `json:"rmse"`
	R2                  float64            `json:"r2"`
	MAE                 float64            `json:"mae"`
	CVRMSE              float64            `json:"cv_rmse"`
	TrainedAt           time.Time          `json:"trained_at"`
	TrainingRecordCount int                `json:"training_record_count"`
}

// ModelInfo describes the current model set.
type ModelInfo struct {
	Generation int64          `json:"generation"`
	Models     []ModelSummary `json:"models"`
}

// Service evaluates the current models.
type Service struct {
	source  ModelSource
	counter SampleCounter
	config  Config
	logger  zerolog.Logger

	mu         sync.RWMutex
	generation int64
	cached     map[models.Target]*forecast.TrainedModel

	// counts is keyed by model generation.
	counts *cache.Cache[int64, map[int]int]
}

// NewService creates a prediction service. counter may be nil, in which
// case TodayTomorrow reports no confidence.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(source ModelSource, counter SampleCounter, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.CountsTTL <= 0 {
		cfg.CountsTTL = DefaultCountsTTL
	}
	return &Service{
		source:     source,
		counter:    counter,
		config:     cfg,
		logger:     logger.With().Str("component", "prediction").Logger(),
		generation: -1,
		counts:     cache.New[int64, map[int]int](cfg.CountsTTL),
	}
}

// current returns the model set for the source's current generation,
// reloading it when the generation has moved.
func (s *Service) current(ctx context.Context) (map[models.Target]*forecast.TrainedModel, int64, error) {
	gen := s.source.Generation()

	s.mu.RLock()
	if s.cached != nil && s.generation == gen {
		set, g := s.cached, s.generation
		s.mu.RUnlock()
		return set, g, nil
	}
	s.mu.RUnlock()

	set, loadedGen, err := s.source.LoadCurrent(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, 0, &models.ModelUnavailableError{Target: models.TargetDensity, Cause: err}
		}
		return nil, 0, fmt.Errorf("load current models: %w", err)
	}

	s.mu.Lock()
	if loadedGen >= s.generation {
		s.cached = set
		s.generation = loadedGen
	}
	s.mu.Unlock()

	s.logger.Debug().Int64("generation", loadedGen).Msg("loaded current models")
	return set, loadedGen, nil
}

// View evaluates one generation of models. Every result obtained from a
// View comes from the same model set, even if a newer generation is saved
// meanwhile.
type View struct {
	set        map[models.Target]*forecast.TrainedModel
	generation int64
	capacity   int
}

// View pins the current model set.
func (s *Service) View(ctx context.Context) (*View, error) {
	set, gen, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return &View{set: set, generation: gen, capacity: s.config.Capacity}, nil
}

// Generation identifies the model set the view evaluates.
func (v *View) Generation() int64 {
	return v.generation
}

// PredictPoint predicts density and seats for a weekday.
func (v *View) PredictPoint(day int) (Point, error) {
	vec, err := features.Encode(day)
	if err != nil {
		return Point{}, err
	}
	for _, target := range models.AllTargets {
		if v.set[target] == nil {
			return Point{}, &models.ModelUnavailableError{Target: target}
		}
	}

	density, err := v.set[models.TargetDensity].Predict(vec)
	if err != nil {
		return Point{}, fmt.Errorf("predict density: %w", err)
	}
	seats, err := v.set[models.TargetSeats].Predict(vec)
	if err != nil {
		return Point{}, fmt.Errorf("predict seats: %w", err)
	}

	return v.point(day, density, seats), nil
}

// point applies output bounds and derives the display fields.
func (v *View) point(day int, density, seats float64) Point {
	density = clampDensity(density)
	occupied := int(math.Max(0, math.Round(seats)))
	if math.IsNaN(seats) {
		occupied = 0
	}
	rate := density / 100

	return Point{
		DayOfWeek:      day,
		DayName:        features.DayName(day),
		DensityRate:    density,
		OccupiedSeats:  occupied,
		OccupancyRate:  rate,
		AvailableSeats: max(0, v.capacity-occupied),
		Status:         DeriveStatus(rate),
	}
}

func clampDensity(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(100, math.Max(0, v))
}

// PredictSchedule returns the 24-hour schedule for a weekday.
func (v *View) PredictSchedule(day int) (Schedule, error) {
	p, err := v.PredictPoint(day)
	if err != nil {
		return Schedule{}, err
	}
	return NewSchedule(p), nil
}

// WeeklyAverage predicts every weekday and averages the results.
func (v *View) WeeklyAverage() (*WeeklySummary, error) {
	summary := &WeeklySummary{Days: make([]Point, 0, features.MaxDay+1)}
	var density, seats float64
	for day := features.MinDay; day <= features.MaxDay; day++ {
		p, err := v.PredictPoint(day)
		if err != nil {
			return nil, err
		}
		summary.Days = append(summary.Days, p)
		density += p.DensityRate
		seats += float64(p.OccupiedSeats)
	}

	n := float64(len(summary.Days))
	summary.AverageDensityRate = density / n
	summary.AverageOccupiedSeats = seats / n
	summary.AverageOccupancyRate = summary.AverageDensityRate / 100
	summary.Status = DeriveStatus(summary.AverageOccupancyRate)
	return summary, nil
}

// ModelInfo summarizes the view's models in target order.
func (v *View) ModelInfo() *ModelInfo {
	info := &ModelInfo{Generation: v.generation, Models: make([]ModelSummary, 0, len(v.set))}
	for target, m := range v.set {
		info.Models = append(info.Models, ModelSummary{
			Target:              target,
			Algorithm:           string(m.Algorithm),
			Version:             m.Version,
			Hyperparameters:     m.Hyperparameters.Clone(),
			RMSE:                m.RMSE,
			R2:                  m.R2,
			MAE:                 m.MAE,
			CVRMSE:              m.CVRMSE,
			TrainedAt:           m.TrainedAt,
			TrainingRecordCount: m.TrainingRecordCount,
		})
	}
	sort.Slice(info.Models, func(i, j int) bool { return info.Models[i].Target < info.Models[j].Target })
	return info
}

// PredictPoint predicts density and seats for a weekday.
func (s *Service) PredictPoint(ctx context.Context, day int) (Point, error) {
	metrics.RecordPrediction("point")
	if err := features.ValidateDay(day); err != nil {
		return Point{}, err
	}
	v, err := s.View(ctx)
	if err != nil {
		return Point{}, err
	}
	return v.PredictPoint(day)
}

// PredictSchedule returns the 24-hour schedule for a weekday.
func (s *Service) PredictSchedule(ctx context.Context, day int) (Schedule, error) {
	metrics.RecordPrediction("schedule")
	if err := features.ValidateDay(day); err != nil {
		return Schedule{}, err
	}
	v, err := s.View(ctx)
	if err != nil {
		return Schedule{}, err
	}
	return v.PredictSchedule(day)
}

// WeeklyAverage predicts every weekday and averages the results.
func (s *Service) WeeklyAverage(ctx context.Context) (*WeeklySummary, error) {
	metrics.RecordPrediction("weekly")
	v, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return v.WeeklyAverage()
}

// TodayTomorrow predicts the weekday containing now and the weekday after
// it. On a weekend, today rolls forward to the following Monday.
func (s *Service) TodayTomorrow(ctx context.Context, now time.Time) (*TodayTomorrow, error) {
	metrics.RecordPrediction("today_tomorrow")

	v, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	counts := s.sampleCounts(ctx)

	today, rolled := nextWeekday(now, 0)
	tomorrow, _ := nextWeekday(today, 1)

	todayForecast, err := v.dayForecast(today, counts)
	if err != nil {
		return nil, err
	}
	todayForecast.RolledForward = rolled

	tomorrowForecast, err := v.dayForecast(tomorrow, counts)
	if err != nil {
		return nil, err
	}

	return &TodayTomorrow{Today: todayForecast, Tomorrow: tomorrowForecast}, nil
}

// sampleCounts returns per-day record counts, or nil when no counter is
// set or the query fails.
func (s *Service) sampleCounts(ctx context.Context) map[int]int {
	if s.counter == nil {
		return nil
	}
	gen := s.source.Generation()
	if counts, ok := s.counts.Get(gen); ok {
		return counts
	}
	counts, err := s.counter.CountByDay(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("sample counts unavailable, reporting no confidence")
		return nil
	}
	s.counts.Clear()
	s.counts.Set(gen, counts)
	return counts
}

func (v *View) dayForecast(date time.Time, counts map[int]int) (DayForecast, error) {
	day := weekdayIndex(date)
	p, err := v.PredictPoint(day)
	if err != nil {
		return DayForecast{}, err
	}
	n := counts[day]
	return DayForecast{
		Date:        date.Format(time.DateOnly),
		Prediction:  p,
		SampleCount: n,
		Confidence:  DeriveConfidence(n),
	}, nil
}

// weekdayIndex maps Monday..Sunday to 0..6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// nextWeekday advances t by at least minDays days and then to the first
// weekday. It reports whether a weekend was skipped.
func nextWeekday(t time.Time, minDays int) (time.Time, bool) {
	t = t.AddDate(0, 0, minDays)
	rolled := false
	for weekdayIndex(t) > features.MaxDay {
		t = t.AddDate(0, 0, 1)
		rolled = true
	}
	return t, rolled
}

// ModelInfo summarizes the current models in target order.
func (s *Service) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	v, err := s.View(ctx)
	if err != nil {
		return nil, err
	}
	return v.ModelInfo(), nil
}
