// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/seatcast/internal/config"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/prediction"
	"github.com/tomtom215/seatcast/internal/report"
	"github.com/tomtom215/seatcast/internal/scheduler"
)

type mockPredictor struct {
	err     error
	infoErr error
}

func (m *mockPredictor) point(day int) prediction.Point {
	return prediction.Point{
		DayOfWeek:      day,
		DayName:        "Monday",
		DensityRate:    42,
		OccupiedSeats:  42,
		OccupancyRate:  0.42,
		AvailableSeats: 58,
		Status:         prediction.DeriveStatus(0.42),
	}
}

func (m *mockPredictor) PredictPoint(_ context.Context, day int) (prediction.Point, error) {
	if m.err != nil {
		return prediction.Point{}, m.err
	}
	return m.point(day), nil
}

func (m *mockPredictor) PredictSchedule(_ context.Context, day int) (prediction.Schedule, error) {
	if m.err != nil {
		return prediction.Schedule{}, m.err
	}
	return prediction.NewSchedule(m.point(day)), nil
}

func (m *mockPredictor) WeeklyAverage(_ context.Context) (*prediction.WeeklySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	days := make([]prediction.Point, 5)
	for i := range days {
		days[i] = m.point(i)
	}
	return &prediction.WeeklySummary{Days: days, AverageDensityRate: 42}, nil
}

func (m *mockPredictor) TodayTomorrow(_ context.Context, now time.Time) (*prediction.TodayTomorrow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &prediction.TodayTomorrow{
		Today:    prediction.DayForecast{Date: now.Format("2006-01-02"), Prediction: m.point(0)},
		Tomorrow: prediction.DayForecast{Date: now.AddDate(0, 0, 1).Format("2006-01-02"), Prediction: m.point(1)},
	}, nil
}

func (m *mockPredictor) ModelInfo(_ context.Context) (*prediction.ModelInfo, error) {
	if m.infoErr != nil {
		return nil, m.infoErr
	}
	return &prediction.ModelInfo{Generation: 3}, nil
}

type mockReports struct {
	snap *report.Snapshot
}

func (m *mockReports) Latest(_ context.Context) (*report.Snapshot, error) {
	if m.snap == nil {
		return nil, &models.NotFoundError{Resource: "report", Key: "latest"}
	}
	return m.snap, nil
}

func (m *mockReports) ListArchive() ([]report.ArchiveEntry, error) {
	return []report.ArchiveEntry{{Name: "report_20260302T090000Z.json", SizeBytes: 128}}, nil
}

type mockHistory struct {
	records []models.HistoricalRecord
	err     error
}

func (m *mockHistory) Query(_ context.Context, weekdayOnly bool, _ *time.Time) ([]models.HistoricalRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.HistoricalRecord
	for _, r := range m.records {
		if weekdayOnly && r.DayOfWeek > 4 {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockHistory) Recent(_ context.Context, limit int) ([]models.HistoricalRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.HistoricalRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *mockHistory) Count(_ context.Context) (int, error) {
	return len(m.records), m.err
}

type mockRuns struct {
	mu     sync.Mutex
	state  scheduler.State
	busy   bool
	forced int
	done   chan struct{}
}

func (m *mockRuns) Status() scheduler.SchedulerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return scheduler.SchedulerState{State: m.state, CycleLengthDays: 14}
}

func (m *mockRuns) Force(_ context.Context) (*scheduler.Outcome, error) {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return nil, &models.LockContention{Operation: "scheduler run"}
	}
	m.forced++
	done := m.done
	m.mu.Unlock()
	if done != nil {
		close(done)
	}
	return &scheduler.Outcome{RunID: "abc12345", Trigger: scheduler.TriggerForce, Ran: true, State: scheduler.StateIdle}, nil
}

func (m *mockRuns) Start(ctx context.Context) (<-chan scheduler.RunResult, error) {
	m.mu.Lock()
	busy := m.busy
	m.mu.Unlock()
	if busy {
		return nil, &models.LockContention{Operation: "scheduler run"}
	}
	ch := make(chan scheduler.RunResult, 1)
	go func() {
		out, err := m.Force(ctx)
		ch <- scheduler.RunResult{Outcome: out, Err: err}
	}()
	return ch, nil
}

func (m *mockRuns) forcedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forced
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

func newTestRouter(t *testing.T, deps Deps, cfg config.ServerConfig) http.Handler {
	t.Helper()
	if deps.Predictor == nil {
		deps.Predictor = &mockPredictor{}
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{"*"}
	}
	h := NewHandler(deps, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return NewRouter(h, cfg)
}

func do(t *testing.T, router http.Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON body %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, env
}

func TestPredictDay(t *testing.T) {
	modelErr := &models.ModelUnavailableError{Target: models.TargetDensity, Cause: &models.NotFoundError{Resource: "model", Key: "density"}}

	tests := []struct {
		name      string
		path      string
		predictor *mockPredictor
		status    int
		code      string
	}{
		{name: "valid day", path: "/api/v1/predictions/2", predictor: &mockPredictor{}, status: http.StatusOK},
		{name: "day out of range", path: "/api/v1/predictions/5", predictor: &mockPredictor{}, status: http.StatusBadRequest, code: CodeValidation},
		{name: "negative day", path: "/api/v1/predictions/-1", predictor: &mockPredictor{}, status: http.StatusBadRequest, code: CodeValidation},
		{name: "not a number", path: "/api/v1/predictions/monday", predictor: &mockPredictor{}, status: http.StatusBadRequest, code: CodeValidation},
		{name: "no models", path: "/api/v1/predictions/0", predictor: &mockPredictor{err: modelErr}, status: http.StatusServiceUnavailable, code: CodeModelUnavailable},
		{name: "unexpected failure", path: "/api/v1/predictions/0", predictor: &mockPredictor{err: errors.New("boom")}, status: http.StatusInternalServerError, code: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, Deps{Predictor: tt.predictor}, config.ServerConfig{})
			rec, env := do(t, router, http.MethodGet, tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.code == "" {
				if !env.Success {
					t.Fatalf("expected success, got %+v", env.Error)
				}
				var p prediction.Point
				if err := json.Unmarshal(env.Data, &p); err != nil {
					t.Fatal(err)
				}
				if p.DayOfWeek != 2 || p.Status != prediction.StatusAvailable {
					t.Errorf("unexpected point %+v", p)
				}
				return
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}
}

func TestPredictSchedule_HourWindow(t *testing.T) {
	router := newTestRouter(t, Deps{}, config.ServerConfig{})

	rec, env := do(t, router, http.MethodGet, "/api/v1/predictions/1/schedule?start_hour=9&end_hour=17")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp scheduleResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Schedule) != 9 {
		t.Fatalf("got %d entries, want 9", len(resp.Schedule))
	}
	if resp.Schedule[0].Hour != 9 || resp.Schedule[0].Label != "09:00" || resp.Schedule[8].Hour != 17 {
		t.Errorf("unexpected window %v..%v", resp.Schedule[0], resp.Schedule[8])
	}

	rec, _ = do(t, router, http.MethodGet, "/api/v1/predictions/1/schedule")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "\"23:00\"") {
		t.Errorf("full schedule missing last hour: %s", rec.Body.String())
	}

	for _, q := range []string{"start_hour=10&end_hour=9", "end_hour=24", "start_hour=x"} {
		rec, env = do(t, router, http.MethodGet, "/api/v1/predictions/1/schedule?"+q)
		if rec.Code != http.StatusBadRequest || env.Error.Code != CodeValidation {
			t.Errorf("%s: status = %d, error = %+v", q, rec.Code, env.Error)
		}
	}
}

func TestPredictTodayTomorrow_UsesClock(t *testing.T) {
	router := newTestRouter(t, Deps{}, config.ServerConfig{})
	_, env := do(t, router, http.MethodGet, "/api/v1/predictions/today-tomorrow")

	var tt prediction.TodayTomorrow
	if err := json.Unmarshal(env.Data, &tt); err != nil {
		t.Fatal(err)
	}
	if tt.Today.Date != "2026-03-02" || tt.Tomorrow.Date != "2026-03-03" {
		t.Errorf("dates = %s, %s", tt.Today.Date, tt.Tomorrow.Date)
	}
}

func TestWeeklyAndModelInfo(t *testing.T) {
	router := newTestRouter(t, Deps{}, config.ServerConfig{})

	_, env := do(t, router, http.MethodGet, "/api/v1/predictions/weekly")
	var w prediction.WeeklySummary
	if err := json.Unmarshal(env.Data, &w); err != nil {
		t.Fatal(err)
	}
	if len(w.Days) != 5 {
		t.Errorf("weekly days = %d, want 5", len(w.Days))
	}

	_, env = do(t, router, http.MethodGet, "/api/v1/model/info")
	var info prediction.ModelInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatal(err)
	}
	if info.Generation != 3 {
		t.Errorf("generation = %d, want 3", info.Generation)
	}
}

func TestReports(t *testing.T) {
	router := newTestRouter(t, Deps{Reports: &mockReports{}}, config.ServerConfig{})

	rec, env := do(t, router, http.MethodGet, "/api/v1/reports/latest")
	if rec.Code != http.StatusNotFound || env.Error.Code != CodeNotFound {
		t.Errorf("latest without snapshot: status = %d, error = %+v", rec.Code, env.Error)
	}

	rec, env = do(t, router, http.MethodGet, "/api/v1/reports/archive")
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d", rec.Code)
	}
	var entries []report.ArchiveEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].SizeBytes != 128 {
		t.Errorf("entries = %+v", entries)
	}

	router = newTestRouter(t, Deps{}, config.ServerConfig{})
	rec, env = do(t, router, http.MethodGet, "/api/v1/reports/latest")
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != CodeUnavailable {
		t.Errorf("unconfigured reports: status = %d", rec.Code)
	}
}

func TestMonthlyAnalysis(t *testing.T) {
	snap := &report.Snapshot{}
	snap.Analysis.MonthlyAnalysis = map[string]report.MonthStats{
		"2026-03": {Month: "2026-03", Records: 12},
	}
	router := newTestRouter(t, Deps{Reports: &mockReports{snap: snap}}, config.ServerConfig{})

	rec, env := do(t, router, http.MethodGet, "/api/v1/reports/latest/monthly")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var monthly map[string]report.MonthStats
	if err := json.Unmarshal(env.Data, &monthly); err != nil {
		t.Fatal(err)
	}
	if monthly["2026-03"].Records != 12 {
		t.Errorf("monthly = %+v", monthly)
	}
}

func TestHistory(t *testing.T) {
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var records []models.HistoricalRecord
	for i := 0; i < 7; i++ {
		records = append(records, models.HistoricalRecord{
			ID:          int64(i + 1),
			DayOfWeek:   i,
			DensityRate: float64(10 * i),
			CreatedAt:   monday.AddDate(0, 0, i),
		})
	}
	router := newTestRouter(t, Deps{History: &mockHistory{records: records}}, config.ServerConfig{})

	tests := []struct {
		name      string
		target    string
		status    int
		wantCount int
		wantFirst int64
	}{
		{name: "all", target: "/api/v1/history", status: http.StatusOK, wantCount: 7, wantFirst: 1},
		{name: "weekdays", target: "/api/v1/history?weekday_only=true", status: http.StatusOK, wantCount: 5, wantFirst: 1},
		{name: "recent", target: "/api/v1/history/recent/3", status: http.StatusOK, wantCount: 3, wantFirst: 7},
		{name: "recent zero", target: "/api/v1/history/recent/0", status: http.StatusBadRequest},
		{name: "recent too many", target: "/api/v1/history/recent/5000", status: http.StatusBadRequest},
		{name: "recent not a number", target: "/api/v1/history/recent/ten", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				if env.Error == nil || env.Error.Code != CodeValidation {
					t.Errorf("error = %+v, want validation error", env.Error)
				}
				return
			}
			var page historyPage
			if err := json.Unmarshal(env.Data, &page); err != nil {
				t.Fatal(err)
			}
			if page.Count != tt.wantCount || len(page.Records) != tt.wantCount {
				t.Errorf("count = %d (%d records), want %d", page.Count, len(page.Records), tt.wantCount)
			}
			if page.Records[0].ID != tt.wantFirst {
				t.Errorf("first id = %d, want %d", page.Records[0].ID, tt.wantFirst)
			}
		})
	}

	rec, env := do(t, router, http.MethodGet, "/api/v1/history/count")
	if rec.Code != http.StatusOK {
		t.Fatalf("count status = %d", rec.Code)
	}
	var count historyCount
	if err := json.Unmarshal(env.Data, &count); err != nil {
		t.Fatal(err)
	}
	if count.Count != 7 {
		t.Errorf("count = %d, want 7", count.Count)
	}

	router = newTestRouter(t, Deps{}, config.ServerConfig{})
	if rec, _ := do(t, router, http.MethodGet, "/api/v1/history/count"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured history: status = %d", rec.Code)
	}
}

func TestSchedulerRun(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		runs := &mockRuns{state: scheduler.StateIdle, done: make(chan struct{})}
		router := newTestRouter(t, Deps{Runs: runs}, config.ServerConfig{})

		rec, env := do(t, router, http.MethodPost, "/api/v1/scheduler/run")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var acc runAccepted
		if err := json.Unmarshal(env.Data, &acc); err != nil {
			t.Fatal(err)
		}
		if !acc.Accepted || acc.Trigger != "force" {
			t.Errorf("unexpected body %+v", acc)
		}
		select {
		case <-runs.done:
		case <-time.After(2 * time.Second):
			t.Fatal("forced run never started")
		}
	})

	t.Run("conflict while running", func(t *testing.T) {
		runs := &mockRuns{state: scheduler.StateRunning, busy: true}
		router := newTestRouter(t, Deps{Runs: runs}, config.ServerConfig{})

		for _, target := range []string{"/api/v1/scheduler/run", "/api/v1/scheduler/run?wait=true"} {
			rec, env := do(t, router, http.MethodPost, target)
			if rec.Code != http.StatusConflict || env.Error == nil || env.Error.Code != CodeLockContention {
				t.Errorf("%s: status = %d, error = %+v", target, rec.Code, env.Error)
			}
		}
		if runs.forcedCount() != 0 {
			t.Error("a run started while another was active")
		}
	})

	t.Run("stale idle status still conflicts", func(t *testing.T) {
		runs := &mockRuns{state: scheduler.StateIdle, busy: true}
		router := newTestRouter(t, Deps{Runs: runs}, config.ServerConfig{})

		rec, _ := do(t, router, http.MethodPost, "/api/v1/scheduler/run")
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409 when the lock is held", rec.Code)
		}
	})

	t.Run("wait returns outcome", func(t *testing.T) {
		runs := &mockRuns{state: scheduler.StateIdle}
		router := newTestRouter(t, Deps{Runs: runs}, config.ServerConfig{})

		rec, env := do(t, router, http.MethodPost, "/api/v1/scheduler/run?wait=true")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var out scheduler.Outcome
		if err := json.Unmarshal(env.Data, &out); err != nil {
			t.Fatal(err)
		}
		if out.RunID != "abc12345" || !out.Ran {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("status", func(t *testing.T) {
		runs := &mockRuns{state: scheduler.StateDue}
		router := newTestRouter(t, Deps{Runs: runs}, config.ServerConfig{})

		_, env := do(t, router, http.MethodGet, "/api/v1/scheduler/status")
		var st scheduler.SchedulerState
		if err := json.Unmarshal(env.Data, &st); err != nil {
			t.Fatal(err)
		}
		if st.State != scheduler.StateDue || st.CycleLengthDays != 14 {
			t.Errorf("state = %+v", st)
		}
	})
}

func TestReady(t *testing.T) {
	tests := []struct {
		name      string
		db        Pinger
		predictor *mockPredictor
		status    int
	}{
		{name: "ready", db: mockPinger{}, predictor: &mockPredictor{}, status: http.StatusOK},
		{name: "database down", db: mockPinger{err: errors.New("connection refused")}, predictor: &mockPredictor{}, status: http.StatusServiceUnavailable},
		{name: "no models", db: mockPinger{}, predictor: &mockPredictor{infoErr: models.ErrModelUnavailable}, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, Deps{Predictor: tt.predictor, Database: tt.db}, config.ServerConfig{})
			rec, _ := do(t, router, http.MethodGet, "/api/v1/health/ready")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestRouter_RequestIDAndNotFound(t *testing.T) {
	router := newTestRouter(t, Deps{}, config.ServerConfig{})

	rec, env := do(t, router, http.MethodGet, "/api/v1/nope")
	if rec.Code != http.StatusNotFound || env.Error.Code != CodeNotFound {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if !strings.Contains(rec.Body.String(), rec.Header().Get("X-Request-ID")) {
		t.Error("request id not echoed in metadata")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	router := newTestRouter(t, Deps{}, config.ServerConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})

	rec, _ := do(t, router, http.MethodGet, "/api/v1/predictions/0")
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec, env := do(t, router, http.MethodGet, "/api/v1/predictions/0")
	if rec.Code != http.StatusTooManyRequests || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("second request status = %d, error = %+v", rec.Code, env.Error)
	}

	// Health probes are not limited.
	rec, _ = do(t, router, http.MethodGet, "/api/v1/health/live")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "http://anywhere", want: true},
		{name: "listed", allowed: []string{"http://a.test", "http://b.test"}, origin: "http://b.test", want: true},
		{name: "unlisted", allowed: []string{"http://a.test"}, origin: "http://evil.test", want: false},
		{name: "missing origin", allowed: []string{"*"}, origin: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(Deps{AllowedOrigins: tt.allowed}, zerolog.Nop())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/ws", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvents_NoHub(t *testing.T) {
	router := newTestRouter(t, Deps{}, config.ServerConfig{})
	rec, env := do(t, router, http.MethodGet, "/api/v1/events/ws")
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != CodeUnavailable {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != "a\\x0ab\\x7f" {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
