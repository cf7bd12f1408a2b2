// Seatcast - Weekday Seat Occupancy Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seatcast

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/seatcast/internal/metrics"
	"github.com/tomtom215/seatcast/internal/models"
	"github.com/tomtom215/seatcast/internal/resilience"
)

// Supported drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DefaultTable holds the historical occupancy records.
const DefaultTable = "density_history"

func init() {
	// DuckDB accepts ? placeholders; sqlx does not know the driver name.
	sqlx.BindDriver(DriverDuckDB, sqlx.QUESTION)
}

// Config configures the historical data source.
type Config struct {
	// Driver is one of duckdb, postgres or sqlite3.
	Driver string

	// DSN is the driver-specific connection string. For duckdb and sqlite3
	// an empty DSN opens an in-memory database.
	DSN string

	// Table is the records table (default: density_history).
	Table string

	// CreateSchema creates the table when it does not exist.
	CreateSchema bool

	// MaxOpenConns bounds the pool; in-memory SQLite is forced to 1.
	MaxOpenConns int

	// QueryTimeout bounds each query (default: 30s).
	QueryTimeout time.Duration
}

// Source reads historical records through database/sql.
type Source struct {
	db      *sqlx.DB
	driver  string
	table   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
}

// Open connects to the configured database and verifies the connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Source, error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if !validIdentifier(cfg.Table) {
		return nil, &models.ValidationError{Field: "table", Value: cfg.Table, Message: "must be a plain SQL identifier"}
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}

	dsn := cfg.DSN
	switch cfg.Driver {
	case DriverDuckDB:
		if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
	case DriverSQLite:
		if dsn == "" {
			dsn = ":memory:"
		}
		if dsn == ":memory:" {
			cfg.MaxOpenConns = 1
		} else if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, &models.ValidationError{Field: "dsn", Message: "postgres requires a DSN"}
		}
	default:
		return nil, &models.ValidationError{Field: "driver", Value: cfg.Driver, Message: "must be duckdb, postgres or sqlite3"}
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	logger = logger.With().Str("component", "datasource").Str("driver", cfg.Driver).Logger()
	s := &Source{
		db:      db,
		driver:  cfg.Driver,
		table:   cfg.Table,
		timeout: cfg.QueryTimeout,
		breaker: resilience.NewCircuitBreaker[any](resilience.DefaultBreakerConfig("datasource_"+cfg.Driver), logger),
		logger:  logger,
	}

	if cfg.CreateSchema {
		if err := s.EnsureSchema(ctx); err != nil {
			closeQuietly(db)
			return nil, err
		}
	}

	s.logger.Info().Str("table", s.table).Msg("historical data source connected")
	return s, nil
}

// NewFromDB wraps an existing connection.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFromDB(db *sqlx.DB, table string, logger zerolog.Logger) *Source {
	if table == "" {
		table = DefaultTable
	}
	logger = logger.With().Str("component", "datasource").Str("driver", db.DriverName()).Logger()
	return &Source{
		db:      db,
		driver:  db.DriverName(),
		table:   table,
		timeout: 30 * time.Second,
		breaker: resilience.NewCircuitBreaker[any](resilience.DefaultBreakerConfig("datasource_"+db.DriverName()), logger),
		logger:  logger,
	}
}

func ensureParentDir(path string) error {
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for the database directory
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Driver returns the driver name.
func (s *Source) Driver() string { return s.driver }

// DB returns the underlying connection.
func (s *Source) DB() *sqlx.DB { return s.db }

// Close closes the connection pool.
func (s *Source) Close() error {
	return s.db.Close()
}

// Ping verifies the connection.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// guard runs fn through the circuit breaker with the query timeout and
// records the outcome.
func guard[T any](ctx context.Context, s *Source, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	metrics.RecordDataSourceQuery(s.driver, err)

	var zero T
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("data source unavailable: %w", err)
		}
		return zero, err
	}
	return res.(T), nil
}

// Query returns records ordered by created_at. weekdayOnly keeps
// day_of_week 0..4; since, when set, keeps records created at or after it.
func (s *Source) Query(ctx context.Context, weekdayOnly bool, since *time.Time) ([]models.HistoricalRecord, error) {
	var where []string
	var args []any
	if weekdayOnly {
		where = append(where, "day_of_week <= 4")
	}
	if since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, since.UTC())
	}

	query := "SELECT id, occupied_seats, density_rate, created_at, day_of_week FROM " + s.table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	query = s.db.Rebind(query)

	records, err := guard(ctx, s, func(ctx context.Context) ([]models.HistoricalRecord, error) {
		var out []models.HistoricalRecord
		if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
			return nil, fmt.Errorf("query %s: %w", s.table, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("records", len(records)).Bool("weekday_only", weekdayOnly).Msg("queried historical records")
	return records, nil
}

type dayCount struct {
	Day   int `db:"day_of_week"`
	Count int `db:"n"`
}

// CountByDay returns the number of weekday records per day_of_week.
func (s *Source) CountByDay(ctx context.Context) (map[int]int, error) {
	query := "SELECT day_of_week, COUNT(*) AS n FROM " + s.table + " WHERE day_of_week <= 4 GROUP BY day_of_week"

	rows, err := guard(ctx, s, func(ctx context.Context) ([]dayCount, error) {
		var out []dayCount
		if err := s.db.SelectContext(ctx, &out, query); err != nil {
			return nil, fmt.Errorf("count %s by day: %w", s.table, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, r := range rows {
		counts[r.Day] = r.Count
	}
	return counts, nil
}

// MaxRecentLimit caps how many rows Recent returns.
const MaxRecentLimit = 1000

// Recent returns up to limit records, newest first.
func (s *Source) Recent(ctx context.Context, limit int) ([]models.HistoricalRecord, error) {
	if limit < 1 || limit > MaxRecentLimit {
		return nil, &models.ValidationError{
			Field:   "limit",
			Value:   limit,
			Message: fmt.Sprintf("must be between 1 and %d", MaxRecentLimit),
		}
	}
	query := s.db.Rebind("SELECT id, occupied_seats, density_rate, created_at, day_of_week FROM " + s.table +
		" ORDER BY created_at DESC, id DESC LIMIT ?")

	return guard(ctx, s, func(ctx context.Context) ([]models.HistoricalRecord, error) {
		var out []models.HistoricalRecord
		if err := s.db.SelectContext(ctx, &out, query, limit); err != nil {
			return nil, fmt.Errorf("query recent %s: %w", s.table, err)
		}
		return out, nil
	})
}

// Count returns the total number of records, weekend rows included.
func (s *Source) Count(ctx context.Context) (int, error) {
	query := "SELECT COUNT(*) FROM " + s.table

	return guard(ctx, s, func(ctx context.Context) (int, error) {
		var n int
		if err := s.db.GetContext(ctx, &n, query); err != nil {
			return 0, fmt.Errorf("count %s: %w", s.table, err)
		}
		return n, nil
	})
}

// Insert adds records in one transaction. Records with a zero ID are
// numbered after the current maximum.
//
//nolint:gocritic // rangeValCopy is acceptable for small records
func (s *Source) Insert(ctx context.Context, records []models.HistoricalRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // rollback after commit is a no-op

	var nextID int64
	if err := tx.GetContext(ctx, &nextID, "SELECT COALESCE(MAX(id), 0) FROM "+s.table); err != nil {
		return fmt.Errorf("read max id: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"INSERT INTO "+s.table+" (id, occupied_seats, density_rate, created_at, day_of_week) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range records {
		r := &records[i]
		id := r.ID
		if id == 0 {
			nextID++
			id = nextID
		}
		if _, err := stmt.ExecContext(ctx, id, r.OccupiedSeats, r.DensityRate, r.CreatedAt.UTC(), r.DayOfWeek); err != nil {
			return fmt.Errorf("insert record %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	s.logger.Info().Int("records", len(records)).Msg("inserted historical records")
	return nil
}

// WeekdayIndex maps a timestamp to 0 (Monday) .. 6 (Sunday).
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
