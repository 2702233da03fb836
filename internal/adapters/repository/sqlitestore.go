package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/doorlog/internal/domain/model"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS telemetry (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	occupant    TEXT    NOT NULL DEFAULT '',
	ts          TEXT    NOT NULL DEFAULT '',
	temperature REAL,
	humidity    REAL,
	boundary    INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore keeps telemetry in a SQLite table. Boundary markers are rows
// with boundary = 1.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: a single writer, and ":memory:" must not fan out.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create telemetry schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts one record.
func (s *SQLiteStore) Append(ctx context.Context, rec model.TelemetryRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrStoreClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO telemetry (occupant, ts, temperature, humidity) VALUES (?, ?, ?, ?)`,
		rec.Occupant, rec.Timestamp.UTC().Format(time.RFC3339Nano), nullFloat(rec.Temperature), nullFloat(rec.Humidity),
	)
	if err != nil {
		return fmt.Errorf("insert telemetry: %w", err)
	}
	return nil
}

// AppendBoundary inserts a marker row.
func (s *SQLiteStore) AppendBoundary(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO telemetry (boundary) VALUES (1)`); err != nil {
		return fmt.Errorf("insert boundary: %w", err)
	}
	return nil
}

// Records returns every non-marker row in insertion order.
func (s *SQLiteStore) Records(ctx context.Context) ([]model.TelemetryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT occupant, ts, temperature, humidity FROM telemetry WHERE boundary = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query telemetry: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.TelemetryRecord{}
	for rows.Next() {
		var (
			occupant, ts string
			temp, hum    sql.NullFloat64
		)
		if err := rows.Scan(&occupant, &ts, &temp, &hum); err != nil {
			return nil, fmt.Errorf("scan telemetry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			continue
		}
		out = append(out, model.TelemetryRecord{
			Occupant:    occupant,
			Timestamp:   t,
			Temperature: fromNull(temp),
			Humidity:    fromNull(hum),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry: %w", err)
	}
	return out, nil
}

// Boundaries counts marker rows.
func (s *SQLiteStore) Boundaries(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrStoreClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM telemetry WHERE boundary = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count boundaries: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return finite(v.Float64)
}
