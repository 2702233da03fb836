package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/doorlog/internal/domain/model"
)

// Header is the first row of every telemetry CSV file.
var Header = []string{"User", "Timestamp", "Temperature (C)", "Humidity (%)"}

// boundaryRow is written after an access period ends. Readers skip it.
var boundaryRow = []string{"", "", "", ""}

// CSVStore appends telemetry rows to a CSV file.
type CSVStore struct {
	mu     sync.Mutex
	path   string
	opts   options
	file   *os.File
	w      *csv.Writer
	closed bool
}

// OpenCSV opens path for appending, creating it with a header when new or
// empty. Existing rows are kept.
func OpenCSV(path string, opts ...Option) (*CSVStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("open telemetry csv: %w", err)
	}
	s := &CSVStore{path: path, opts: o, file: f, w: csv.NewWriter(f)}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat telemetry csv: %w", err)
	}
	if info.Size() == 0 {
		if err := s.write(Header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file the store writes to.
func (s *CSVStore) Path() string { return s.path }

// Append writes one record row.
func (s *CSVStore) Append(ctx context.Context, rec model.TelemetryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.write([]string{
		rec.Occupant,
		rec.Timestamp.UTC().Format(s.opts.layout),
		formatOptional(rec.Temperature),
		formatOptional(rec.Humidity),
	})
}

// AppendBoundary writes the blank marker row.
func (s *CSVStore) AppendBoundary(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.write(boundaryRow)
}

// Records re-reads the file from disk.
func (s *CSVStore) Records(ctx context.Context) ([]model.TelemetryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCSVFile(s.path, WithTimestampLayout(s.opts.layout))
}

// Close flushes and closes the file.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.w.Flush()
	return errors.Join(s.w.Error(), s.file.Close())
}

func (s *CSVStore) write(row []string) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write telemetry row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush telemetry row: %w", err)
	}
	if s.opts.fsync {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("sync telemetry file: %w", err)
		}
	}
	return nil
}

// ReadCSVFile reads a telemetry CSV file. A missing file yields no records.
func ReadCSVFile(path string, opts ...Option) ([]model.TelemetryRecord, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.TelemetryRecord{}, nil
		}
		return nil, fmt.Errorf("open telemetry csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, opts...)
}

// ReadCSV parses telemetry rows. The header, blank lines and boundary rows
// are skipped. Empty, non-numeric or non-finite value cells become nil; rows
// whose timestamp cannot be parsed are dropped.
func ReadCSV(r io.Reader, opts ...Option) ([]model.TelemetryRecord, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	out := []model.TelemetryRecord{}
	for line := 0; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read telemetry csv: %w", err)
		}
		if blank(row) || (line == 0 && isHeader(row)) {
			continue
		}
		ts, ok := parseTimestamp(cell(row, 1), o.layout)
		if !ok {
			continue
		}
		out = append(out, model.TelemetryRecord{
			Occupant:    cell(row, 0),
			Timestamp:   ts,
			Temperature: parseOptional(cell(row, 2)),
			Humidity:    parseOptional(cell(row, 3)),
		})
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), Header[0]) &&
		strings.EqualFold(cell(row, 1), Header[1])
}

func parseTimestamp(s, layout string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range []string{layout, time.RFC3339Nano} {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(v)
}

// finite returns nil for NaN and infinities so they read as missing values.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
