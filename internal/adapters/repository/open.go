package repository

import (
	"context"
	"fmt"

	"github.com/okian/doorlog/internal/domain/model"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Open opens the store for backend at path.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, error) {
	switch backend {
	case BackendCSV:
		return OpenCSV(path, opts...)
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// ReadAll opens backend at path, reads every record and closes it again. A
// missing CSV file reads as empty.
func ReadAll(ctx context.Context, backend, path string) (_ []model.TelemetryRecord, err error) {
	if backend == BackendCSV {
		return ReadCSVFile(path)
	}
	s, err := Open(ctx, backend, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return s.Records(ctx)
}
