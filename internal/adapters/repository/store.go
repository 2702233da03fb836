// Package repository persists telemetry records.
//
// Every Store is append-only and owned by a single writer (the monitor tick
// loop). Records returns a read-only copy with boundary markers removed, so
// readers may run while the writer keeps appending.
package repository

import (
	"context"

	"github.com/okian/doorlog/internal/domain/model"
)

// Store provides append and snapshot access to persisted telemetry.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, rec model.TelemetryRecord) error

	// AppendBoundary persists a boundary marker after an access period ends.
	AppendBoundary(ctx context.Context) error

	// Records returns every persisted record in write order, without markers.
	Records(ctx context.Context) ([]model.TelemetryRecord, error)

	// Close releases the underlying resources. Further appends fail with
	// ErrStoreClosed.
	Close() error
}
