package repository

import "errors"

// Sentinel kinds for telemetry store errors.
var (
	ErrStoreClosed    = errors.New("telemetry store closed")
	ErrEmptyPath      = errors.New("telemetry store path is empty")
	ErrUnknownBackend = errors.New("unknown telemetry store backend")
)
