package service

import "errors"

// Sentinel errors returned by the monitor and the door controller.
var (
	ErrInvalidTransition = errors.New("invalid run state transition")
	ErrNotRunning        = errors.New("monitor not running")
	ErrUnknownIndicator  = errors.New("unknown target indicator")
	ErrUnknownAction     = errors.New("unknown door action")
)
