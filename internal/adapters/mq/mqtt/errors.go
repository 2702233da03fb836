package mqtt

import "errors"

// Sentinel kinds for transport errors.
var (
	ErrNotConnected   = errors.New("mqtt client not connected")
	ErrUnknownChannel = errors.New("unknown door channel")
	ErrTimeout        = errors.New("mqtt operation timed out")
)
