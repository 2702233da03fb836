package access

import "errors"

// Sentinel errors for door message handling.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownChannel   = errors.New("unknown channel")
)
