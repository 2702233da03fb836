package queue

import "errors"

// Sentinel kinds for buffer errors.
var (
	ErrClosed     = errors.New("event buffer closed")
	ErrBufferFull = errors.New("event buffer full")
)
