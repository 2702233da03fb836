package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure, naming the offending key.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig wraps failures reading DOORLOG_CONFIG, the DOORLOG_*
	// environment or decoding them into a Config.
	ErrLoadConfig = errors.New("load doorlog config")
)
