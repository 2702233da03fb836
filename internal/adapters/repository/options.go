package repository

import "github.com/okian/doorlog/internal/domain/clock"

type options struct {
	layout string
	fsync  bool
}

func defaultOptions() options {
	return options{layout: clock.Layout}
}

// Option applies a configuration option to a file backed store.
type Option func(*options)

// WithTimestampLayout overrides the CSV timestamp layout. Readers always
// accept both the configured layout and RFC 3339.
func WithTimestampLayout(layout string) Option {
	return func(o *options) {
		if layout != "" {
			o.layout = layout
		}
	}
}

// WithFsync syncs the file to disk after every write.
func WithFsync(enabled bool) Option {
	return func(o *options) {
		o.fsync = enabled
	}
}
