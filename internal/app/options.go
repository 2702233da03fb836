package service

import (
	"time"

	repository "github.com/okian/doorlog/internal/adapters/repository"
	"github.com/okian/doorlog/internal/domain/clock"
	"github.com/okian/doorlog/internal/domain/sensor"
	"github.com/okian/doorlog/pkg/logger"
)

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithName sets the rig name announced at startup.
func WithName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.name = name
		}
	}
}

// WithStore sets the telemetry store. The service closes it on shutdown.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSensor sets the sensor model.
func WithSensor(m *sensor.Model) Option {
	return func(s *Service) {
		if m != nil {
			s.sensor = m
		}
	}
}

// WithClock sets the virtual clock.
func WithClock(c *clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTimeSource sets the authoritative time source used at init.
func WithTimeSource(src clock.TimeSource) Option {
	return func(s *Service) {
		s.timeSource = src
	}
}

// WithSyncClock enables or disables clock sync at init.
func WithSyncClock(enabled bool) Option {
	return func(s *Service) {
		s.syncClock = enabled
	}
}

// WithTickInterval sets the loop period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithBufferSize bounds the number of undrained door messages.
func WithBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithPresets sets the temperatures behind the H and L indicators.
func WithPresets(high, low float64) Option {
	return func(s *Service) {
		s.presets[IndicatorHigh] = sensor.Float(high)
		s.presets[IndicatorLow] = sensor.Float(low)
	}
}
