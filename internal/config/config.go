// Package config defines the monitor configuration and its loader.
//
// Conventions:
// - New builds a Config holding every default.
// - Load layers defaults, an optional YAML file and DOORLOG_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for /healthz, /status and /report.
	Addr string `koanf:"addr"`

	// Name identifies the rig; it prefixes the MQTT client id.
	Name string `koanf:"name"`

	// BrokerURL is the MQTT broker, e.g. "tcp://broker.hivemq.com:1883".
	BrokerURL string `koanf:"broker_url"`

	// TopicPrefix is prepended to door/enter, door/exit and door/user.
	TopicPrefix string `koanf:"topic_prefix"`

	// TickIntervalMS is the monitor loop period.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// EventBufferSize bounds the number of undrained access events.
	EventBufferSize int `koanf:"event_buffer_size"`

	// StoreBackend selects the telemetry store: csv or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// TelemetryPath is the CSV telemetry file.
	TelemetryPath string `koanf:"telemetry_path"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// SyncClock sets the virtual clock from the host time at init.
	SyncClock bool `koanf:"sync_clock"`

	// ValidUsers lists the user codes the door controller admits.
	ValidUsers []string `koanf:"valid_users"`

	// TemperatureHigh and TemperatureLow are the H and L target presets.
	TemperatureHigh float64 `koanf:"temperature_high"`
	TemperatureLow  float64 `koanf:"temperature_low"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		Name:            "MQTT Sub Sim",
		BrokerURL:       "tcp://localhost:1883",
		TopicPrefix:     "uos/cet235",
		TickIntervalMS:  100,
		EventBufferSize: 1024,
		StoreBackend:    BackendCSV,
		TelemetryPath:   "bme680_data.csv",
		SQLitePath:      "bme680_data.db",
		SyncClock:       true,
		ValidUsers:      []string{"MJ235AA", "CK523BB"},
		TemperatureHigh: 35.0,
		TemperatureLow:  20.0,
	}
}

// TickInterval returns the tick period as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.BrokerURL) == "":
		return fmt.Errorf("%w: broker_url must not be empty", ErrInvalidConfig)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	case c.EventBufferSize <= 0:
		return fmt.Errorf("%w: event_buffer_size must be positive", ErrInvalidConfig)
	}
	switch c.StoreBackend {
	case BackendCSV:
		if c.TelemetryPath == "" {
			return fmt.Errorf("%w: telemetry_path must not be empty", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}
