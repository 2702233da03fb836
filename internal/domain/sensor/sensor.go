// Package sensor simulates a four channel environmental sensor whose readings
// random-walk toward a caller supplied target.
package sensor

import (
	"math/rand"
	"sync"
	"time"
)

// Walk probabilities, expressed against a uniform draw in [1,100].
const (
	ChangeProbability = 67
	SpikeProbability  = 5

	drawMax     = 100
	spikeDownAt = 50 // delta draws <= this decrement
)

// Normal values used when a target field is unset.
const (
	NormalTemperature   = 24.5
	NormalPressure      = 1010.0
	NormalHumidity      = 45.0
	NormalGasResistance = 5000.0
)

// Per-tick step magnitudes.
const (
	TemperatureStep   = 0.1
	PressureStep      = 10.0
	HumidityStep      = 1.0
	GasResistanceStep = 1000.0
)

// Reading is one sample of every channel.
type Reading struct {
	Temperature   float64 `json:"temperature"`    // °C
	Pressure      float64 `json:"pressure"`       // hPa
	Humidity      float64 `json:"humidity"`       // %RH
	GasResistance float64 `json:"gas_resistance"` // Ω
	HeatStable    bool    `json:"heat_stable"`
}

// NormalReading is the state a fresh Model starts from.
func NormalReading() Reading {
	return Reading{
		Temperature:   NormalTemperature,
		Pressure:      NormalPressure,
		Humidity:      NormalHumidity,
		GasResistance: NormalGasResistance,
		HeatStable:    true,
	}
}

// Target is the setpoint the walk tracks. Nil fields mean "normal".
type Target struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	Pressure      *float64 `json:"pressure,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	GasResistance *float64 `json:"gas_resistance,omitempty"`
}

// Source supplies uniform integers in [0,n).
type Source interface {
	Intn(n int) int
}

// Model is the stateful sensor. Step consumes randomness, so it is neither
// idempotent nor replayable unless the Source is.
type Model struct {
	mu      sync.Mutex
	src     Source
	reading Reading
}

// Option configures a Model.
type Option func(*Model)

// WithSource injects the random source.
func WithSource(src Source) Option {
	return func(m *Model) {
		if src != nil {
			m.src = src
		}
	}
}

// WithSeed uses a math/rand source seeded with seed.
func WithSeed(seed int64) Option {
	return func(m *Model) {
		m.src = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not security
	}
}

// WithInitial overrides the starting reading.
func WithInitial(r Reading) Option {
	return func(m *Model) {
		m.reading = r
	}
}

// New creates a Model starting at the normal reading.
func New(opts ...Option) *Model {
	m := &Model{reading: NormalReading()}
	for _, opt := range opts {
		opt(m)
	}
	if m.src == nil {
		m.src = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulation, not security
	}
	return m
}

// Step advances every channel once and returns the new reading.
func (m *Model) Step(target Target) Reading {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &m.reading
	r.Temperature = m.walk(r.Temperature, orNormal(target.Temperature, NormalTemperature), TemperatureStep)
	r.Pressure = m.walk(r.Pressure, orNormal(target.Pressure, NormalPressure), PressureStep)
	r.Humidity = m.walk(r.Humidity, orNormal(target.Humidity, NormalHumidity), HumidityStep)
	r.GasResistance = m.walk(r.GasResistance, orNormal(target.GasResistance, NormalGasResistance), GasResistanceStep)
	r.HeatStable = true
	return *r
}

// Reading returns the latest reading without advancing.
func (m *Model) Reading() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reading
}

// walk applies the two stage draw to a single channel.
func (m *Model) walk(value, target, step float64) float64 {
	if m.draw() >= ChangeProbability {
		return value
	}
	if m.draw() < SpikeProbability {
		if m.draw() <= spikeDownAt {
			return value - step
		}
		return value + step
	}
	switch {
	case value > target:
		return value - step
	case value < target:
		return value + step
	default:
		return value
	}
}

// draw returns a uniform integer in [1,100].
func (m *Model) draw() int {
	return m.src.Intn(drawMax) + 1
}

func orNormal(v *float64, normal float64) float64 {
	if v == nil {
		return normal
	}
	return *v
}

// Float returns a pointer to v, for building Targets.
func Float(v float64) *float64 { return &v }
