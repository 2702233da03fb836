// Package access owns the single live access period and decides, tick by
// tick, whether telemetry is persisted.
package access

import (
	"sync"
	"time"

	"github.com/okian/doorlog/internal/domain/model"
	"github.com/okian/doorlog/internal/domain/sensor"
)

// Period is the live access period. There is exactly one per Machine and it
// is mutated in place; an empty Occupant means nobody has identified yet.
type Period struct {
	Active    bool      `json:"active"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Occupant  string    `json:"occupant,omitempty"`
}

// Elapsed returns the time since StartTime, or zero when inactive.
func (p Period) Elapsed(now time.Time) time.Duration {
	if !p.Active || p.StartTime.IsZero() {
		return 0
	}
	if d := now.Sub(p.StartTime); d > 0 {
		return d
	}
	return 0
}

// EffectKind says what the tick loop should persist.
type EffectKind int

// Tick effects.
const (
	EffectNone EffectKind = iota
	EffectAppend
	EffectBoundary
)

func (k EffectKind) String() string {
	switch k {
	case EffectAppend:
		return "append"
	case EffectBoundary:
		return "boundary"
	default:
		return "none"
	}
}

// Effect is the outcome of one Tick. Record is set only for EffectAppend.
type Effect struct {
	Kind   EffectKind
	Record model.TelemetryRecord
}

// Machine is the access state machine. No transition is rejected: a second
// EnterAt restarts the period and an ExitAt while inactive still arms the
// boundary marker.
type Machine struct {
	mu        sync.RWMutex
	period    Period
	justEnded bool
}

// NewMachine returns an inactive machine.
func NewMachine() *Machine {
	return &Machine{}
}

// Apply folds one event into the period.
func (m *Machine) Apply(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Kind {
	case KindEnterAt:
		m.period.StartTime = ev.At
		m.period.Active = true
		m.justEnded = false
	case KindExitAt:
		m.period.EndTime = ev.At
		m.period.Active = false
		m.justEnded = true
	case KindUserIs:
		m.period.Occupant = ev.User
	}
}

// HandleMessage parses a raw door message and applies it. On error the
// state is unchanged.
func (m *Machine) HandleMessage(channel, payload string) error {
	ev, err := ParseMessage(channel, payload)
	if err != nil {
		return err
	}
	m.Apply(ev)
	return nil
}

// Tick decides the persistence effect for the current reading.
func (m *Machine) Tick(now time.Time, r sensor.Reading) Effect {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.period.Active {
		temp, hum := r.Temperature, r.Humidity
		return Effect{
			Kind: EffectAppend,
			Record: model.TelemetryRecord{
				Occupant:    m.period.Occupant,
				Timestamp:   now,
				Temperature: &temp,
				Humidity:    &hum,
			},
		}
	}
	if m.justEnded {
		m.justEnded = false
		return Effect{Kind: EffectBoundary}
	}
	return Effect{Kind: EffectNone}
}

// Period returns a copy of the live period.
func (m *Machine) Period() Period {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.period
}

// JustEnded reports whether a boundary marker is pending.
func (m *Machine) JustEnded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justEnded
}
