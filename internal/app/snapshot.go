package service

import (
	"context"
	"time"

	"github.com/okian/doorlog/internal/domain/access"
	"github.com/okian/doorlog/internal/domain/clock"
	"github.com/okian/doorlog/internal/domain/sensor"
)

// Snapshot is the display surface: everything a front panel would render.
type Snapshot struct {
	State          string         `json:"state"`
	Clock          string         `json:"clock"`
	Time           time.Time      `json:"time"`
	Reading        sensor.Reading `json:"reading"`
	Period         PeriodView     `json:"period"`
	Indicator      string         `json:"indicator"`
	Target         sensor.Target  `json:"target"`
	OccupancyLED   access.RGB     `json:"occupancy_led"`
	TemperatureLED access.RGB     `json:"temperature_led"`
	BufferedEvents int            `json:"buffered_events"`
}

// PeriodView is the JSON form of the live access period.
type PeriodView struct {
	Active         bool       `json:"active"`
	Occupant       string     `json:"occupant,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
}

// Snapshot returns the current display state.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	now := s.clock.Now()
	p := s.machine.Period()

	s.dataMu.RLock()
	snap := Snapshot{
		State:     s.state.String(),
		Clock:     clock.Format(now),
		Time:      now,
		Reading:   s.reading,
		Indicator: s.indicator,
		Target:    s.target,
	}
	s.dataMu.RUnlock()

	snap.Period = PeriodView{
		Active:         p.Active,
		Occupant:       p.Occupant,
		ElapsedSeconds: p.Elapsed(now).Seconds(),
	}
	if !p.StartTime.IsZero() {
		start := p.StartTime
		snap.Period.StartTime = &start
	}
	if !p.EndTime.IsZero() {
		end := p.EndTime
		snap.Period.EndTime = &end
	}
	snap.OccupancyLED = access.OccupancyColour(p, now)
	snap.TemperatureLED = access.TemperatureColour(snap.Reading.Temperature)
	if q := s.events.Load(); q != nil {
		snap.BufferedEvents = q.Len(ctx)
	}
	return snap
}
