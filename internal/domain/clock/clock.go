// Package clock provides the virtual real-time clock used to stamp telemetry.
//
// The clock is set from a reference instant and then advances at wall clock
// rate: Now() = reference + (wall.Now() - wall reference). It never fails; an
// unset clock reports time relative to DefaultReference.
//
// The clock runs in UTC and the wire layout carries no zone, so Format and
// Parse are exact inverses on every host.
package clock

import (
	"context"
	"sync"
	"time"
)

// DefaultReference is the instant an unset clock starts from.
var DefaultReference = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Layout is the DD/MM/YYYY HH:MM:SS wire and display format.
const Layout = "02/01/2006 15:04:05"

// WallClock abstracts the host clock so tests can control apparent time.
type WallClock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System is the host wall clock.
var System WallClock = systemClock{}

// TimeSource is an authoritative time provider, e.g. an NTP client.
type TimeSource interface {
	Time(ctx context.Context) (time.Time, error)
}

// TimeSourceFunc adapts a function to TimeSource.
type TimeSourceFunc func(ctx context.Context) (time.Time, error)

// Time calls f.
func (f TimeSourceFunc) Time(ctx context.Context) (time.Time, error) { return f(ctx) }

// Clock is safe for concurrent use.
type Clock struct {
	mu        sync.RWMutex
	wall      WallClock
	reference time.Time
	wallRef   time.Time
}

// New creates a clock at DefaultReference. A nil wall uses System.
func New(wall WallClock) *Clock {
	if wall == nil {
		wall = System
	}
	return &Clock{
		wall:      wall,
		reference: DefaultReference,
		wallRef:   wall.Now(),
	}
}

// Set re-bases the clock so that Now() returns ref, in UTC, at this instant.
func (c *Clock) Set(ref time.Time) {
	now := c.wall.Now()
	c.mu.Lock()
	c.reference = ref.UTC()
	c.wallRef = now
	c.mu.Unlock()
}

// Reset re-bases the clock to DefaultReference.
func (c *Clock) Reset() {
	c.Set(DefaultReference)
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	ref, wallRef := c.reference, c.wallRef
	c.mu.RUnlock()
	return ref.Add(c.wall.Now().Sub(wallRef))
}

// SyncFrom sets the clock from src. On failure the current reference is kept
// and false is returned.
func (c *Clock) SyncFrom(ctx context.Context, src TimeSource) bool {
	if src == nil {
		return false
	}
	t, err := src.Time(ctx)
	if err != nil || t.IsZero() {
		return false
	}
	c.Set(t)
	return true
}

// Format renders t in Layout as UTC wall time.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a Layout timestamp. The result carries no zone information and
// is interpreted as UTC.
func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}
