// Package model contains domain models passed between layers.
package model

import "time"

// Door channels carried on the event source.
const (
	ChannelEnter = "enter"
	ChannelExit  = "exit"
	ChannelUser  = "user"
)

// Channels lists every door channel in subscription order.
var Channels = []string{ChannelEnter, ChannelExit, ChannelUser}

// Message is a raw door message as delivered by the transport.
// Parsing is deferred to the tick loop so callbacks stay cheap.
type Message struct {
	Channel    string    // enter, exit or user
	Payload    string    // timestamp or user id
	ReceivedAt time.Time // host time of delivery
}

// TelemetryRecord is one persisted sample taken while a subject was present.
// Temperature and Humidity are nil when the stored cell was empty.
type TelemetryRecord struct {
	Occupant    string    `json:"occupant" yaml:"occupant"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Temperature *float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty" yaml:"humidity,omitempty"`
}

// Valid reports whether both environmental values are present.
func (r TelemetryRecord) Valid() bool {
	return r.Temperature != nil && r.Humidity != nil
}
