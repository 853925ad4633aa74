// Package logic contains pure business logic for switch state tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters; filter
// time advances only through Process calls.
package logic

import "time"

// State represents the logical state of the switch.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EventType represents a state transition event.
type EventType string

const (
	EventSwitchOn  EventType = "SWITCH_ON"
	EventSwitchOff EventType = "SWITCH_OFF"
)

// Event represents a debounced state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State
}

// Input represents a single raw sample of the switch line.
type Input struct {
	// Raw is the line level as read from GPIO (true = high). Polarity
	// interpretation happens inside the monitor.
	Raw  bool
	Time time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	On  int
	Off int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
