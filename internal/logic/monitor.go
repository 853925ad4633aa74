package logic

import (
	"time"

	"github.com/sweeney/switch-sensor/internal/debounce"
)

// Monitor tracks a single switch line and detects debounced transitions.
// Each call to Process is one tick of the underlying filter.
type Monitor struct {
	filter   debounce.Filter
	sync     *debounce.Synchronizer // nil when samples are tick-synchronous
	polarity debounce.Polarity

	// warmupTicks suppresses events until one full filter window (plus
	// the synchronizer delay, when present) has elapsed: the post-reset
	// output is the configured idle level, not a real reading.
	warmupTicks int
	ticks       int
	baselined   bool

	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewMonitor creates a transition monitor over the given filter. sync may be
// nil when the raw samples are read in the same loop that calls Process.
// warmupTicks is the number of initial ticks during which no events are
// emitted; the startTime is used for calculating uptime in heartbeat events.
func NewMonitor(filter debounce.Filter, sync *debounce.Synchronizer, polarity debounce.Polarity, warmupTicks int, startTime time.Time) *Monitor {
	return &Monitor{
		filter:        filter,
		sync:          sync,
		polarity:      polarity,
		warmupTicks:   warmupTicks,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a new raw sample and returns the event to emit, if any.
// Events are only returned after the warm-up period and on transitions of
// the debounced output.
func (m *Monitor) Process(in Input) *Event {
	sample := in.Raw
	if m.sync != nil {
		sample = m.sync.Sample(in.Raw)
	}

	before := m.filter.Current()
	after := m.filter.Step(sample)
	m.ticks++

	if !m.baselined {
		if m.ticks >= m.warmupTicks {
			m.baselined = true
		}
		// Transitions during warm-up are the line's true level becoming
		// visible, not presses.
		return nil
	}

	if after == before {
		return nil
	}

	state := m.stateOf(after)
	ev := &Event{Timestamp: in.Time, State: state}
	if state == StateOn {
		ev.Type = EventSwitchOn
		m.eventCounts.On++
	} else {
		ev.Type = EventSwitchOff
		m.eventCounts.Off++
	}
	return ev
}

// stateOf maps a debounced line level to a logical state: ON is any level
// away from the configured idle level.
func (m *Monitor) stateOf(level bool) State {
	if level != m.polarity.OffLevel() {
		return StateOn
	}
	return StateOff
}

// IsBaselined returns whether the warm-up period has elapsed.
func (m *Monitor) IsBaselined() bool {
	return m.baselined
}

// CurrentState returns the current debounced logical state.
func (m *Monitor) CurrentState() State {
	return m.stateOf(m.filter.Current())
}

// EventCountsSnapshot returns a copy of the event counts.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.eventCounts
}

// Reset reinitializes the filter, the synchronizer, and the warm-up period.
// Event counts are cumulative since startup and survive a reset.
func (m *Monitor) Reset() {
	m.filter.Reset()
	if m.sync != nil {
		m.sync.Reset()
	}
	m.ticks = 0
	m.baselined = false
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.baselined {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
