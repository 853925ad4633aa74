// Package debounce filters a noisy single-bit input (a mechanical switch or
// button line) into a stable logical state. Filters are pure step functions:
// the caller samples the line once per fixed-period tick and feeds the bit to
// Step, which returns the current debounced state. This package has NO
// external dependencies and performs no I/O; time exists only as the sequence
// of Step calls.
package debounce

import "fmt"

// DefaultExponent gives the default filter window of 2^3 = 8 ticks.
const DefaultExponent = 3

// maxExponent bounds the window at 2^16 ticks. Larger windows are useless at
// any sane tick rate and start to matter for counter width.
const maxExponent = 16

// Polarity selects which logical level represents the switch's idle (OFF)
// state. A line with a pull-up resistor idles high, so its OFF level is 1.
type Polarity int

const (
	// PullDown means the line idles low: OFF reads as logical 0.
	PullDown Polarity = iota
	// PullUp means the line idles high: OFF reads as logical 1.
	PullUp
)

// OffLevel returns the raw level of the idle state for this polarity.
func (p Polarity) OffLevel() bool {
	return p == PullUp
}

// String returns the flag spelling of the polarity.
func (p Polarity) String() string {
	if p == PullUp {
		return "pull-up"
	}
	return "pull-down"
}

// ParsePolarity parses the flag spelling of a polarity.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "pull-down":
		return PullDown, nil
	case "pull-up":
		return PullUp, nil
	}
	return PullDown, fmt.Errorf("unknown polarity %q (want pull-down or pull-up)", s)
}

// Filter is a tick-stepped debounce filter. Implementations are not safe for
// concurrent use; the caller must serialize Step calls.
type Filter interface {
	// Step incorporates one tick's sample and returns the debounced state.
	Step(sample bool) bool

	// Current returns the debounced state without consuming a tick.
	Current() bool

	// Reset reinitializes all state to the idle level, as if freshly
	// constructed. It takes effect before the next Step.
	Reset()
}

// Filter kinds accepted by New.
const (
	KindConsecutive = "consecutive"
	KindIntegrator  = "integrator"
)

// New constructs the named filter kind. Used to wire the -filter flag.
func New(kind string, n int, polarity Polarity) (Filter, error) {
	switch kind {
	case KindConsecutive:
		return NewConsecutive(n, polarity)
	case KindIntegrator:
		return NewIntegrator(n, polarity)
	}
	return nil, fmt.Errorf("unknown filter kind %q (want %s or %s)", kind, KindConsecutive, KindIntegrator)
}

// checkExponent validates the window exponent and returns the window size
// 2^n in ticks. An out-of-range exponent is a construction error: silently
// wrong saturation arithmetic is worse than failing here.
func checkExponent(n int) (int, error) {
	if n < 0 || n > maxExponent {
		return 0, fmt.Errorf("window exponent %d out of range [0, %d]", n, maxExponent)
	}
	return 1 << n, nil
}
