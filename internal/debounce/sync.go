package debounce

// Synchronizer is a two-stage input sampler. When the raw line is written by
// a different execution context than the one stepping the filter (an
// interrupt-driven pin read feeding a polling loop, say), a sample taken
// mid-update must never reach the filter. The two delay stages hold every
// raw sample for a full tick before exposing it, so the filter only ever
// sees values that were actually latched for a whole tick.
//
// When the line is read in the same loop that steps the filter, the sample
// is already tick-synchronous and the Synchronizer can be omitted.
type Synchronizer struct {
	polarity Polarity
	stage1   bool
	stage2   bool
}

// NewSynchronizer returns a Synchronizer with both stages at the idle level.
func NewSynchronizer(polarity Polarity) *Synchronizer {
	s := &Synchronizer{polarity: polarity}
	s.Reset()
	return s
}

// Sample shifts the raw bit into the delay line and returns the synchronized
// sample: the raw value as supplied two ticks ago. For the first two ticks
// after Reset it returns the idle level.
func (s *Synchronizer) Sample(raw bool) bool {
	out := s.stage2
	s.stage2 = s.stage1
	s.stage1 = raw
	return out
}

// Reset loads both stages with the idle level for the configured polarity.
func (s *Synchronizer) Reset() {
	off := s.polarity.OffLevel()
	s.stage1 = off
	s.stage2 = off
}
