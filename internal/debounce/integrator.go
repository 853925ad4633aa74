package debounce

// Integrator debounces with a saturating up/down counter. Each tick the
// accumulator moves one step toward the rail of the current sample: toward
// 2^n while the line reads the active level, toward 0 while it reads the
// idle level. The output flips only when the accumulator newly reaches a
// rail, so isolated bounces nudge the counter and decay back without ever
// crossing, while a sustained level change drives it all the way over.
//
// Unlike Consecutive, partial progress from an almost-settled bounce is not
// discarded, so a genuine transition that follows near-miss history commits
// in fewer ticks.
type Integrator struct {
	polarity Polarity
	limit    int

	// acc is always in [0, limit]; clamped, never wrapping.
	acc int

	debounced bool
}

// NewIntegrator returns a leaky-integrator filter with a threshold of 2^n
// ticks, initialized to the idle level for the given polarity.
func NewIntegrator(n int, polarity Polarity) (*Integrator, error) {
	limit, err := checkExponent(n)
	if err != nil {
		return nil, err
	}
	f := &Integrator{polarity: polarity, limit: limit}
	f.Reset()
	return f, nil
}

// Step incorporates one tick's sample and returns the debounced state.
//
// Commits fire only inside the clamped increment/decrement, on the tick a
// rail is newly reached; a saturated accumulator never re-commits.
func (f *Integrator) Step(sample bool) bool {
	if sample == f.polarity.OffLevel() {
		if f.acc > 0 {
			f.acc--
			if f.acc == 0 {
				f.debounced = sample
			}
		}
	} else {
		if f.acc < f.limit {
			f.acc++
			if f.acc == f.limit {
				f.debounced = sample
			}
		}
	}
	return f.debounced
}

// Current returns the debounced state without consuming a tick.
func (f *Integrator) Current() bool {
	return f.debounced
}

// Reset empties the accumulator and returns the output to the idle level.
func (f *Integrator) Reset() {
	f.acc = 0
	f.debounced = f.polarity.OffLevel()
}
