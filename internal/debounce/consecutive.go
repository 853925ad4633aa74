package debounce

// Consecutive debounces by run-length counting: a new level is trusted only
// after it has been observed unchanged for a full window of 2^n ticks. Any
// disagreement between consecutive samples discards all progress, so a run
// interrupted one tick short of the window starts over from scratch.
type Consecutive struct {
	polarity Polarity
	window   int

	// prev and delayed hold the last two samples, prev being the newer.
	prev    bool
	delayed bool

	// run counts consecutive agreeing samples. Always in [1, window]:
	// it saturates at the window and never wraps.
	run int

	debounced bool
}

// NewConsecutive returns a run-length filter with a window of 2^n ticks,
// initialized to the idle level for the given polarity.
func NewConsecutive(n int, polarity Polarity) (*Consecutive, error) {
	window, err := checkExponent(n)
	if err != nil {
		return nil, err
	}
	f := &Consecutive{polarity: polarity, window: window}
	f.Reset()
	return f, nil
}

// Step incorporates one tick's sample and returns the debounced state.
//
// The commit is edge-triggered: the output is overwritten exactly once, on
// the tick the run count first reaches the window. While the run stays
// saturated the output cannot differ from the held sample, so no re-commit
// can fire.
func (f *Consecutive) Step(sample bool) bool {
	f.delayed, f.prev = f.prev, sample
	if f.prev != f.delayed {
		f.run = 1
		return f.debounced
	}
	if f.run < f.window {
		f.run++
	}
	if f.run == f.window && f.debounced != f.delayed {
		f.debounced = f.delayed
	}
	return f.debounced
}

// Current returns the debounced state without consuming a tick.
func (f *Consecutive) Current() bool {
	return f.debounced
}

// Reset reinitializes to the idle level, as if freshly constructed.
func (f *Consecutive) Reset() {
	off := f.polarity.OffLevel()
	f.prev = off
	f.delayed = off
	f.run = 1
	f.debounced = off
}
