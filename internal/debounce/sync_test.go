package debounce

import "testing"

func TestSynchronizerTwoTickDelay(t *testing.T) {
	s := NewSynchronizer(PullDown)

	raw := []bool{true, false, false, true, true, false, true, false}
	var got []bool
	for _, r := range raw {
		got = append(got, s.Sample(r))
	}

	// First two outputs are the idle level; from then on the output at
	// tick t is the raw sample from tick t-2.
	for i := 0; i < 2; i++ {
		if got[i] {
			t.Errorf("tick %d: expected idle level before the delay line fills", i+1)
		}
	}
	for i := 2; i < len(raw); i++ {
		if got[i] != raw[i-2] {
			t.Errorf("tick %d: got %v, want raw sample from tick %d (%v)", i+1, got[i], i-1, raw[i-2])
		}
	}
}

func TestSynchronizerPullUpReset(t *testing.T) {
	s := NewSynchronizer(PullUp)
	if !s.Sample(false) || !s.Sample(false) {
		t.Error("pull-up synchronizer should emit the high idle level for two ticks after reset")
	}
	if s.Sample(false) {
		t.Error("third tick should expose the first real sample")
	}

	s.Reset()
	if !s.Sample(false) {
		t.Error("reset should reload the idle level")
	}
}
