package dht

import "time"

// pollStep is the delay between line samples while waiting for a transition.
const pollStep = time.Microsecond

// pulseTimer bounds each wait-for-transition against the family's per-phase
// timeout. It must stay allocation-free: it runs inside the guarded window.
type pulseTimer struct {
	pin     Pin
	clk     Clock
	timeout time.Duration
}

// waitWhile spins while the line reads level. It returns the time spent and
// false if the level did not change within the timeout.
func (t *pulseTimer) waitWhile(level bool) (time.Duration, bool) {
	start := t.clk.Now()
	for t.pin.Get() == level {
		elapsed := t.clk.Now() - start
		if elapsed > t.timeout {
			return elapsed, false
		}
		t.clk.Sleep(pollStep)
	}
	return t.clk.Now() - start, true
}
