package platform

import "time"

// spinBelow is the longest delay HostClock busy-waits for. Longer delays
// yield to the scheduler; the protocol tolerates late wake-ups there.
const spinBelow = 1 * time.Millisecond

// HostClock is a monotonic microsecond clock backed by the runtime timer.
type HostClock struct {
	start time.Time
}

func NewHostClock() *HostClock { return &HostClock{start: time.Now()} }

func (c *HostClock) Now() time.Duration { return time.Since(c.start) }

func (c *HostClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if d >= spinBelow {
		time.Sleep(d)
		return
	}
	end := time.Now().Add(d)
	for time.Now().Before(end) {
	}
}
