package platform

import (
	"sync"
	"time"

	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht/dhtsim"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

// SimFrame chooses the frame a simulated sensor on pin sends.
type SimFrame func(pin int) [5]byte

// SimLine is a simulated sensor on its own line. Its clock is virtual while a
// transmission is in flight and catches up with wall time whenever the line
// is idle, so cache intervals behave as on hardware while pulse timing stays
// exact.
type SimLine struct {
	*dhtsim.Sensor

	mu     sync.Mutex
	base   time.Time
	origin time.Duration
}

func NewSimLine(frame [5]byte) *SimLine {
	s := dhtsim.New(frame)
	return &SimLine{Sensor: s, base: time.Now(), origin: s.Now()}
}

func (l *SimLine) Now() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.Sensor.Now()
	if l.Idle() {
		if want := l.origin + time.Since(l.base); want > cur {
			l.Advance(want - cur)
			cur = want
		}
	}
	return cur
}

// SimRegistry returns a registry whose pins are simulated sensors.
func SimRegistry(frame SimFrame) *Registry {
	return NewRegistry(func(pin int) (core.Line, error) {
		if pin < 0 {
			return nil, halerr.ErrUnknownPin
		}
		return NewSimLine(frame(pin)), nil
	})
}
