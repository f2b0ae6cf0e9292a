//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"runtime/interrupt"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

const rp2MaxGPIO = 28

type rp2Line struct {
	p machine.Pin
}

func (l rp2Line) ConfigureInput() error {
	l.p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (l rp2Line) ConfigureOutput(initial bool) error {
	l.p.Set(initial)
	l.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (l rp2Line) Set(b bool) { l.p.Set(b) }
func (l rp2Line) Get() bool  { return l.p.Get() }

func openHardware(Options) (*Registry, error) {
	return NewRegistry(func(n int) (core.Line, error) {
		if n < 0 || n > rp2MaxGPIO {
			return nil, halerr.ErrUnknownPin
		}
		return rp2Line{p: machine.Pin(n)}, nil
	}), nil
}

// IRQGuard masks interrupts for the guarded window.
type IRQGuard struct {
	state interrupt.State
}

func (g *IRQGuard) Enter() { g.state = interrupt.Disable() }
func (g *IRQGuard) Exit()  { interrupt.Restore(g.state) }

func hardwareGuard(Options) func() core.Guard {
	return func() core.Guard { return &IRQGuard{} }
}
