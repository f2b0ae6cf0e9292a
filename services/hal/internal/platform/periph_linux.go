//go:build linux && !tinygo

package platform

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

var hostInit struct {
	once sync.Once
	err  error
}

// PeriphLine drives a periph.io GPIO as the sensor's data line. Input mode
// enables the internal pull-up.
type PeriphLine struct {
	p gpio.PinIO
}

func (l *PeriphLine) ConfigureInput() error              { return l.p.In(gpio.PullUp, gpio.NoEdge) }
func (l *PeriphLine) ConfigureOutput(initial bool) error { return l.p.Out(gpio.Level(initial)) }
func (l *PeriphLine) Set(level bool)                     { _ = l.p.Out(gpio.Level(level)) }
func (l *PeriphLine) Get() bool                          { return bool(l.p.Read()) }

// PeriphRegistry initialises the periph host drivers and returns a registry
// resolving pin numbers through name (e.g. "GPIO%d").
func PeriphRegistry(name string) (*Registry, error) {
	hostInit.once.Do(func() {
		_, hostInit.err = host.Init()
	})
	if hostInit.err != nil {
		return nil, fmt.Errorf("periph host init: %w", hostInit.err)
	}
	return NewRegistry(func(pin int) (core.Line, error) {
		p := gpioreg.ByName(fmt.Sprintf(name, pin))
		if p == nil {
			return nil, fmt.Errorf("%w: %s", halerr.ErrUnknownPin, fmt.Sprintf(name, pin))
		}
		return &PeriphLine{p: p}, nil
	}), nil
}

func openHardware(o Options) (*Registry, error) { return PeriphRegistry(o.PinName) }

func hardwareGuard(o Options) func() core.Guard { return GuardFactory(o.RTPriority) }
