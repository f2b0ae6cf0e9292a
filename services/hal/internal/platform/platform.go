// Package platform supplies the line, clock and guard resources the HAL hands
// to DHT devices: periph.io GPIO on Linux hosts, machine.Pin on RP2 boards and
// simulated sensors anywhere.
package platform

import (
	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht/dhtsim"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
)

// Options selects and tunes the platform resources.
type Options struct {
	Sim      bool
	SimFrame SimFrame // nil => 45.0 %RH, 23.0 °C in DHT22 encoding

	PinName    string // periph pin name format; default "GPIO%d"
	RTPriority int    // SCHED_FIFO priority inside the guarded window; 0 disables

	Log logrus.FieldLogger
}

func defaultSimFrame(int) [5]byte { return dhtsim.Frame(0x01, 0xC2, 0x00, 0xE6) }

// Open returns the resources for this build target.
func Open(o Options) (core.Resources, error) {
	res := core.Resources{Clock: NewHostClock(), Log: o.Log}
	if o.Sim {
		frame := o.SimFrame
		if frame == nil {
			frame = defaultSimFrame
		}
		res.Lines = SimRegistry(frame)
		return res, nil
	}
	if o.PinName == "" {
		o.PinName = "GPIO%d"
	}
	lines, err := openHardware(o)
	if err != nil {
		return core.Resources{}, err
	}
	res.Lines = lines
	res.NewGuard = hardwareGuard(o)
	return res, nil
}
