package hal

import (
	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/util"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// Simulated sensors report 45.2 %RH and 23.1 °C, shifted by a tenth per pin
// so that devices are distinguishable.
const (
	simDeciRH = 452
	simDeciC  = 231
)

// SimFrame encodes the simulated measurement for pin in v's format.
func SimFrame(v dht.Variant, pin int) [5]byte {
	return v.Frame(simDeciRH+int32(pin), simDeciC+int32(pin))
}

// SimFrames returns an Options.SimFrame that answers each pin in cfg, a HAL
// config section, with the format of the device configured on it. Unlisted
// pins answer as DHT22.
func SimFrames(src any) func(pin int) [5]byte {
	var cfg types.HALConfig
	_ = util.DecodeJSON(src, &cfg)
	byPin := map[int]dht.Variant{}
	for _, d := range cfg.Devices {
		v, ok := dht.VariantByName(d.Type)
		if !ok {
			continue
		}
		var p types.DHTParams
		if err := util.DecodeJSON(d.Params, &p); err != nil {
			continue
		}
		byPin[p.Pin] = v
	}
	return func(pin int) [5]byte {
		v, ok := byPin[pin]
		if !ok {
			v = dht.DHT22
		}
		return SimFrame(v, pin)
	}
}
