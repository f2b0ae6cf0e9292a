package dhtdev

import (
	"context"
	"math"

	"github.com/SiliconToBit/Embedded-Linux-Driver/errcode"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// VerbStats returns the driver counters as a dht.Stats.
const VerbStats = "stats"

// adaptor presents a Node to the HAL with temperature and humidity
// capabilities sharing the device ID as their name.
type adaptor struct {
	*Node
}

var _ core.Device = adaptor{}

func (a adaptor) Capabilities() []core.CapabilitySpec {
	info := types.Info{SchemaVersion: 1, Driver: a.info.Sensor, Detail: a.info}
	return []core.CapabilitySpec{
		{Kind: types.KindTemperature, Info: info},
		{Kind: types.KindHumidity, Info: info},
	}
}

// Init parks the line high; the first acquisition happens on the first read.
func (a adaptor) Init(ctx context.Context) error {
	return a.dev.Configure()
}

// Read emits both capabilities from one (possibly cached) reading.
func (a adaptor) Read(ctx context.Context, emit func(kind types.Kind, payload any)) error {
	r, err := a.Reading(ctx)
	if err != nil {
		return err
	}
	emit(types.KindTemperature, types.TemperatureValue{DeciC: int16(r.DeciC)})
	emit(types.KindHumidity, types.HumidityValue{RHx100: uint16(min(r.DeciRH*10, math.MaxUint16))})
	return nil
}

func (a adaptor) Control(_ types.Kind, verb string, _ any) (any, error) {
	switch verb {
	case VerbStats:
		return a.Stats(), nil
	default:
		return nil, errcode.Unsupported
	}
}
