// services/hal/hal.go
package hal

import (
	"context"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	dhtdev "github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/devices/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/platform"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// Options selects the platform: simulated sensors, periph.io GPIO on Linux or
// machine pins on RP2 boards.
type Options = platform.Options

// Node is one sensor opened for direct reads, outside the bus.
type Node = dhtdev.Node

const (
	VerbRead  = core.VerbRead
	VerbStats = dhtdev.VerbStats
)

// -----------------------------------------------------------------------------
// Entry points
// -----------------------------------------------------------------------------

// Run serves the HAL on conn until ctx ends. Devices come from retained
// config on config/hal.
func Run(ctx context.Context, conn *bus.Connection, opts Options) error {
	res, err := platform.Open(opts)
	if err != nil {
		return err
	}
	core.NewHAL(conn, res).Run(ctx)
	return nil
}

// OpenNode claims p.Pin and returns a node with its line parked high. The
// caller must Close it.
func OpenNode(id string, v dht.Variant, p types.DHTParams, opts Options) (*Node, error) {
	res, err := platform.Open(opts)
	if err != nil {
		return nil, err
	}
	n, err := dhtdev.Open(id, v, p, res)
	if err != nil {
		return nil, err
	}
	if err := n.Configure(); err != nil {
		_ = n.Close()
		return nil, err
	}
	return n, nil
}

// DeviceTypes lists the device types accepted in config/hal.
func DeviceTypes() []string { return core.BuilderTypes() }

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

func TopicConfig() bus.Topic { return core.TopicConfigHAL() }
func TopicState() bus.Topic  { return core.TopicHALState() }

func TopicInfo(domain, kind, name string) bus.Topic   { return core.CapInfo(domain, kind, name) }
func TopicStatus(domain, kind, name string) bus.Topic { return core.CapStatus(domain, kind, name) }
func TopicValue(domain, kind, name string) bus.Topic  { return core.CapValue(domain, kind, name) }

func TopicControl(domain, kind, name, verb string) bus.Topic {
	return core.CapCtrl(domain, kind, name, verb)
}
