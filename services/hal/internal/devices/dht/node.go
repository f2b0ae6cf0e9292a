package dhtdev

import (
	"context"
	"errors"
	"io"

	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/errcode"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

var _ io.Reader = (*Node)(nil)

const opRead = "dht.read"

// Node exposes one sensor as a fixed-size byte read.
type Node struct {
	id    string
	pin   int
	lines core.LineRegistry
	dev   *dht.Device
	info  types.DHTInfo
}

// NewNode wraps a driver. lines may be nil when the line is not claimed
// through a registry.
func NewNode(id string, pin int, lines core.LineRegistry, dev *dht.Device, info types.DHTInfo) *Node {
	return &Node{id: id, pin: pin, lines: lines, dev: dev, info: info}
}

// ID returns the device ID the line is claimed under.
func (n *Node) ID() string { return n.id }

// Variant returns the sensor family.
func (n *Node) Variant() dht.Variant { return n.dev.Variant() }

// Size is the number of bytes every Read must request.
func (n *Node) Size() int { return n.dev.Variant().ReadingSize() }

// Read fills p with the latest reading: humidity and temperature integer
// bytes for DHT11, all four data bytes for DHT22. len(p) must equal Size.
// Failures carry errcode.InvalidRequestSize or errcode.IOError and never
// report a partial count.
func (n *Node) Read(p []byte) (int, error) {
	return n.ReadContext(context.Background(), p)
}

// ReadContext is Read with cancellation. A cancelled read fails with
// errcode.Busy and an expired deadline with errcode.Timeout.
func (n *Node) ReadContext(ctx context.Context, p []byte) (int, error) {
	v := n.dev.Variant()
	if len(p) != v.ReadingSize() {
		return 0, errcode.Wrap(errcode.InvalidRequestSize, opRead, dht.ErrInvalidRequestSize)
	}
	r, err := n.dev.ReadContext(ctx)
	if err != nil {
		return 0, readErr(err)
	}
	return v.PutReading(p, r), nil
}

func readErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errcode.Wrap(errcode.MapDriverErr(err), opRead, err)
	}
	return errcode.Wrap(errcode.IOError, opRead, err)
}

// Reading returns the latest reading, refreshing it if it is stale.
func (n *Node) Reading(ctx context.Context) (dht.Reading, error) {
	r, err := n.dev.ReadContext(ctx)
	if err != nil {
		return dht.Reading{}, readErr(err)
	}
	return r, nil
}

// Stats returns the driver counters.
func (n *Node) Stats() dht.Stats { return n.dev.Stats() }

// Close releases the line.
func (n *Node) Close() error {
	if n.lines != nil {
		n.lines.ReleaseLine(n.id, n.pin)
	}
	return nil
}
