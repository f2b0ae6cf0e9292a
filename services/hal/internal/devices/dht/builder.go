package dhtdev

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/util"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// Register this device type with the registry.
func init() {
	core.RegisterBuilder("dht11", builder{})
	core.RegisterBuilder("dht22", builder{})
	core.RegisterBuilder("am2302", builder{})
}

type builder struct{}

// Params: { "pin": 4, "min_interval_ms": 2000, "max_attempts": 3 }
func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	v, ok := dht.VariantByName(in.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", halerr.ErrUnknownVariant, in.Type)
	}
	var pinOnly struct {
		Pin *int `json:"pin"`
	}
	if err := util.DecodeJSON(in.Params, &pinOnly); err != nil {
		return nil, fmt.Errorf("%w: %v", halerr.ErrInvalidParams, err)
	}
	if pinOnly.Pin == nil {
		return nil, halerr.ErrMissingPin
	}
	var p types.DHTParams
	if err := util.DecodeJSON(in.Params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", halerr.ErrInvalidParams, err)
	}
	n, err := Open(in.ID, v, p, in.Res)
	if err != nil {
		return nil, err
	}
	return adaptor{n}, nil
}

// Open claims the configured line and returns a ready Node. The line is parked
// high by Init (HAL) or by the caller via Configure.
func Open(id string, v dht.Variant, p types.DHTParams, res core.Resources) (*Node, error) {
	if p.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: max_attempts %d", halerr.ErrInvalidParams, p.MaxAttempts)
	}
	if res.Lines == nil {
		return nil, halerr.ErrUnsupported
	}
	line, err := res.Lines.ClaimLine(id, p.Pin)
	if err != nil {
		return nil, err
	}
	// Simulated lines carry their own time base.
	clk := res.Clock
	if c, ok := line.(core.Clock); ok {
		clk = c
	}
	if clk == nil {
		res.Lines.ReleaseLine(id, p.Pin)
		return nil, halerr.ErrUnsupported
	}

	opt := dht.Options{
		MinInterval:       util.Millis(p.MinIntervalMs),
		MaxAttempts:       p.MaxAttempts,
		RetryBackoff:      util.Millis(p.RetryBackoffMs),
		RejectImplausible: p.RejectImplausible,
	}
	if res.NewGuard != nil {
		opt.Guard = res.NewGuard()
	}
	if res.Log != nil {
		opt.Logger = res.Log.WithFields(logrus.Fields{"device": id, "pin": p.Pin})
	}
	dev := dht.New(line, clk, v, opt)

	info := types.DHTInfo{
		Sensor:        v.Name,
		Pin:           p.Pin,
		MinIntervalMs: uint32(opt.MinInterval.Milliseconds()),
		MaxAttempts:   opt.MaxAttempts,
	}
	if info.MinIntervalMs == 0 {
		info.MinIntervalMs = uint32(v.MinInterval.Milliseconds())
	}
	if info.MaxAttempts == 0 {
		info.MaxAttempts = v.MaxAttempts
	}
	return NewNode(id, p.Pin, res.Lines, dev, info), nil
}

// Configure parks the line high.
func (n *Node) Configure() error { return n.dev.Configure() }
