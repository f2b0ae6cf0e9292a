package core

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
	"github.com/SiliconToBit/Embedded-Linux-Driver/errcode"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/util"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
	"github.com/SiliconToBit/Embedded-Linux-Driver/x/timex"
)

const (
	pollQueueLen = 8
	VerbRead     = "read"
)

// HAL owns the configured devices. All device access happens on the Run
// goroutine, so reads on different devices never overlap.
type HAL struct {
	conn *bus.Connection
	res  Resources
	log  logrus.FieldLogger

	dev      map[string]Device
	caps     map[string][]types.CapabilityAddress // devID -> capabilities
	capIndex map[types.CapabilityAddress]string   // capability -> devID

	pollCh chan PollReq
	poller *Poller
	ready  bool
}

func NewHAL(conn *bus.Connection, res Resources) *HAL {
	if res.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		res.Log = l
	}
	pollCh := make(chan PollReq, pollQueueLen)
	return &HAL{
		conn:     conn,
		res:      res,
		log:      res.Log.WithField("svc", "hal"),
		dev:      map[string]Device{},
		caps:     map[string][]types.CapabilityAddress{},
		capIndex: map[types.CapabilityAddress]string{},
		pollCh:   pollCh,
		poller:   NewPoller(pollCh),
	}
}

func (h *HAL) Run(ctx context.Context) {
	cfgSub := h.conn.Subscribe(TopicConfigHAL())
	ctrlSub := h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(cfgSub)
	defer h.conn.Unsubscribe(ctrlSub)
	defer h.closeAll()

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.poller.Run(pctx)

	h.pubHALState("idle", "")
	for {
		select {
		case <-ctx.Done():
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			var cfg types.HALConfig
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
				h.log.WithError(err).Warn("hal: bad config payload")
				continue
			}
			h.applyConfig(ctx, cfg)
			if !h.ready {
				h.ready = true
				h.pubHALState("ready", "")
			}
		case m := <-ctrlSub.Channel():
			if !h.ready {
				// Reject controls until HAL has a configuration.
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(ctx, m)
		case req := <-h.pollCh:
			if _, err := h.invoke(ctx, req.Addr, req.Verb, nil); err != nil {
				h.log.WithFields(logrus.Fields{
					"cap":   req.Addr.Name,
					"kind":  req.Addr.Kind,
					"error": err,
				}).Debug("hal: poll failed")
			}
		}
	}
}

// applyConfig is additive: devices already running are left alone.
func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for _, dc := range cfg.Devices {
		log := h.log.WithFields(logrus.Fields{"device": dc.ID, "type": dc.Type})
		if _, exists := h.dev[dc.ID]; exists {
			log.WithError(halerr.ErrDuplicateID).Debug("hal: device already running")
			continue
		}
		dev, err := Build(ctx, h.res, dc)
		if err != nil {
			log.WithError(err).Warn("hal: device not started")
			continue
		}
		h.dev[dev.ID()] = dev

		// Register capabilities, publish retained info + initial status:down
		for _, cs := range dev.Capabilities() {
			addr := types.CapabilityAddress{Domain: cs.Domain, Kind: cs.Kind, Name: cs.Name}
			if addr.Domain == "" {
				addr.Domain = defaultDomainFor(cs.Kind)
			}
			if addr.Name == "" {
				addr.Name = dev.ID()
			}
			h.capIndex[addr] = dev.ID()
			h.caps[dev.ID()] = append(h.caps[dev.ID()], addr)

			d, k, n := addr.Domain, string(addr.Kind), addr.Name
			h.conn.Publish(h.conn.NewMessage(CapInfo(d, k, n), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				CapStatus(d, k, n),
				types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs()},
				true,
			))
		}
		log.Info("hal: device started")
	}

	for _, ps := range cfg.Pollers {
		addr := types.CapabilityAddress{Domain: ps.Domain, Kind: ps.Kind, Name: ps.Name}
		if addr.Domain == "" {
			addr.Domain = defaultDomainFor(ps.Kind)
		}
		verb := ps.Verb
		if verb == "" {
			verb = VerbRead
		}
		log := h.log.WithFields(logrus.Fields{"cap": addr.Name, "kind": addr.Kind})
		if _, ok := h.capIndex[addr]; !ok {
			log.Warn("hal: poller for unknown capability")
			continue
		}
		if err := h.poller.Upsert(addr, verb, util.Millis(ps.IntervalMs), util.Millis(ps.JitterMs)); err != nil {
			log.WithError(err).Warn("hal: poller rejected")
		}
	}
}

func (h *HAL) handleControl(ctx context.Context, msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)
	addr := types.CapabilityAddress{Domain: domain, Kind: types.Kind(kind), Name: name}

	res, err := h.invoke(ctx, addr, verb, msg.Payload)
	if err != nil {
		h.replyErr(msg, errcode.MapDriverErr(err))
		return
	}
	if verb == VerbRead {
		h.poller.BumpAfter(addr, verb, time.Now())
	}
	if !msg.CanReply() {
		return
	}
	if res == nil {
		h.replyOK(msg)
		return
	}
	h.conn.Reply(msg, res, false)
}

// invoke runs verb against the device owning addr. "read" is handled here so
// that every capability of the device is published from one measurement.
func (h *HAL) invoke(ctx context.Context, addr types.CapabilityAddress, verb string, payload any) (any, error) {
	devID, ok := h.capIndex[addr]
	if !ok {
		return nil, errcode.UnknownCapability
	}
	dev := h.dev[devID]
	if verb != VerbRead {
		return dev.Control(addr.Kind, verb, payload)
	}
	return nil, h.read(ctx, dev)
}

func (h *HAL) read(ctx context.Context, dev Device) error {
	caps := h.caps[dev.ID()]
	err := dev.Read(ctx, func(kind types.Kind, payload any) {
		ts := timex.NowMs()
		for _, a := range caps {
			if a.Kind != kind {
				continue
			}
			d, k, n := a.Domain, string(a.Kind), a.Name
			h.conn.Publish(h.conn.NewMessage(CapValue(d, k, n), payload, true))
			h.conn.Publish(h.conn.NewMessage(
				CapStatus(d, k, n),
				types.CapabilityStatus{Link: types.LinkUp, TSms: ts},
				true,
			))
		}
	})
	if err == nil {
		return nil
	}
	// Error → retained status:degraded; the last value stays retained.
	code := string(errcode.MapDriverErr(err))
	ts := timex.NowMs()
	for _, a := range caps {
		h.conn.Publish(h.conn.NewMessage(
			CapStatus(a.Domain, string(a.Kind), a.Name),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ts, Error: code},
			true,
		))
	}
	h.log.WithFields(logrus.Fields{"device": dev.ID(), "error": err}).Warn("hal: read failed")
	return err
}

func (h *HAL) closeAll() {
	for id, dev := range h.dev {
		if err := dev.Close(); err != nil {
			h.log.WithFields(logrus.Fields{"device": id, "error": err}).Warn("hal: close failed")
		}
		delete(h.dev, id)
	}
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		TopicHALState(),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func defaultDomainFor(kind types.Kind) string {
	switch kind {
	case types.KindTemperature, types.KindHumidity:
		return "env"
	default:
		return "io"
	}
}
