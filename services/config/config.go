package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/andreyvit/tinyjson"
	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/bus"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey carries the board name in the context given to Start.
const CtxDeviceKey ctxKey = "device"

var (
	ErrNoDevice  = errors.New("missing device ID in context")
	ErrNoConfig  = errors.New("no embedded config for device")
	ErrNotObject = errors.New("embedded config is not a JSON object")
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Boards lists the embedded board names.
func Boards() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load resolves device and splits its config into top-level sections. Section
// values stay generic; consumers decode the parts they own.
func Load(device string) (map[string]any, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoConfig, device)
	}
	val, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", device, err)
	}
	m, ok := val.(map[string]any)
	if !ok || m == nil {
		return nil, fmt.Errorf("%s: %w", device, ErrNotObject)
	}
	return m, nil
}

// parse decodes one JSON value. tinyjson reports syntax errors by panicking.
func parse(raw []byte) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid JSON: %v", r)
		}
	}()
	r := tinyjson.Raw(raw)
	val = r.Value()
	r.EnsureEOF()
	return val, nil
}

// Section returns one top-level section of device's config, e.g. "hal".
func Section(device, key string) (any, error) {
	m, err := Load(device)
	if err != nil {
		return nil, err
	}
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%s: no %q section", device, key)
	}
	return v, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	log  logrus.FieldLogger
}

// NewConfigService returns a service logging to log; nil discards.
func NewConfigService(log logrus.FieldLogger) *ConfigService {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &ConfigService{Name: serviceName, log: log.WithField("svc", serviceName)}
}

// publishConfig reads the device config from embedded data and publishes it
// as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return ErrNoDevice
	}
	m, err := Load(device)
	if err != nil {
		return err
	}
	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	s.log.WithFields(logrus.Fields{"device": device, "sections": len(m)}).Info("config published")
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			s.log.WithError(err).Error("config not published")
		}
	}()
}
