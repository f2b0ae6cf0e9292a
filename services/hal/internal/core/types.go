package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

// ---- Capability & device model ----

type CapabilitySpec struct {
	Domain string // "" => inferred from Kind
	Kind   types.Kind
	Name   string // "" => device ID
	Info   types.Info
}

type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	// Read performs one measurement and emits one payload per capability.
	Read(ctx context.Context, emit func(kind types.Kind, payload any)) error
	Control(kind types.Kind, verb string, payload any) (any, error)
	Close() error // releases claimed resources
}

// ---- Line resources ----

// Line is one bidirectional GPIO line with a pull-up in input mode.
type Line interface {
	ConfigureInput() error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
}

// Clock is a monotonic microsecond time base.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// Guard brackets a timing-critical window.
type Guard interface {
	Enter()
	Exit()
}

// LineRegistry hands out exclusive line ownership per device.
type LineRegistry interface {
	ClaimLine(devID string, pin int) (Line, error)
	ReleaseLine(devID string, pin int)
}

// ---- HAL-injected resources ----

type Resources struct {
	Lines LineRegistry
	Clock Clock
	// NewGuard returns a guard for one device; nil means unguarded.
	NewGuard func() Guard
	Log      logrus.FieldLogger
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, in BuilderInput) (Device, error)

func (f BuilderFunc) Build(ctx context.Context, in BuilderInput) (Device, error) { return f(ctx, in) }
