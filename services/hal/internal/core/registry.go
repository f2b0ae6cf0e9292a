package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

// RegisterBuilder binds a device type name to its builder. Registering a type
// twice panics.
func RegisterBuilder(typ string, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[typ]; exists {
		panic(fmt.Sprintf("duplicate device builder: %s", typ))
	}
	builders[typ] = b
}

func lookupBuilder(typ string) (Builder, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	b, ok := builders[typ]
	return b, ok
}

// BuilderTypes lists registered device types in sorted order.
func BuilderTypes() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs and initialises one configured device.
func Build(ctx context.Context, res Resources, dc HALDevice) (Device, error) {
	b, ok := lookupBuilder(dc.Type)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", dc.ID, halerr.ErrNoBuilder, dc.Type)
	}
	dev, err := b.Build(ctx, BuilderInput{ID: dc.ID, Type: dc.Type, Params: dc.Params, Res: res})
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", dc.ID, err)
	}
	if err := dev.Init(ctx); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("%s: init: %w", dc.ID, err)
	}
	return dev, nil
}

// Public HAL config types live in the types package.
type HALConfig = types.HALConfig
type HALDevice = types.HALDevice
