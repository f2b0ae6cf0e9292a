package platform

import (
	"sync"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

// OpenFunc resolves a pin number to a line. It returns halerr.ErrUnknownPin
// (or a wrapped error) when the number does not exist on the platform.
type OpenFunc func(pin int) (core.Line, error)

// Registry is a core.LineRegistry that gives each pin to one device at a time.
// Lines are opened once and cached.
type Registry struct {
	mu    sync.Mutex
	open  OpenFunc
	used  map[int]string    // pin -> devID
	cache map[int]core.Line // pin -> handle
}

func NewRegistry(open OpenFunc) *Registry {
	return &Registry{
		open:  open,
		used:  make(map[int]string),
		cache: make(map[int]core.Line),
	}
}

func (r *Registry) ClaimLine(devID string, pin int) (core.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, inUse := r.used[pin]; inUse && owner != devID {
		return nil, halerr.ErrPinInUse
	}
	l, ok := r.cache[pin]
	if !ok {
		var err error
		if l, err = r.open(pin); err != nil {
			return nil, err
		}
		r.cache[pin] = l
	}
	r.used[pin] = devID
	return l, nil
}

func (r *Registry) ReleaseLine(devID string, pin int) {
	r.mu.Lock()
	if owner, ok := r.used[pin]; ok && owner == devID {
		delete(r.used, pin)
	}
	r.mu.Unlock()
}

// Owner reports which device holds pin.
func (r *Registry) Owner(pin int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.used[pin]
	return id, ok
}
