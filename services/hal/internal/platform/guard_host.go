//go:build !tinygo

package platform

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
)

// The collector is process-wide, so overlapping guarded windows share one
// disable/restore pair.
var gc struct {
	mu    sync.Mutex
	depth int
	saved int
}

func gcOff() {
	gc.mu.Lock()
	if gc.depth == 0 {
		gc.saved = debug.SetGCPercent(-1)
	}
	gc.depth++
	gc.mu.Unlock()
}

func gcOn() {
	gc.mu.Lock()
	gc.depth--
	if gc.depth == 0 {
		debug.SetGCPercent(gc.saved)
	}
	gc.mu.Unlock()
}

// HostGuard pins the goroutine to its OS thread, pauses the garbage collector
// and, where the OS allows, raises the thread to real-time priority. All of
// that happens in Prepare, before the start pulse: SetGCPercent waits for a
// running mark phase, which would overrun the sensor's acknowledgement. The
// window itself (Enter/Exit) needs nothing more on a host. A guard serves one
// device; its Prepare/Release pairs never overlap.
type HostGuard struct {
	prio  int
	boost threadBoost
}

// NewHostGuard returns a guard boosting to SCHED_FIFO priority prio (1..99).
// prio 0 skips the priority change.
func NewHostGuard(prio int) *HostGuard { return &HostGuard{prio: prio} }

// GuardFactory adapts NewHostGuard to core.Resources.NewGuard.
func GuardFactory(prio int) func() core.Guard {
	return func() core.Guard { return NewHostGuard(prio) }
}

func (g *HostGuard) Prepare() {
	runtime.LockOSThread()
	gcOff()
	if g.prio > 0 {
		g.boost.raise(g.prio)
	}
}

func (g *HostGuard) Release() {
	g.boost.restore()
	gcOn()
	runtime.UnlockOSThread()
}

func (g *HostGuard) Enter() {}
func (g *HostGuard) Exit()  {}
