//go:build !linux && !tinygo

package platform

import (
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/core"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

// Only simulated lines are available on this OS.
func openHardware(Options) (*Registry, error) { return nil, halerr.ErrUnsupported }

func hardwareGuard(o Options) func() core.Guard { return GuardFactory(o.RTPriority) }
