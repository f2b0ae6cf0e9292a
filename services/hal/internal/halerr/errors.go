// services/hal/internal/halerr/errors.go
package halerr

import "errors"

var (
	// Service/control plane
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrNoBuilder     = errors.New("no_builder")
	ErrDuplicateID   = errors.New("duplicate_device_id")

	// Build/config
	ErrMissingPin     = errors.New("missing_pin")
	ErrUnknownPin     = errors.New("unknown_pin")
	ErrPinInUse       = errors.New("pin_in_use")
	ErrUnknownVariant = errors.New("unknown_variant")
	ErrInvalidParams  = errors.New("invalid_params")

	// Generic / pass-through
	ErrUnsupported = errors.New("unsupported")
)
