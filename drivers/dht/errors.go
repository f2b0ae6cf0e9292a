package dht

import "errors"

// Attempt-level errors. They are consumed by the retry loop and never reach
// callers of Read; they are exported so that diagnostics and tests can
// classify a single acquisition.
var (
	ErrNoResponse      = errors.New("dht: no response")
	ErrResponseTimeout = errors.New("dht: response timeout")
	ErrBitTimeout      = errors.New("dht: bit timeout")
	ErrChecksum        = errors.New("dht: checksum mismatch")
	ErrImplausible     = errors.New("dht: implausible reading")
)

// ErrAcquisitionFailed is the only acquisition error returned to callers; the
// failing phase is logged, not returned.
var ErrAcquisitionFailed = errors.New("dht: acquisition failed")

// ErrInvalidRequestSize reports a byte read whose length is not the family's
// ReadingSize.
var ErrInvalidRequestSize = errors.New("dht: invalid request size")

func isTiming(err error) bool {
	return err == ErrNoResponse || err == ErrResponseTimeout || err == ErrBitTimeout
}
