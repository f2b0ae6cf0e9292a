//go:build unix

package errcode

import "golang.org/x/sys/unix"

// Errno returns the errno a character-device read would fail with.
func (c Code) Errno() unix.Errno {
	switch c {
	case OK:
		return 0
	case InvalidRequestSize, InvalidParams, InvalidPayload, InvalidTopic:
		return unix.EINVAL
	case Busy, PinInUse:
		return unix.EBUSY
	case HALNotReady:
		return unix.EAGAIN
	case Timeout:
		return unix.ETIMEDOUT
	case UnknownPin, UnknownCapability:
		return unix.ENODEV
	case Unsupported:
		return unix.EOPNOTSUPP
	default:
		return unix.EIO
	}
}

// Errno maps an error chain to an errno via its Code.
func Errno(err error) unix.Errno { return Of(err).Errno() }
