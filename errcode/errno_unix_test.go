//go:build unix

package errcode

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

func TestErrno(t *testing.T) {
	cases := map[Code]unix.Errno{
		OK:                 0,
		InvalidRequestSize: unix.EINVAL,
		IOError:            unix.EIO,
		Error:              unix.EIO,
		Timeout:            unix.ETIMEDOUT,
		PinInUse:           unix.EBUSY,
		UnknownPin:         unix.ENODEV,
	}
	for c, want := range cases {
		if got := c.Errno(); got != want {
			t.Errorf("%q.Errno()=%v want %v", c, got, want)
		}
	}
	if got := Errno(Wrap(IOError, "dht.read", errors.New("x"))); got != unix.EIO {
		t.Fatalf("Errno(wrapped)=%v", got)
	}
}
