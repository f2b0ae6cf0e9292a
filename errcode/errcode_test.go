package errcode

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("dht: acquisition failed")
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{InvalidRequestSize, InvalidRequestSize},
		{Wrap(IOError, "dht.read", cause), IOError},
		{fmt.Errorf("node porch: %w", Wrap(IOError, "dht.read", cause)), IOError},
		{fmt.Errorf("hal: %w", PinInUse), PinInUse},
		{cause, Error},
	}
	for _, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Errorf("Of(%v)=%q want %q", tc.err, got, tc.want)
		}
	}
}

func TestMapDriverErr(t *testing.T) {
	if got := MapDriverErr(fmt.Errorf("read: %w", context.DeadlineExceeded)); got != Timeout {
		t.Fatalf("deadline => %q", got)
	}
	if got := MapDriverErr(context.Canceled); got != Busy {
		t.Fatalf("canceled => %q", got)
	}
	if got := MapDriverErr(Wrap(IOError, "x", nil)); got != IOError {
		t.Fatalf("coded => %q", got)
	}
}

func TestEUnwrapAndMessage(t *testing.T) {
	cause := errors.New("boom")
	e := &E{C: IOError, Op: "dht.read", Msg: "porch", Err: cause}
	if !errors.Is(e, cause) {
		t.Fatal("cause not reachable")
	}
	if got := e.Error(); got != "dht.read: io_error: porch" {
		t.Fatalf("Error()=%q", got)
	}
	if got := (&E{C: Timeout}).Error(); got != "timeout" {
		t.Fatalf("Error()=%q", got)
	}
	// Without a message the cause is shown.
	if got := Wrap(IOError, "dht.read", cause).Error(); got != "dht.read: io_error: boom" {
		t.Fatalf("Error()=%q", got)
	}
}
