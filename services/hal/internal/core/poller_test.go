package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
	"github.com/SiliconToBit/Embedded-Linux-Driver/types"
)

var porch = types.CapabilityAddress{Domain: "env", Kind: types.KindTemperature, Name: "porch"}

func TestPoller_RejectsBadSchedules(t *testing.T) {
	p := NewPoller(make(chan PollReq, 1))
	for _, tc := range []struct {
		interval time.Duration
		verb     string
	}{
		{0, VerbRead},
		{-time.Second, VerbRead},
		{time.Second, ""},
	} {
		if err := p.Upsert(porch, tc.verb, tc.interval, 0); !errors.Is(err, halerr.ErrInvalidPeriod) {
			t.Fatalf("Upsert(%v, %q): err=%v", tc.interval, tc.verb, err)
		}
	}
	if p.Len() != 0 {
		t.Fatalf("len=%d", p.Len())
	}
}

func TestPoller_FiresAndStops(t *testing.T) {
	out := make(chan PollReq, 4)
	p := NewPoller(out)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	if err := p.Upsert(porch, VerbRead, 10*time.Millisecond, 2*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	// Upserting the same key replaces the schedule.
	if err := p.Upsert(porch, VerbRead, 5*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 1 {
		t.Fatalf("len=%d", p.Len())
	}

	select {
	case req := <-out:
		if req.Addr != porch || req.Verb != VerbRead || req.Every != 5*time.Millisecond {
			t.Fatalf("req %+v", req)
		}
	case <-time.After(time.Second):
		t.Fatal("no poll fired")
	}

	p.Stop(porch, VerbRead)
	if p.Len() != 0 {
		t.Fatalf("len=%d after Stop", p.Len())
	}
	// Drain anything fired before Stop took effect.
	time.Sleep(20 * time.Millisecond)
	for len(out) > 0 {
		<-out
	}
	select {
	case req := <-out:
		t.Fatalf("fired after Stop: %+v", req)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestPoller_BumpAfterDefersNextFire(t *testing.T) {
	out := make(chan PollReq, 1)
	p := NewPoller(out)
	if err := p.Upsert(porch, VerbRead, time.Hour, 0); err != nil {
		t.Fatal(err)
	}
	p.BumpAfter(porch, VerbRead, time.Now().Add(-2*time.Hour))
	if wait, ok := p.nextWait(); !ok || wait > 0 {
		t.Fatalf("overdue bump should be due now, wait=%v", wait)
	}
	p.BumpAfter(porch, VerbRead, time.Now())
	if wait, _ := p.nextWait(); wait < 59*time.Minute {
		t.Fatalf("wait=%v", wait)
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := Build(context.Background(), Resources{}, types.HALDevice{ID: "x", Type: "nope"})
	if !errors.Is(err, halerr.ErrNoBuilder) {
		t.Fatalf("err=%v", err)
	}
}
