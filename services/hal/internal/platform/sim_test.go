package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht"
	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht/dhtsim"
	"github.com/SiliconToBit/Embedded-Linux-Driver/services/hal/internal/halerr"
)

func TestSimLine_TracksWallTimeWhenIdle(t *testing.T) {
	l := NewSimLine(dhtsim.Frame(1, 2, 3, 4))
	t0 := l.Now()
	time.Sleep(5 * time.Millisecond)
	if got := l.Now() - t0; got < 5*time.Millisecond {
		t.Fatalf("idle clock advanced %v", got)
	}
}

func TestSimLine_VirtualWhileBusy(t *testing.T) {
	l := NewSimLine(dhtsim.Frame(1, 2, 3, 4))
	if err := l.ConfigureOutput(false); err != nil {
		t.Fatal(err)
	}
	t0 := l.Now()
	time.Sleep(2 * time.Millisecond)
	// Host is holding the line low; only explicit sleeps move time.
	if got := l.Now(); got != t0 {
		t.Fatalf("clock moved %v while line held low", got-t0)
	}
	l.Sleep(20 * time.Millisecond)
	if got := l.Now() - t0; got != 20*time.Millisecond {
		t.Fatalf("clock moved %v, want 20ms", got)
	}
}

func TestSimRegistry(t *testing.T) {
	r := SimRegistry(func(pin int) [5]byte { return dhtsim.Frame(byte(pin), 0, 0, 0) })
	if _, err := r.ClaimLine("x", -1); !errors.Is(err, halerr.ErrUnknownPin) {
		t.Fatalf("err=%v", err)
	}
	l, err := r.ClaimLine("x", 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.(*SimLine); !ok {
		t.Fatalf("line %T", l)
	}
}

func TestOpen_Sim(t *testing.T) {
	res, err := Open(Options{Sim: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Lines == nil || res.Clock == nil {
		t.Fatalf("resources %+v", res)
	}
	if res.NewGuard != nil {
		t.Fatal("sim resources carry a guard")
	}
}

func TestHostClock_Sleep(t *testing.T) {
	c := NewHostClock()
	for _, d := range []time.Duration{50 * time.Microsecond, 2 * time.Millisecond} {
		t0 := c.Now()
		c.Sleep(d)
		if got := c.Now() - t0; got < d {
			t.Fatalf("Sleep(%v) returned after %v", d, got)
		}
	}
}

func TestHostGuard_RestoresGC(t *testing.T) {
	var _ dht.Preparer = NewHostGuard(0)

	g := NewHostGuard(0)
	h := NewHostGuard(0)
	g.Prepare()
	h.Prepare()
	h.Release()
	if gc.depth != 1 {
		t.Fatalf("depth=%d", gc.depth)
	}
	// The window itself leaves the collector alone.
	g.Enter()
	g.Exit()
	if gc.depth != 1 {
		t.Fatalf("depth=%d after window", gc.depth)
	}
	g.Release()
	if gc.depth != 0 {
		t.Fatalf("depth=%d", gc.depth)
	}
}
