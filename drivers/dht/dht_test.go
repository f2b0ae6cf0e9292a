package dht

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/drivers"

	"github.com/SiliconToBit/Embedded-Linux-Driver/drivers/dht/dhtsim"
)

var cmpReading = cmp.AllowUnexported(Reading{})

func TestRead_CachedWithinInterval(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT11, dhtsim.Frame(0x2D, 0x00, 0x17, 0x00))
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}

	first, err := d.Read()
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	ops := sim.Transitions()

	// A different frame would be visible if the line were touched.
	sim.SetDefault(dhtsim.Response{Frame: dhtsim.Frame(0x30, 0, 0x18, 0)})
	sim.Advance(DHT11.MinInterval / 2)

	second, err := d.Read()
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if diff := cmp.Diff(first, second, cmpReading); diff != "" {
		t.Fatalf("cached reading differs (-first +second):\n%s", diff)
	}
	if got := sim.Transitions(); got != ops {
		t.Fatalf("cached read issued %d line operations", got-ops)
	}
	if sim.Starts() != 1 {
		t.Fatalf("starts=%d", sim.Starts())
	}
	if st := d.Stats(); st.Reads != 2 || st.CacheHits != 1 || st.Refreshes != 1 {
		t.Fatalf("stats %+v", st)
	}
}

func TestRead_RefreshAtInterval(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT22, dhtsim.Frame(0x02, 0x8C, 0x01, 0x5F))

	t0 := sim.Now()
	if _, err := d.Read(); err != nil {
		t.Fatal(err)
	}
	next := dhtsim.Frame(0x02, 0x90, 0x01, 0x60)
	sim.SetDefault(dhtsim.Response{Frame: next})

	// Elapsed since the cached timestamp is exactly the interval.
	sim.Advance(t0 + DHT22.MinInterval - sim.Now())
	r, err := d.Read()
	if err != nil {
		t.Fatal(err)
	}
	if sim.Starts() != 2 {
		t.Fatalf("starts=%d, want exactly one fresh cycle", sim.Starts())
	}
	if r.DeciRH != 0x0290 || r.DeciC != 0x0160 {
		t.Fatalf("reading %+v not refreshed", r)
	}
}

func TestReadCached_CustomInterval(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT11, dhtsim.Frame(40, 0, 20, 0))
	if _, err := d.ReadCached(time.Second); err != nil {
		t.Fatal(err)
	}
	sim.Advance(time.Second)
	if _, err := d.ReadCached(time.Second); err != nil {
		t.Fatal(err)
	}
	if sim.Starts() != 2 {
		t.Fatalf("starts=%d", sim.Starts())
	}
	if _, err := d.ReadCached(time.Hour); err != nil {
		t.Fatal(err)
	}
	if sim.Starts() != 2 {
		t.Fatalf("starts=%d", sim.Starts())
	}
}

func TestRead_FailedRefreshSurfacesError(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT11, dhtsim.Frame(0x2D, 0x00, 0x17, 0x00))
	first, err := d.Read()
	if err != nil {
		t.Fatal(err)
	}

	sim.SetDefault(dhtsim.Response{Fault: dhtsim.FaultSilent})
	sim.Advance(DHT11.MinInterval)
	if _, err := d.Read(); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("err=%v, want ErrAcquisitionFailed despite cached value", err)
	}
	if got := sim.Starts(); got != 1+DHT11.MaxAttempts {
		t.Fatalf("starts=%d", got)
	}

	// The failed refresh left the entry untouched and stale, so the next
	// request tries the line again.
	sim.SetDefault(dhtsim.Response{Frame: dhtsim.Frame(0x2D, 0x00, 0x17, 0x00)})
	again, err := d.Read()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, again, cmpReading); diff != "" {
		t.Fatalf("(-first +again):\n%s", diff)
	}
	if d.Temperature() != 23000 {
		t.Fatalf("temperature %d", d.Temperature())
	}
}

func TestRead_FirstFailureHasNoFallback(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT22, [5]byte{})
	sim.SetDefault(dhtsim.Response{Fault: dhtsim.FaultHoldLow})
	if _, err := d.Read(); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("err=%v", err)
	}
	if st := d.Stats(); st.Attempts != uint32(DHT22.MaxAttempts) || st.Failures != 1 || st.CacheHits != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestRead_ConcurrentCallersShareOneCycle(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT22, dhtsim.Frame(0x01, 0xF4, 0x00, 0xFA))

	const n = 16
	var wg sync.WaitGroup
	got := make([]Reading, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = d.Read()
		}(i)
	}
	wg.Wait()

	for i := range got {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if diff := cmp.Diff(got[0], got[i], cmpReading); diff != "" {
			t.Fatalf("caller %d saw a different reading:\n%s", i, diff)
		}
	}
	if got[0].DeciRH != 500 || got[0].DeciC != 250 {
		t.Fatalf("reading %+v", got[0])
	}
	if sim.Starts() != 1 {
		t.Fatalf("starts=%d", sim.Starts())
	}
}

func TestReadContext_CancelledBeforeStart(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT11, dhtsim.Frame(1, 0, 1, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.ReadContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if sim.Transitions() != 0 {
		t.Fatal("cancelled read touched the line")
	}
}

func TestSensorInterface(t *testing.T) {
	d, sim, _ := newSimDevice(t, DHT11, dhtsim.Frame(0x2D, 0x00, 0x17, 0x00))
	var s drivers.Sensor = d

	if err := s.Update(drivers.Pressure); err != nil {
		t.Fatal(err)
	}
	if sim.Starts() != 0 {
		t.Fatal("unrelated measurement triggered an acquisition")
	}
	if err := s.Update(drivers.Temperature | drivers.Humidity); err != nil {
		t.Fatal(err)
	}
	if d.Temperature() != 23000 || d.Humidity() != 4500 {
		t.Fatalf("temperature=%d humidity=%d", d.Temperature(), d.Humidity())
	}

	sim.SetDefault(dhtsim.Response{Fault: dhtsim.FaultSilent})
	sim.Advance(DHT11.MinInterval)
	if err := s.Update(drivers.Humidity); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("err=%v", err)
	}
}
