// Package dht provides a driver for DHT11/DHT22-class humidity and
// temperature sensors on a single bidirectional data line.
//
//	d := dht.New(pin, clock, dht.DHT22, dht.Options{})
//	d.Configure()            // park the line high
//	r, err := d.Read()       // cached for Options.MinInterval
//
// The decoder bit-bangs the protocol: it drives the start pulse, then
// rebuilds the 40-bit frame from pulse widths measured against the Clock.
// The window from the sensor's handshake to the last bit runs between
// Guard.Enter and Guard.Exit; platforms supply a guard that masks
// interrupts or otherwise prevents preemption. Guards that also implement
// Preparer do their slow setup before the start pulse.
//
// A Device serialises everything behind one mutex: line ownership during an
// acquisition and the cache check-refresh sequence. Failed refreshes are
// returned as ErrAcquisitionFailed even when an older reading is cached.
package dht

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Pin is the single data line. Levels are true for high.
// Set is only meaningful in output mode and Get in input mode. ConfigureInput
// must leave the line pulled up.
type Pin interface {
	ConfigureInput() error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
}

// Clock supplies monotonic time with microsecond resolution. Sleep must be
// accurate for microsecond delays (busy-wait) and may yield for long ones.
type Clock interface {
	Now() time.Duration
	Sleep(d time.Duration)
}

// Guard brackets the timing-critical window. Enter and Exit are always
// paired and must not allocate.
type Guard interface {
	Enter()
	Exit()
}

// Preparer is an optional Guard extension for setup that is too slow for the
// guarded window. Prepare runs before the start pulse; Release runs after
// Exit, or after a failed start sequence.
type Preparer interface {
	Prepare()
	Release()
}

type noGuard struct{}

func (noGuard) Enter() {}
func (noGuard) Exit()  {}

// Options controls non-hardware behaviour. All fields are optional; zero
// values take the Variant defaults.
type Options struct {
	MinInterval  time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration

	Guard  Guard
	Logger logrus.FieldLogger

	// RejectImplausible retries frames that pass the checksum but fall
	// outside Variant.Plausible.
	RejectImplausible bool
}

// Device is one sensor on one line.
type Device struct {
	pin   Pin
	clk   Clock
	guard Guard
	prep  Preparer // nil unless guard implements it
	v     Variant
	opt   Options
	log   logrus.FieldLogger
	timer pulseTimer

	mu    sync.Mutex
	last  Reading
	at    time.Duration
	valid bool

	stats struct {
		reads          atomic.Uint32
		cacheHits      atomic.Uint32
		refreshes      atomic.Uint32
		attempts       atomic.Uint32
		timeouts       atomic.Uint32
		checksumErrors atomic.Uint32
		failures       atomic.Uint32
	}
}

// New creates a Device. It does not touch the line.
func New(pin Pin, clk Clock, v Variant, opt Options) *Device {
	if opt.MinInterval <= 0 {
		opt.MinInterval = v.MinInterval
	}
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = v.MaxAttempts
	}
	if opt.RetryBackoff <= 0 {
		opt.RetryBackoff = v.RetryBackoff
	}
	if opt.Guard == nil {
		opt.Guard = noGuard{}
	}
	log := opt.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	prep, _ := opt.Guard.(Preparer)
	return &Device{
		pin:   pin,
		clk:   clk,
		guard: opt.Guard,
		prep:  prep,
		v:     v,
		opt:   opt,
		log:   log.WithField("sensor", v.Name),
		timer: pulseTimer{pin: pin, clk: clk, timeout: v.PhaseTimeout},
	}
}

// Configure parks the line as an output driven high, the idle state the
// sensor expects between transmissions.
func (d *Device) Configure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pin.ConfigureOutput(true)
}

// Variant returns the sensor family the device decodes.
func (d *Device) Variant() Variant { return d.v }

// Read returns a reading no older than Options.MinInterval.
func (d *Device) Read() (Reading, error) {
	return d.readCached(context.Background(), d.opt.MinInterval)
}

// ReadCached returns the cached reading if it is younger than minInterval;
// otherwise it runs a full acquisition with retries.
func (d *Device) ReadCached(minInterval time.Duration) (Reading, error) {
	return d.readCached(context.Background(), minInterval)
}

// ReadContext is Read with cancellation checked before the lock is taken and
// between attempts. It returns ctx.Err() when cancelled.
func (d *Device) ReadContext(ctx context.Context) (Reading, error) {
	return d.readCached(ctx, d.opt.MinInterval)
}

func (d *Device) readCached(ctx context.Context, minInterval time.Duration) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.reads.Add(1)
	now := d.clk.Now()
	if d.valid && now-d.at < minInterval {
		d.stats.cacheHits.Add(1)
		return d.last, nil
	}

	r, err := d.readWithRetry(ctx)
	if err != nil {
		return Reading{}, err
	}
	d.last, d.at, d.valid = r, now, true
	d.stats.refreshes.Add(1)
	d.log.WithFields(logrus.Fields{"deci_rh": r.DeciRH, "deci_c": r.DeciC}).Trace("dht: refreshed")
	return r, nil
}

// Stats is a snapshot of the device counters.
type Stats struct {
	Reads          uint32 // read requests
	CacheHits      uint32 // requests served from the cache
	Refreshes      uint32 // successful acquisitions
	Attempts       uint32 // physical acquisition attempts
	Timeouts       uint32 // attempts lost to a timing failure
	ChecksumErrors uint32
	Failures       uint32 // requests that returned ErrAcquisitionFailed
}

// Stats returns the counters without waiting for an acquisition in progress.
func (d *Device) Stats() Stats {
	return Stats{
		Reads:          d.stats.reads.Load(),
		CacheHits:      d.stats.cacheHits.Load(),
		Refreshes:      d.stats.refreshes.Load(),
		Attempts:       d.stats.attempts.Load(),
		Timeouts:       d.stats.timeouts.Load(),
		ChecksumErrors: d.stats.checksumErrors.Load(),
		Failures:       d.stats.failures.Load(),
	}
}
