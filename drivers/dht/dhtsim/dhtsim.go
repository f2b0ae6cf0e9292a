// Package dhtsim simulates a DHT-class sensor sitting on a single data line.
//
// A Sensor is both the line and the clock: time is virtual and only moves when
// the code under test sleeps (or the test calls Advance), so pulse widths are
// exact and runs are deterministic. The host side is modelled as an open-drain
// pin with a pull-up: in input mode the line follows the sensor's waveform and
// idles high.
//
// The package does not import the driver; Sensor satisfies dht.Pin and
// dht.Clock structurally.
package dhtsim

import (
	"errors"
	"sync"
	"time"
)

// Segment is one constant-level stretch of the waveform.
type Segment struct {
	High bool
	Dur  time.Duration
}

// Timing describes the sensor's response waveform.
type Timing struct {
	Delay   time.Duration // line stays high after the host releases it
	AckLow  time.Duration
	AckHigh time.Duration
	BitLow  time.Duration // low phase preceding every bit
	Zero    time.Duration // high phase of a 0 bit
	One     time.Duration // high phase of a 1 bit
}

// DefaultTiming is the nominal datasheet timing shared by DHT11 and DHT22.
var DefaultTiming = Timing{
	Delay:   20 * time.Microsecond,
	AckLow:  80 * time.Microsecond,
	AckHigh: 80 * time.Microsecond,
	BitLow:  50 * time.Microsecond,
	Zero:    26 * time.Microsecond,
	One:     70 * time.Microsecond,
}

// Fault selects a misbehaviour for one response.
type Fault uint8

const (
	FaultNone    Fault = iota
	FaultSilent        // ignores the start signal; the line stays high
	FaultHoldLow       // acknowledges by pulling low and never lets go
	FaultStall         // sends Response.Bits data bits, then the line stays high
)

// Response is what the sensor does for one start signal.
type Response struct {
	Frame [5]byte
	Fault Fault
	Bits  int
	// Wave, when set, is replayed verbatim from the host's rising edge and
	// Frame/Fault are ignored.
	Wave []Segment
}

// Frame builds a 5-byte frame with a correct checksum.
func Frame(hh, hl, th, tl byte) [5]byte {
	return [5]byte{hh, hl, th, tl, hh + hl + th + tl}
}

// Encode renders frame as a response waveform. bits limits the number of data
// bits sent (40 for a full frame); a full frame ends with the trailing low.
func Encode(frame [5]byte, t Timing, bits int) []Segment {
	if bits > 40 {
		bits = 40
	}
	w := make([]Segment, 0, 3+2*bits+1)
	w = append(w,
		Segment{High: true, Dur: t.Delay},
		Segment{High: false, Dur: t.AckLow},
		Segment{High: true, Dur: t.AckHigh},
	)
	for i := 0; i < bits; i++ {
		high := t.Zero
		if frame[i/8]&(1<<(7-i%8)) != 0 {
			high = t.One
		}
		w = append(w, Segment{High: false, Dur: t.BitLow}, Segment{High: true, Dur: high})
	}
	if bits == 40 {
		w = append(w, Segment{High: false, Dur: t.BitLow})
	}
	return w
}

// ErrInjected is returned by line operations after FailLine.
var ErrInjected = errors.New("dhtsim: injected line failure")

// Sensor is a simulated sensor plus its data line and a virtual clock.
type Sensor struct {
	mu sync.Mutex

	// WakeLow is the minimum host low pulse the sensor treats as a start
	// signal. Default 1 ms.
	WakeLow time.Duration
	Timing  Timing

	now      time.Duration
	output   bool
	level    bool // host-driven level (output mode)
	lowSince time.Duration

	wave   []Segment
	waveAt time.Duration

	def    Response
	script []Response

	failLine    bool
	transitions int
	starts      int
}

// New returns a sensor that answers every start signal with frame. The
// virtual clock starts at one hour so that zero timestamps are never current.
func New(frame [5]byte) *Sensor {
	return &Sensor{
		WakeLow: time.Millisecond,
		Timing:  DefaultTiming,
		now:     time.Hour,
		level:   true,
		def:     Response{Frame: frame},
	}
}

// SetDefault changes the response used when the script is empty.
func (s *Sensor) SetDefault(r Response) {
	s.mu.Lock()
	s.def = r
	s.mu.Unlock()
}

// Queue appends one-shot responses, consumed in order by start signals.
func (s *Sensor) Queue(rs ...Response) {
	s.mu.Lock()
	s.script = append(s.script, rs...)
	s.mu.Unlock()
}

// FailLine makes subsequent direction changes return ErrInjected.
func (s *Sensor) FailLine(fail bool) {
	s.mu.Lock()
	s.failLine = fail
	s.mu.Unlock()
}

// Transitions counts host operations on the line (direction changes and
// level writes).
func (s *Sensor) Transitions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitions
}

// Starts counts start signals the sensor recognised.
func (s *Sensor) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Idle reports whether the line is quiet: parked high by the host, or
// released with no response in flight.
func (s *Sensor) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output {
		return s.level
	}
	at := s.now - s.waveAt
	for _, seg := range s.wave {
		if at < seg.Dur {
			return false
		}
		at -= seg.Dur
	}
	return true
}

// ---- line ----

func (s *Sensor) ConfigureOutput(initial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLine {
		return ErrInjected
	}
	s.transitions++
	s.output = true
	s.drive(initial)
	return nil
}

func (s *Sensor) ConfigureInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLine {
		return ErrInjected
	}
	s.transitions++
	if s.output && !s.level {
		// Releasing a low line lets the pull-up raise it.
		s.rise()
	}
	s.output = false
	return nil
}

func (s *Sensor) Set(level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions++
	if s.output {
		s.drive(level)
	}
}

func (s *Sensor) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output {
		return s.level
	}
	return s.sensorLevel()
}

func (s *Sensor) drive(level bool) {
	switch {
	case s.level && !level:
		s.lowSince = s.now
		s.wave = nil
	case !s.level && level:
		s.rise()
	}
	s.level = level
}

// rise handles the end of a host low pulse.
func (s *Sensor) rise() {
	s.level = true
	if s.now-s.lowSince < s.WakeLow {
		return
	}
	s.starts++
	r := s.def
	if len(s.script) > 0 {
		r = s.script[0]
		s.script = s.script[1:]
	}
	s.wave = s.render(r)
	s.waveAt = s.now
}

func (s *Sensor) render(r Response) []Segment {
	if r.Wave != nil {
		return r.Wave
	}
	t := s.Timing
	switch r.Fault {
	case FaultSilent:
		return nil
	case FaultHoldLow:
		return []Segment{{High: true, Dur: t.Delay}, {High: false, Dur: 24 * time.Hour}}
	case FaultStall:
		return Encode(r.Frame, t, r.Bits)
	default:
		return Encode(r.Frame, t, 40)
	}
}

func (s *Sensor) sensorLevel() bool {
	at := s.now - s.waveAt
	for _, seg := range s.wave {
		if at < seg.Dur {
			return seg.High
		}
		at -= seg.Dur
	}
	return true
}

// ---- clock ----

func (s *Sensor) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Sensor) Sleep(d time.Duration) {
	s.Advance(d)
}

// Advance moves virtual time forward without any host activity.
func (s *Sensor) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.now += d
	s.mu.Unlock()
}
