package dht

import (
	"strings"
	"time"
)

// Encoding selects how the four data bytes map to a Reading.
type Encoding uint8

const (
	// EncodingWhole uses the integer bytes only (humidity byte 0, temperature
	// byte 2); the fraction bytes are ignored.
	EncodingWhole Encoding = iota
	// EncodingTenths reads 16-bit big-endian tenths for both fields, with the
	// sign of the temperature in the MSB of byte 2.
	EncodingTenths
)

// Variant parameterises the decoder for one sensor family. Timings come from
// the family datasheets with the margins used by the reference drivers.
type Variant struct {
	Name string

	StartLow     time.Duration // host start pulse
	StartRelease time.Duration // host high pulse before switching to input
	PhaseTimeout time.Duration // bound on every wait-for-transition
	SampleDelay  time.Duration // from the rising edge of a bit to the sample

	MaxAttempts  int
	RetryBackoff time.Duration
	MinInterval  time.Duration

	Encoding Encoding

	// Rated range, used only by Plausible.
	MinDeciC, MaxDeciC int32
}

// DHT11 is the coarse-resolution family.
var DHT11 = Variant{
	Name:         "dht11",
	StartLow:     20 * time.Millisecond,
	StartRelease: 30 * time.Microsecond,
	PhaseTimeout: 150 * time.Microsecond,
	SampleDelay:  40 * time.Microsecond,
	MaxAttempts:  3,
	RetryBackoff: 50 * time.Millisecond,
	MinInterval:  2 * time.Second,
	Encoding:     EncodingWhole,
	MinDeciC:     0,
	MaxDeciC:     500,
}

// DHT22 is the fine-resolution family (DHT22/AM2302).
var DHT22 = Variant{
	Name:         "dht22",
	StartLow:     2 * time.Millisecond,
	StartRelease: 40 * time.Microsecond,
	PhaseTimeout: 200 * time.Microsecond,
	SampleDelay:  35 * time.Microsecond,
	MaxAttempts:  5,
	RetryBackoff: 100 * time.Millisecond,
	MinInterval:  2 * time.Second,
	Encoding:     EncodingTenths,
	MinDeciC:     -400,
	MaxDeciC:     800,
}

// VariantByName resolves a configuration name ("dht11", "dht22", "am2302").
func VariantByName(name string) (Variant, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dht11":
		return DHT11, true
	case "dht22", "am2302":
		return DHT22, true
	}
	return Variant{}, false
}

// ReadingSize is the number of bytes a Reading encodes to for this family.
func (v Variant) ReadingSize() int {
	if v.Encoding == EncodingTenths {
		return 4
	}
	return 2
}
