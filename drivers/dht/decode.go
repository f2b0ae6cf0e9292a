package dht

import "fmt"

// frameBits is the number of data bits in one transmission.
const frameBits = 40

// acquireFrame runs one physical acquisition: start signal, handshake and 40
// data bits. The checksum is not checked here.
func (d *Device) acquireFrame() (RawFrame, error) {
	var f RawFrame

	if d.prep != nil {
		d.prep.Prepare()
		defer d.prep.Release()
	}
	if err := d.pin.ConfigureOutput(false); err != nil {
		return f, fmt.Errorf("dht: line output: %w", err)
	}
	d.clk.Sleep(d.v.StartLow)
	d.pin.Set(true)
	d.clk.Sleep(d.v.StartRelease)
	if err := d.pin.ConfigureInput(); err != nil {
		return f, fmt.Errorf("dht: line input: %w", err)
	}

	d.guard.Enter()
	err := d.receive(&f)
	d.guard.Exit()
	return f, err
}

// receive decodes the handshake and data bits. It runs with preemption
// suppressed: no allocation, no logging, no blocking calls.
func (d *Device) receive(f *RawFrame) error {
	t := &d.timer

	// Sensor pulls the line low, then high, ~80 µs each.
	if _, ok := t.waitWhile(true); !ok {
		return ErrNoResponse
	}
	if _, ok := t.waitWhile(false); !ok {
		return ErrResponseTimeout
	}
	if _, ok := t.waitWhile(true); !ok {
		return ErrResponseTimeout
	}

	// Each bit: ~50 µs low, then high for ~26 µs (0) or ~70 µs (1).
	for i := 0; i < frameBits; i++ {
		if _, ok := t.waitWhile(false); !ok {
			return ErrBitTimeout
		}
		d.clk.Sleep(d.v.SampleDelay)
		if !d.pin.Get() {
			continue
		}
		f[i/8] |= 1 << (7 - uint(i%8))
		if _, ok := t.waitWhile(true); !ok {
			return ErrBitTimeout
		}
	}
	return nil
}
