package dht

import "periph.io/x/conn/v3/physic"

// RawFrame is one transmission: humidity high/low, temperature high/low and
// the checksum, in wire order.
type RawFrame [5]byte

// Sum is the 8-bit truncated sum of the four data bytes.
func (f RawFrame) Sum() byte { return f[0] + f[1] + f[2] + f[3] }

// ChecksumOK reports whether the checksum byte matches Sum.
func (f RawFrame) ChecksumOK() bool { return f[4] == f.Sum() }

// Reading is a validated measurement in fixed-point units.
type Reading struct {
	DeciRH int32 // tenths of %RH
	DeciC  int32 // tenths of °C

	data [4]byte
}

// RelHumidity returns whole percent relative humidity.
func (r Reading) RelHumidity() int32 { return r.DeciRH / 10 }

// Celsius returns whole degrees Celsius, truncated toward zero.
func (r Reading) Celsius() int32 { return r.DeciC / 10 }

// Data returns the four data bytes the reading was decoded from.
func (r Reading) Data() [4]byte { return r.data }

// Env converts the reading to periph units.
func (r Reading) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(r.DeciC)*100*physic.MilliCelsius,
		Humidity:    physic.RelativeHumidity(r.DeciRH) * (physic.PercentRH / 10),
	}
}

// Validate checks the frame checksum and maps the data bytes per the family
// encoding. Out-of-range values are not rejected here; see Plausible.
func (v Variant) Validate(f RawFrame) (Reading, error) {
	if !f.ChecksumOK() {
		return Reading{}, ErrChecksum
	}
	r := Reading{data: [4]byte{f[0], f[1], f[2], f[3]}}
	switch v.Encoding {
	case EncodingTenths:
		r.DeciRH = int32(f[0])<<8 | int32(f[1])
		r.DeciC = int32(f[2]&0x7F)<<8 | int32(f[3])
		if f[2]&0x80 != 0 {
			r.DeciC = -r.DeciC
		}
	default:
		r.DeciRH = int32(f[0]) * 10
		r.DeciC = int32(f[2]) * 10
	}
	return r, nil
}

// Plausible reports whether r lies within 0–100 %RH and the family's rated
// temperature range.
func (v Variant) Plausible(r Reading) bool {
	if r.DeciRH < 0 || r.DeciRH > 1000 {
		return false
	}
	return r.DeciC >= v.MinDeciC && r.DeciC <= v.MaxDeciC
}

// PutReading writes the family's wire encoding of r into p and returns the
// number of bytes written: humidity and temperature integer bytes for
// EncodingWhole, all four data bytes for EncodingTenths. It writes nothing and
// returns 0 if p is too short.
func (v Variant) PutReading(p []byte, r Reading) int {
	n := v.ReadingSize()
	if len(p) < n {
		return 0
	}
	if v.Encoding == EncodingTenths {
		copy(p, r.data[:])
		return n
	}
	p[0] = r.data[0]
	p[1] = r.data[2]
	return n
}

// Frame encodes a measurement the way a sensor of this family would send it,
// checksum included. EncodingWhole keeps whole units and zero fraction bytes.
func (v Variant) Frame(deciRH, deciC int32) RawFrame {
	var f RawFrame
	switch v.Encoding {
	case EncodingTenths:
		f[0], f[1] = byte(deciRH>>8), byte(deciRH)
		c := deciC
		if c < 0 {
			c = -c
		}
		f[2], f[3] = byte(c>>8)&0x7F, byte(c)
		if deciC < 0 {
			f[2] |= 0x80
		}
	default:
		f[0] = byte(deciRH / 10)
		f[2] = byte(deciC / 10)
	}
	f[4] = f.Sum()
	return f
}

// ParseReading decodes bytes written by PutReading. It returns false if p is
// not exactly ReadingSize bytes long.
func (v Variant) ParseReading(p []byte) (Reading, bool) {
	if len(p) != v.ReadingSize() {
		return Reading{}, false
	}
	var f RawFrame
	if v.Encoding == EncodingTenths {
		copy(f[:4], p)
	} else {
		f[0], f[2] = p[0], p[1]
	}
	f[4] = f.Sum()
	r, err := v.Validate(f)
	return r, err == nil
}
