package dht

import "tinygo.org/x/drivers"

var _ drivers.Sensor = (*Device)(nil)

// Update implements drivers.Sensor. Temperature and humidity are always
// measured together; other measurements are ignored.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	_, err := d.Read()
	return err
}

// Temperature returns the last reading in milli-°C.
func (d *Device) Temperature() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last.DeciC * 100
}

// Humidity returns the last reading in hundredths of %RH.
func (d *Device) Humidity() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last.DeciRH * 10
}
