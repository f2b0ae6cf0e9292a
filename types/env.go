package types

// ------------------------
// Temperature & humidity
// ------------------------

// DHTInfo is published as Info.Detail for both capabilities of a DHT sensor.
type DHTInfo struct {
	Sensor        string `json:"sensor"` // "dht11", "dht22"
	Pin           int    `json:"pin"`
	MinIntervalMs uint32 `json:"min_interval_ms"`
	MaxAttempts   int    `json:"max_attempts"`
}

type TemperatureValue struct {
	// Tenths of °C (e.g. 231 => 23.1°C).
	DeciC int16 `json:"deci_c"`
}

type HumidityValue struct {
	// Hundredths of %RH. DHT11 frames are not clamped, so values above
	// 10000 are possible.
	RHx100 uint16 `json:"rh_x100"`
}

// DHTParams are the HAL device params for types "dht11" and "dht22".
type DHTParams struct {
	Pin               int    `json:"pin"`
	MinIntervalMs     uint32 `json:"min_interval_ms,omitempty"`
	MaxAttempts       int    `json:"max_attempts,omitempty"`
	RetryBackoffMs    uint32 `json:"retry_backoff_ms,omitempty"`
	RejectImplausible bool   `json:"reject_implausible,omitempty"`
}
