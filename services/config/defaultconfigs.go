package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board name (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON; each top-level key is published retained on config/<key>
// -----------------------------------------------------------------------------

// Raspberry Pi with a DHT22 on the porch (GPIO4) and a DHT11 in the shed
// (GPIO17).
const cfgRPiPorch = `{
  "hal": {
    "devices": [
      {"id": "porch", "type": "dht22", "params": {"pin": 4, "min_interval_ms": 2000, "max_attempts": 5}},
      {"id": "shed",  "type": "dht11", "params": {"pin": 17, "reject_implausible": true}}
    ],
    "pollers": [
      {"domain": "env", "kind": "temperature", "name": "porch", "verb": "read", "interval_ms": 5000, "jitter_ms": 250},
      {"domain": "env", "kind": "temperature", "name": "shed",  "verb": "read", "interval_ms": 10000, "jitter_ms": 500}
    ]
  },
  "app": {"report_every_ms": 5000}
}`

// Pico with an AM2302 on GP15.
const cfgPico = `{
  "hal": {
    "devices": [
      {"id": "env0", "type": "am2302", "params": {"pin": 15, "retry_backoff_ms": 100}}
    ],
    "pollers": [
      {"kind": "humidity", "name": "env0", "interval_ms": 3000}
    ]
  },
  "app": {"report_every_ms": 3000}
}`

var embeddedConfigs = map[string][]byte{
	"rpi-porch": []byte(cfgRPiPorch),
	"pico":      []byte(cfgPico),
}
