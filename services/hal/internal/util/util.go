// services/hal/internal/util/util.go
package util

import (
	"encoding/json"
	"time"
)

// ResetTimer stops, drains and re-arms t. Negative durations fire immediately.
func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

// DecodeJSON decodes device params that may arrive as raw JSON or as an
// already-decoded value (e.g. map[string]any from a parsed board config).
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case nil:
		return nil
	case *T:
		*dst = *v
		return nil
	case T:
		*dst = v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case json.RawMessage:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// Millis converts a millisecond count from config into a Duration.
func Millis[N ~int | ~uint16 | ~uint32](ms N) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
