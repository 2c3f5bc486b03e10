package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// getString, getMap, getSlice, getBool, and getFloat implement the lenient decoding the design
// notes call for at the vendor boundary: a missing or wrong-typed field
// defaults to its zero value rather than panicking or erroring.
func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]any); ok {
			return mm
		}
	}
	return nil
}

func getSlice(m map[string]any, key string) []any {
	if v, ok := m[key]; ok {
		if s, ok := v.([]any); ok {
			return s
		}
	}
	return nil
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getFloat(m map[string]any, key string) (float64, bool) {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return f, true
		}
	}
	return 0, false
}

// parseTimestamp implements the timestamping rule of §4.2: use the raw
// record's own timestamp if one parses, else substitute wall-clock time.
func parseTimestamp(m map[string]any, now func() time.Time) time.Time {
	for _, key := range []string{"timestamp", "ts", "time"} {
		raw := getString(m, key)
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.UTC()
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
	}
	return now().UTC()
}

// unknownEvent wraps any record no case recognizes, per the Totality
// requirement: unknown shapes become a single unknown event carrying the
// original record, never an error.
func unknownEvent(agent string, raw map[string]any, ts time.Time) canonical.Event {
	return canonical.Event{
		Type:      canonical.TypeUnknown,
		Agent:     agent,
		Timestamp: ts,
		Raw:       raw,
	}
}
