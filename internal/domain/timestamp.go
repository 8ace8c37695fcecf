package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date wire format used by due-date filters.
const DateLayout = "2006-01-02"

// timestampLayouts lists accepted server formats; naive values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	DateLayout,
}

// Timestamp decodes the API's datetime values, which may omit a zone offset.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps one time value.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// ParseTimestamp parses one API datetime or calendar date.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return Timestamp{Time: ts.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("parse timestamp %q: unsupported format", raw)
}

// Valid reports whether the timestamp carries a value.
func (t Timestamp) Valid() bool {
	return !t.IsZero()
}

// Date formats the timestamp as a calendar date, or "" when unset.
func (t Timestamp) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// MarshalJSON encodes unset values as null and set values as RFC3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// UnmarshalJSON accepts null, RFC3339, naive datetimes and calendar dates.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
