package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// RecentlyLabel shown instead of a time the server sent in an unreadable form
const RecentlyLabel = "Recently"

// Timestamp a server time that never fails to decode. Unreadable values
// decode to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON accepts RFC 3339 strings and unix milliseconds.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = ParseTime(string(bytes.Trim(data, `"`)))
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// Label short display form, RecentlyLabel when unknown.
func (t Timestamp) Label() string {
	if t.IsZero() {
		return RecentlyLabel
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ParseTime best-effort parse; zero time when s is unreadable.
func ParseTime(s string) time.Time {
	if s == "" || s == "null" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}
