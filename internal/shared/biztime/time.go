// Package biztime holds time helpers shared by the quota and upload domains.
// All storage and transport use UTC; billing period checks go through a Clock
// so they can be pinned in tests.
package biztime

import (
	"fmt"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f().UTC() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatRFC3339 formats a timestamp for API payloads; a nil time yields "".
func FormatRFC3339(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses an API timestamp into UTC. An empty string yields nil.
func ParseRFC3339(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp format %q: %w", s, err)
	}
	utc := t.UTC()
	return &utc, nil
}
