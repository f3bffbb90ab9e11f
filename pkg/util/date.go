package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// DateString formats t as YYYY-MM-DD in UTC.
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// LookbackRange returns [now-days, now] as YYYY-MM-DD strings.
// Non-positive days yield a single-day range.
func LookbackRange(now time.Time, days int) (string, string) {
	if days < 0 {
		days = 0
	}
	return DateString(now.AddDate(0, 0, -days)), DateString(now)
}
