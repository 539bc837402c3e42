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

// LookbackRange returns [now-lookback, now] with both ends truncated to the
// bar interval, so repeated requests within one bar share a cache key.
func LookbackRange(now time.Time, lookback time.Duration, interval string) (time.Time, time.Time) {
	now = now.UTC()
	step := 24 * time.Hour
	if interval == "1wk" {
		step = 7 * 24 * time.Hour
	}
	to := now.Truncate(step)
	if to.Before(now) {
		to = to.Add(step)
	}
	return to.Add(-lookback).Truncate(step), to
}
