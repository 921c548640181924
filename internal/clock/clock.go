// Package clock provides the pure time arithmetic behind the daily release
// schedule and the hour-aligned display window. All functions take the zone
// explicitly; the system local zone is never consulted.
package clock

import "time"

// NextRelease returns today's release instant in loc if now is strictly
// before it, otherwise tomorrow's. The instant is constructed from calendar
// fields, so it stays on the release wall-clock time across DST transitions.
func NextRelease(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	release := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if local.Before(release) {
		return release
	}
	return time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
}

// ReleasePassed reports whether now's wall-clock time-of-day in loc is at or
// after the release time-of-day. The comparison is on hour/minute fields, not
// elapsed time, and uses >= at the exact release minute.
func ReleasePassed(now time.Time, loc *time.Location, hour, minute int) bool {
	local := now.In(loc)
	if local.Hour() != hour {
		return local.Hour() > hour
	}
	return local.Minute() >= minute
}

// HourStart truncates t to the top of its hour in loc.
func HourStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}

// NextHourStart returns the first hour boundary strictly after t in loc.
func NextHourStart(t time.Time, loc *time.Location) time.Time {
	return HourStart(t, loc).Add(time.Hour)
}
