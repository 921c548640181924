// Package scheduler decides when the price series is refetched and keeps the
// display window aligned to the current local hour. The freshness policy is
// pure; the window advancer and the scheduler glue own the timers.
package scheduler

import (
	"time"

	"homedash/internal/clock"
)

// Policy captures the daily release schedule and the adaptive polling
// cadence. It is a pure decision function over its parameters; nothing here
// is cached, so a tomorrow-availability flip takes effect on the very next
// consultation.
type Policy struct {
	ReleaseHour   int
	ReleaseMinute int
	Zone          *time.Location
	PollInterval  time.Duration
}

// StaleDeadline returns the instant at which the cached series stops being
// fresh: the next scheduled release. Absent any timer, the first access after
// a release forces a refetch.
func (p Policy) StaleDeadline(now time.Time) time.Time {
	return clock.NextRelease(now, p.Zone, p.ReleaseHour, p.ReleaseMinute)
}

// ShouldPoll reports whether an active polling timer should run and at what
// interval. Polling is on only in the gap between the daily release and the
// first observation of tomorrow's prices; otherwise the passive staleness
// deadline carries the load and the network stays quiet.
func (p Policy) ShouldPoll(now time.Time, tomorrowAvailable bool) (time.Duration, bool) {
	if tomorrowAvailable {
		return 0, false
	}
	if !clock.ReleasePassed(now, p.Zone, p.ReleaseHour, p.ReleaseMinute) {
		return 0, false
	}
	return p.PollInterval, true
}
