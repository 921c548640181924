package scheduler

import (
	"testing"
	"time"
)

func helsinki(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func stockholm(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func testPolicy(t *testing.T) Policy {
	return Policy{
		ReleaseHour:   14,
		ReleaseMinute: 0,
		Zone:          helsinki(t),
		PollInterval:  10 * time.Minute,
	}
}

func TestStaleDeadline(t *testing.T) {
	p := testPolicy(t)
	loc := p.Zone

	before := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
	if got := p.StaleDeadline(before); !got.Equal(time.Date(2024, 5, 10, 14, 0, 0, 0, loc)) {
		t.Errorf("deadline before release = %v", got)
	}

	after := time.Date(2024, 5, 10, 16, 0, 0, 0, loc)
	if got := p.StaleDeadline(after); !got.Equal(time.Date(2024, 5, 11, 14, 0, 0, 0, loc)) {
		t.Errorf("deadline after release = %v", got)
	}
}

func TestShouldPoll(t *testing.T) {
	p := testPolicy(t)
	loc := p.Zone

	tests := []struct {
		name     string
		now      time.Time
		tomorrow bool
		want     bool
	}{
		{"before release, no tomorrow", time.Date(2024, 5, 10, 13, 50, 0, 0, loc), false, false},
		{"at release minute, no tomorrow", time.Date(2024, 5, 10, 14, 0, 0, 0, loc), false, true},
		{"after release, no tomorrow", time.Date(2024, 5, 10, 18, 0, 0, 0, loc), false, true},
		{"late evening, no tomorrow", time.Date(2024, 5, 10, 23, 59, 0, 0, loc), false, true},
		{"before release, tomorrow cached", time.Date(2024, 5, 10, 9, 0, 0, 0, loc), true, false},
		{"after release, tomorrow cached", time.Date(2024, 5, 10, 15, 0, 0, 0, loc), true, false},
		{"midnight, tomorrow cached", time.Date(2024, 5, 10, 0, 0, 0, 0, loc), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interval, active := p.ShouldPoll(tt.now, tt.tomorrow)
			if active != tt.want {
				t.Errorf("ShouldPoll(%v, %v) active = %v, want %v", tt.now, tt.tomorrow, active, tt.want)
			}
			if active && interval != 10*time.Minute {
				t.Errorf("unexpected interval: %v", interval)
			}
		})
	}
}

// The decision has no memory: the same inputs give the same answer however
// often it is consulted.
func TestShouldPollStateless(t *testing.T) {
	p := testPolicy(t)
	now := time.Date(2024, 5, 10, 14, 30, 0, 0, p.Zone)

	for i := 0; i < 3; i++ {
		if _, active := p.ShouldPoll(now, false); !active {
			t.Fatalf("consultation %d flipped the decision", i)
		}
	}
	if _, active := p.ShouldPoll(now, true); active {
		t.Error("tomorrow availability did not deactivate polling")
	}
}
