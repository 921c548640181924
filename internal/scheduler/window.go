package scheduler

import (
	"sync"
	"time"

	"homedash/internal/clock"
	"homedash/internal/logger"
)

// WindowState identifies the advancer's position in its lifecycle.
type WindowState int

const (
	// Idle: not started, or stopped. No timers live.
	Idle WindowState = iota
	// WaitingForHourBoundary: one-shot timer armed for the next boundary.
	WaitingForHourBoundary
	// Ticking: repeating ticker recomputes the hour start each cadence.
	Ticking
	// Suspended: page hidden; window frozen, no timers live.
	Suspended
)

func (s WindowState) String() string {
	switch s {
	case WaitingForHourBoundary:
		return "waiting"
	case Ticking:
		return "ticking"
	case Suspended:
		return "suspended"
	default:
		return "idle"
	}
}

// WindowAdvancer keeps the display window's first timestamp equal to the
// start of the current hour in the display zone while the page is visible,
// freezes it while hidden, and snaps it forward on resume. Transitions are
// serialized under one mutex so at most one (one-shot, ticker) pair is ever
// live; a generation counter discards timer callbacks that lost the race
// with a cancellation.
type WindowAdvancer struct {
	zone     *time.Location
	cadence  time.Duration
	now      func() time.Time
	onChange func(time.Time)

	mu         sync.Mutex
	state      WindowState
	first      time.Time
	gen        int
	timer      *time.Timer
	ticker     *time.Ticker
	tickerStop chan struct{}
}

// NewWindowAdvancer creates an advancer for the given display zone. cadence
// is the repeat period once ticking; the meaningful value only changes
// hourly, so each tick recomputes the hour start idempotently. onChange, if
// non-nil, is called with the new first timestamp while the transition lock
// is held; it must be fast and must not call back into the advancer.
func NewWindowAdvancer(zone *time.Location, cadence time.Duration, onChange func(time.Time)) *WindowAdvancer {
	return &WindowAdvancer{
		zone:     zone,
		cadence:  cadence,
		now:      time.Now,
		onChange: onChange,
	}
}

// SetNowFunc overrides the clock, for tests.
func (w *WindowAdvancer) SetNowFunc(now func() time.Time) {
	w.now = now
}

// Start sets the window to the current hour and arms the one-shot timer for
// the next boundary. Starting an already started advancer is a no-op.
func (w *WindowAdvancer) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Idle {
		return
	}
	w.snapLocked()
	w.armLocked()
}

// Stop cancels all timers. No further transitions occur until Start.
func (w *WindowAdvancer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
	w.state = Idle
}

// SetVisible feeds the page-visibility signal. Hiding freezes the window and
// cancels both timers; becoming visible snaps the window to the hour of the
// resume instant and restarts the one-shot cycle, so a stale window is never
// shown after the tab regains focus.
func (w *WindowAdvancer) SetVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !visible {
		if w.state == Idle || w.state == Suspended {
			return
		}
		logger.Debug("window advancer suspended at %v", w.first)
		w.cancelLocked()
		w.state = Suspended
		return
	}

	if w.state != Suspended {
		return
	}
	w.cancelLocked()
	w.snapLocked()
	w.armLocked()
	logger.Debug("window advancer resumed, window start %v", w.first)
}

// First returns the current window start: always an exact hour boundary in
// the display zone.
func (w *WindowAdvancer) First() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.first
}

// State returns the current lifecycle state.
func (w *WindowAdvancer) State() WindowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *WindowAdvancer) snapLocked() {
	w.setFirstLocked(clock.HourStart(w.now(), w.zone))
}

func (w *WindowAdvancer) setFirstLocked(t time.Time) {
	if t.Equal(w.first) {
		return
	}
	w.first = t
	if w.onChange != nil {
		w.onChange(t)
	}
}

// armLocked starts the one-shot timer for the next hour boundary.
func (w *WindowAdvancer) armLocked() {
	w.gen++
	gen := w.gen
	w.state = WaitingForHourBoundary
	boundary := clock.NextHourStart(w.now(), w.zone)
	delay := boundary.Sub(w.now())
	w.timer = time.AfterFunc(delay, func() {
		w.onBoundary(gen, boundary)
	})
}

func (w *WindowAdvancer) onBoundary(gen int, boundary time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen || w.state != WaitingForHourBoundary {
		return
	}
	w.setFirstLocked(boundary)
	w.state = Ticking
	w.ticker = time.NewTicker(w.cadence)
	w.tickerStop = make(chan struct{})
	go w.runTicker(gen, w.ticker, w.tickerStop)
}

func (w *WindowAdvancer) runTicker(gen int, ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			if gen == w.gen && w.state == Ticking {
				w.snapLocked()
			}
			w.mu.Unlock()
		}
	}
}

// cancelLocked invalidates the current generation and stops both timers.
// Must run before arming replacements.
func (w *WindowAdvancer) cancelLocked() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.ticker != nil {
		w.ticker.Stop()
		close(w.tickerStop)
		w.ticker = nil
		w.tickerStop = nil
	}
}
