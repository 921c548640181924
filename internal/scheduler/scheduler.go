package scheduler

import (
	"context"
	"sync"
	"time"

	"homedash/internal/cache"
	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/spot"
)

// Notifier receives the scheduler's noteworthy events. All methods may be
// called from timer goroutines.
type Notifier interface {
	NotifyTomorrow(series models.PriceSeries, day time.Time) error
	NotifyError(err error) error
	NotifyRecovery(failures int) error
}

// Scheduler drives the refetch lifecycle of the price series: an initial
// fetch on start, the passive staleness deadline via the cache, and the
// adaptive post-release polling timer. The polling decision is consulted
// fresh after every fetch completion and every timer fire.
type Scheduler struct {
	policy    Policy
	priceZone *time.Location
	notifier  Notifier
	now       func() time.Time

	cache *cache.Cache
	ctx   context.Context

	mu           sync.Mutex
	pollTimer    *time.Timer
	pollsArmed   int
	announcedDay time.Time
	failures     int
	stopped      bool
}

// New creates a scheduler and the price series cache it owns. notifier may
// be nil.
func New(policy Policy, fetcher spot.Fetcher, priceZone *time.Location, notifier Notifier) *Scheduler {
	s := &Scheduler{
		policy:    policy,
		priceZone: priceZone,
		notifier:  notifier,
		now:       time.Now,
		ctx:       context.Background(),
	}
	s.cache = cache.New(fetcher, policy.StaleDeadline, s.handleSeriesUpdate)
	return s
}

// SetNowFunc overrides the clock for the scheduler and its cache, for tests.
func (s *Scheduler) SetNowFunc(now func() time.Time) {
	s.now = now
	s.cache.SetNowFunc(now)
}

// Cache exposes the owned price series cache to the serving layer.
func (s *Scheduler) Cache() *cache.Cache {
	return s.cache
}

// Start performs the initial fetch in the background and begins scheduling.
// ctx cancellation stops the polling timer and in-flight fetches.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.stopped = false
	s.mu.Unlock()

	go s.refetch()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop disarms the polling timer. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.pollTimer != nil {
		s.pollTimer.Stop()
		s.pollTimer = nil
	}
}

// TomorrowAvailable reports whether the cached series contains any point
// dated tomorrow in the price zone. Computed fresh on every call.
func (s *Scheduler) TomorrowAvailable() bool {
	return s.cache.Series().HasTomorrow(s.now(), s.priceZone)
}

// Evaluate consults the polling decision and arms or disarms the poll timer
// accordingly. Called after every fetch completion and timer fire, and by
// anything else that changes the inputs.
func (s *Scheduler) Evaluate() {
	tomorrow := s.TomorrowAvailable()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	interval, active := s.policy.ShouldPoll(s.now(), tomorrow)
	if !active {
		if s.pollTimer != nil {
			logger.Debug("polling deactivated (tomorrow available: %v)", tomorrow)
			s.pollTimer.Stop()
			s.pollTimer = nil
		}
		return
	}
	if s.pollTimer != nil {
		return // a poll is already pending
	}
	s.pollsArmed++
	s.pollTimer = time.AfterFunc(interval, s.pollTick)
	logger.Debug("polling armed: next poll in %v", interval)
}

// PollsArmed returns how many polling timers have been armed in total.
func (s *Scheduler) PollsArmed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollsArmed
}

// pollTick runs one polling cycle. On success the cache's update callback
// re-evaluates the decision; on failure we re-evaluate here so polling keeps
// its normal cadence through errors.
func (s *Scheduler) pollTick() {
	s.mu.Lock()
	s.pollTimer = nil
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return
	}

	logger.Debug("poll timer fired, refetching prices")
	s.refetch()
}

// refetch performs one fetch with consecutive-failure accounting: one error
// notification at the start of a failure run, one recovery notification when
// it ends.
func (s *Scheduler) refetch() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	err := s.cache.Refetch(ctx)

	s.mu.Lock()
	notifier := s.notifier
	if err != nil {
		s.failures++
		first := s.failures == 1
		s.mu.Unlock()
		logger.Error("price fetch failed: %v", err)
		if first && notifier != nil {
			if nerr := notifier.NotifyError(err); nerr != nil {
				logger.Warn("failed to send error notification: %v", nerr)
			}
		}
		s.Evaluate()
		return
	}
	failures := s.failures
	s.failures = 0
	s.mu.Unlock()
	if failures > 0 && notifier != nil {
		if nerr := notifier.NotifyRecovery(failures); nerr != nil {
			logger.Warn("failed to send recovery notification: %v", nerr)
		}
	}
}

// handleSeriesUpdate runs after every successful fetch, wherever it was
// triggered: the scheduler's own polls, the cache's passive revalidation, or
// a manual refresh. It edge-detects tomorrow's arrival and re-evaluates the
// polling decision. The announcement is keyed on the announced calendar day,
// not a boolean, so each new publisher day gets its own notification in a
// long-running process.
func (s *Scheduler) handleSeriesUpdate(series models.PriceSeries) {
	now := s.now()
	tomorrow := series.HasTomorrow(now, s.priceZone)
	day := now.In(s.priceZone).AddDate(0, 0, 1)

	s.mu.Lock()
	arrived := tomorrow && !sameDay(day, s.announcedDay)
	if arrived {
		s.announcedDay = day
	}
	notifier := s.notifier
	s.mu.Unlock()

	if arrived {
		logger.Info("tomorrow's prices arrived (%s): %d points total", day.Format("2006-01-02"), len(series))
		if notifier != nil {
			if err := notifier.NotifyTomorrow(series, day); err != nil {
				logger.Warn("failed to send tomorrow notification: %v", err)
			}
		}
	}

	s.Evaluate()
}

// sameDay compares calendar days. Both arguments carry the price zone, so
// the Date fields can be read off directly.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
