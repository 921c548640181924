// Package cache holds the last successfully fetched price series and the
// fetch bookkeeping around it: one in-flight request at a time, previous data
// served while a refresh is outstanding, and a passive staleness deadline
// that forces a refetch on first access after the daily release.
package cache

import (
	"context"
	"sync"
	"time"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/spot"
)

// Snapshot is the consumer-facing cache state. Loading is true only before
// the first successful fetch; after that the consumer always has data,
// possibly stale, plus an optional error from the latest attempt.
type Snapshot struct {
	Series    models.PriceSeries
	FetchedAt time.Time
	Loading   bool
	Err       error
}

// Cache owns the price series. The series is immutable to readers; it is
// replaced wholesale on every successful fetch.
type Cache struct {
	fetcher  spot.Fetcher
	deadline func(time.Time) time.Time
	now      func() time.Time
	onUpdate func(models.PriceSeries)

	mu        sync.Mutex
	series    models.PriceSeries
	fetchedAt time.Time
	staleAt   time.Time
	lastErr   error
	loaded    bool
	inflight  chan struct{}
}

// New creates a cache around fetcher. deadline computes the passive staleness
// deadline from the completion time of a fetch (the freshness policy's
// StaleDeadline). onUpdate, if non-nil, is invoked after every successful
// fetch with the new series; it must not block.
func New(fetcher spot.Fetcher, deadline func(time.Time) time.Time, onUpdate func(models.PriceSeries)) *Cache {
	return &Cache{
		fetcher:  fetcher,
		deadline: deadline,
		now:      time.Now,
		onUpdate: onUpdate,
	}
}

// SetNowFunc overrides the clock, for tests.
func (c *Cache) SetNowFunc(now func() time.Time) {
	c.now = now
}

// Refetch fetches the series, coalescing concurrent callers onto a single
// upstream request. On failure the previous series is retained and the error
// recorded; the error is also returned to every coalesced caller.
func (c *Cache) Refetch(ctx context.Context) error {
	c.mu.Lock()
	if ch := c.inflight; ch != nil {
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		err := c.lastErr
		c.mu.Unlock()
		return err
	}
	ch := make(chan struct{})
	c.inflight = ch
	c.mu.Unlock()

	series, err := c.fetcher.FetchPrices(ctx, c.now())

	c.mu.Lock()
	c.inflight = nil
	c.lastErr = err
	if err == nil {
		done := c.now()
		c.series = series
		c.fetchedAt = done
		c.staleAt = c.deadline(done)
		c.loaded = true
	}
	update := c.onUpdate
	c.mu.Unlock()
	close(ch)

	if err != nil {
		logger.Warn("price fetch failed, keeping previous series: %v", err)
		return err
	}
	logger.Debug("price series replaced: %d points, stale at %v", len(series), c.staleAt)
	if update != nil {
		update(series)
	}
	return nil
}

// Snapshot returns the current cache state. If the staleness deadline has
// passed and no fetch is in flight, a background refetch is started so the
// first access after a release instant revalidates without blocking the
// reader.
func (c *Cache) Snapshot(ctx context.Context) Snapshot {
	c.mu.Lock()
	stale := c.loaded && c.inflight == nil && !c.now().Before(c.staleAt)
	snap := Snapshot{
		Series:    c.series,
		FetchedAt: c.fetchedAt,
		Loading:   !c.loaded,
		Err:       c.lastErr,
	}
	c.mu.Unlock()

	if stale {
		logger.Debug("cached series past staleness deadline, revalidating")
		go func() {
			if err := c.Refetch(ctx); err != nil {
				logger.Debug("background revalidation failed: %v", err)
			}
		}()
	}
	return snap
}

// Series returns the cached series without staleness side effects.
func (c *Cache) Series() models.PriceSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.series
}
