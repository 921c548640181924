// Package models defines the core domain entities: price points, price
// series, and the derived view served to the rendering layer.
package models

import (
	"errors"
	"sort"
	"time"
)

// PricePoint is a single hourly day-ahead price. Immutable once received.
// The JSON field names match the upstream wire format.
type PricePoint struct {
	DateTime time.Time `json:"DateTime"`
	Price    float64   `json:"Price"`
}

// Validate checks price point field constraints.
func (p *PricePoint) Validate() error {
	if p.DateTime.IsZero() {
		return errors.New("price point timestamp must not be zero")
	}
	return nil
}

// PriceSeries is an ordered sequence of price points, ascending by timestamp.
// A series is replaced wholesale on every successful fetch and never mutated
// in place; duplicate timestamps are the publisher's responsibility.
type PriceSeries []PricePoint

// Sort orders the series ascending by timestamp. Upstream order is not
// guaranteed, so this runs once after every successful fetch.
func (s PriceSeries) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].DateTime.Before(s[j].DateTime)
	})
}

// IsSorted reports whether the series is ascending by timestamp.
func (s PriceSeries) IsSorted() bool {
	return sort.SliceIsSorted(s, func(i, j int) bool {
		return s[i].DateTime.Before(s[j].DateTime)
	})
}

// HasDay reports whether any point falls on the given calendar day in loc.
// Day boundaries follow the publisher's zone, which may differ from the
// display zone.
func (s PriceSeries) HasDay(day time.Time, loc *time.Location) bool {
	y, m, d := day.In(loc).Date()
	for _, p := range s {
		py, pm, pd := p.DateTime.In(loc).Date()
		if py == y && pm == m && pd == d {
			return true
		}
	}
	return false
}

// HasTomorrow reports whether the series contains any point dated tomorrow
// relative to now, with the calendar evaluated in the price zone.
func (s PriceSeries) HasTomorrow(now time.Time, priceZone *time.Location) bool {
	return s.HasDay(now.In(priceZone).AddDate(0, 0, 1), priceZone)
}

// DerivedView is the read-only payload handed to renderers: the full cached
// series, the bounded forward-looking slice, and the day average.
type DerivedView struct {
	AllPrices              PriceSeries `json:"allPrices"`
	CurrentAndFuturePrices PriceSeries `json:"currentAndFuturePrices"`
	DayAverage             float64     `json:"dayAverage"`
	Loading                bool        `json:"loading"`
	Error                  string      `json:"error,omitempty"`
}
