package spot

import (
	"context"
	"math/rand"
	"time"

	"homedash/internal/clock"
	"homedash/internal/models"
)

// MockFetcher generates a synthetic price series for development and tests:
// 24 hourly points for yesterday and today, plus 24 for tomorrow once the
// configured release time has passed. Prices default to random values in
// [0, 20) c/kWh; set Prices to pin them.
type MockFetcher struct {
	Zone          *time.Location
	PriceZone     *time.Location
	ReleaseHour   int
	ReleaseMinute int

	// Prices maps hour offset from yesterday 00:00 to a fixed price.
	Prices map[int]float64

	// HoldTomorrow suppresses tomorrow's points even after the release time,
	// simulating a late publisher.
	HoldTomorrow bool
}

func (m *MockFetcher) FetchPrices(_ context.Context, now time.Time) (models.PriceSeries, error) {
	local := now.In(m.PriceZone)
	dayStart := time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, m.PriceZone)

	hours := 48
	if !m.HoldTomorrow && clock.ReleasePassed(now, m.Zone, m.ReleaseHour, m.ReleaseMinute) {
		hours = 72
	}

	series := make(models.PriceSeries, 0, hours)
	for h := 0; h < hours; h++ {
		price, ok := m.Prices[h]
		if !ok {
			price = rand.Float64() * 20.0
		}
		series = append(series, models.PricePoint{
			DateTime: dayStart.Add(time.Duration(h) * time.Hour),
			Price:    price,
		})
	}
	return series, nil
}
