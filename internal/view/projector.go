// Package view computes the read-only projections of a price series that the
// rendering layer consumes. Everything here is a pure function of its
// arguments.
package view

import (
	"time"

	"homedash/internal/models"
)

// MaxSliceLen bounds the forward-looking slice shown on the primary chart.
const MaxSliceLen = 24

// Day-average band: hours 8 through 23 inclusive in the price zone.
const (
	dayAverageFirstHour = 8
	dayAverageLastHour  = 23
)

// CurrentAndFuture returns the points at or after windowStart, in ascending
// order, truncated to at most MaxSliceLen elements. Fewer may be returned
// when tomorrow's data has not been published yet.
func CurrentAndFuture(series models.PriceSeries, windowStart time.Time) models.PriceSeries {
	out := make(models.PriceSeries, 0, MaxSliceLen)
	for _, p := range series {
		if p.DateTime.Before(windowStart) {
			continue
		}
		out = append(out, p)
		if len(out) == MaxSliceLen {
			break
		}
	}
	return out
}

// DayAverage returns the mean price over points whose local hour-of-day in
// priceZone falls in the daytime band. The average spans the entire cached
// series, not the display window, so already-published tomorrow hours
// contribute too. An empty qualifying set yields 0.
func DayAverage(series models.PriceSeries, priceZone *time.Location) float64 {
	var sum float64
	var n int
	for _, p := range series {
		h := p.DateTime.In(priceZone).Hour()
		if h < dayAverageFirstHour || h > dayAverageLastHour {
			continue
		}
		sum += p.Price
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Project assembles the full derived view for the rendering boundary.
func Project(series models.PriceSeries, windowStart time.Time, priceZone *time.Location) models.DerivedView {
	return models.DerivedView{
		AllPrices:              series,
		CurrentAndFuturePrices: CurrentAndFuture(series, windowStart),
		DayAverage:             DayAverage(series, priceZone),
	}
}
