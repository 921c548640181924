package view

import (
	"strconv"
	"time"

	"homedash/internal/models"
)

// DayAverageLabel is the label of the trailing summary entry.
const DayAverageLabel = "Day average"

// Entry is one accessible label/value pair of the rendered price list.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LabeledEntries renders the forward-looking slice as a flat list for
// screen-reader style consumers: one entry per point, labeled with the
// hour-of-day in the display zone, followed by a single day-average entry.
func LabeledEntries(v models.DerivedView, displayZone *time.Location) []Entry {
	out := make([]Entry, 0, len(v.CurrentAndFuturePrices)+1)
	for _, p := range v.CurrentAndFuturePrices {
		out = append(out, Entry{
			Label: strconv.Itoa(p.DateTime.In(displayZone).Hour()),
			Value: formatPrice(p.Price),
		})
	}
	out = append(out, Entry{Label: DayAverageLabel, Value: formatPrice(v.DayAverage)})
	return out
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
