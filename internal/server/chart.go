package server

import (
	"errors"
	"strconv"
	"time"

	charts "github.com/vicanso/go-charts/v2"

	"homedash/internal/models"
)

// baseDomain keeps the y-axis at a stable minimum span so cheap days do not
// render as dramatic swings.
const baseDomain = 20.0

// renderChart draws the forward-looking slice as a bar chart with the day
// average overlaid as a flat line, returning PNG bytes.
func renderChart(v models.DerivedView, displayZone *time.Location) ([]byte, error) {
	pts := v.CurrentAndFuturePrices
	if len(pts) == 0 {
		return nil, errors.New("no points to chart")
	}

	labels := make([]string, len(pts))
	bars := make([]float64, len(pts))
	avg := make([]float64, len(pts))
	maxPrice := pts[0].Price
	for i, p := range pts {
		labels[i] = strconv.Itoa(p.DateTime.In(displayZone).Hour())
		bars[i] = p.Price
		avg[i] = v.DayAverage
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
	}

	yMin := 0.0
	yMax := maxPrice
	if yMax < baseDomain {
		yMax = baseDomain
	}

	seriesList := charts.NewSeriesListDataFromValues([][]float64{bars}, charts.ChartTypeBar)
	seriesList = append(seriesList, charts.NewSeriesListDataFromValues([][]float64{avg}, charts.ChartTypeLine)...)

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Electricity price c/kWh"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}
