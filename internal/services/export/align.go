package export

import (
	"fmt"
	"sort"
	"time"

	"DemandCast/internal/domain/models"
)

// Chart labels for the combined view.
const (
	HistoricalName = "Historical Sales"
	ForecastName   = "Forecasted Sales"
	XLabel         = "Date"
	YLabel         = "Quantity Sold"
)

// Align places the historical series and the forecast on one sorted timeline.
// The two series keep their own values and dates; nothing is merged.
func Align(historical models.WeeklySalesSeries, result *models.ForecastResult) models.AlignedView {
	code := historical.ProductCode
	if code == "" && result != nil {
		code = result.ProductCode
	}
	view := models.AlignedView{
		Title:  fmt.Sprintf("Sales Forecast for %s", code),
		XLabel: XLabel,
		YLabel: YLabel,
		Historical: models.SeriesView{
			Name:   HistoricalName,
			Style:  models.LineSolid,
			Dates:  historical.Dates(),
			Values: historical.Values(),
		},
		Forecast: models.SeriesView{
			Name:   ForecastName,
			Style:  models.LineDashed,
			Dates:  []time.Time{},
			Values: []float64{},
		},
	}
	if result != nil {
		for _, p := range result.Points {
			view.Forecast.Dates = append(view.Forecast.Dates, p.WeekEnding)
			view.Forecast.Values = append(view.Forecast.Values, p.Predicted)
		}
	}

	seen := make(map[time.Time]struct{}, len(view.Historical.Dates)+len(view.Forecast.Dates))
	for _, ds := range [][]time.Time{view.Historical.Dates, view.Forecast.Dates} {
		for _, d := range ds {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			view.Timeline = append(view.Timeline, d)
		}
	}
	sort.Slice(view.Timeline, func(i, j int) bool { return view.Timeline[i].Before(view.Timeline[j]) })
	return view
}
