package export

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/service/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sunday(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult() *models.ForecastResult {
	return &models.ForecastResult{
		ProductCode: "85123A",
		Backend:     models.BackendExponentialSmoothing,
		Points: []models.ForecastPoint{
			{WeekEnding: sunday(2011, 1, 23), Predicted: 9.333333333333334},
			{WeekEnding: sunday(2011, 1, 30), Predicted: 0},
			{WeekEnding: sunday(2011, 2, 6), Predicted: 1e-7},
			{WeekEnding: sunday(2011, 2, 13), Predicted: math.Nextafter(12, 13)},
		},
	}
}

type countingMetrics struct{ hits, misses int }

func (m *countingMetrics) RecordRowsLoaded(string, int) {}
func (m *countingMetrics) RecordRowsDropped(string, int) {}
func (m *countingMetrics) RecordForecast(string, string, float64) {}
func (m *countingMetrics) RecordError(string) {}
func (m *countingMetrics) RecordExport(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestEncodeCSVRoundTrip(t *testing.T) {
	res := sampleResult()
	b, err := EncodeCSV(res)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "date,predictedQuantity", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2011-01-23,"))

	got, err := DecodeCSV(b)
	require.NoError(t, err)
	assert.Equal(t, res.Points, got)
}

func TestExportRejectsEmpty(t *testing.T) {
	e := NewExporter()
	_, err := e.CSV(context.Background(), &models.ForecastResult{ProductCode: "A"})
	assert.ErrorIs(t, err, models.ErrNothingToExport)
	_, err = e.CSV(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrNothingToExport)
}

func TestExporterMemoisesByContent(t *testing.T) {
	m := &countingMetrics{}
	e := NewExporter(WithCache(cache.NewTTLCache(), time.Minute), WithMetrics(m))
	ctx := context.Background()

	first, err := e.CSV(ctx, sampleResult())
	require.NoError(t, err)
	second, err := e.CSV(ctx, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)

	other := sampleResult()
	other.Points[1].Predicted = 1
	_, err = e.CSV(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, m.misses)
}

func TestContentKeyIgnoresMetadata(t *testing.T) {
	a, b := sampleResult(), sampleResult()
	b.Backend = models.BackendAutoOrderAR
	b.Model = "ARIMA(0,1,0)"
	assert.Equal(t, ContentKey(a), ContentKey(b))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "85123A_forecast.csv", FileName("85123A"))
	assert.Equal(t, "text/csv", ContentType)
}

func TestAlign(t *testing.T) {
	hist := models.WeeklySalesSeries{ProductCode: "85123A", Points: []models.WeeklyPoint{
		{WeekEnding: sunday(2011, 1, 2), Quantity: 10},
		{WeekEnding: sunday(2011, 1, 9), Quantity: 12},
		{WeekEnding: sunday(2011, 1, 16), Quantity: 8},
	}}
	res := &models.ForecastResult{ProductCode: "85123A", Points: []models.ForecastPoint{
		{WeekEnding: sunday(2011, 1, 23), Predicted: 9},
		{WeekEnding: sunday(2011, 1, 30), Predicted: 9.5},
	}}

	v := Align(hist, res)
	assert.Equal(t, "Sales Forecast for 85123A", v.Title)
	assert.Equal(t, "Date", v.XLabel)
	assert.Equal(t, "Quantity Sold", v.YLabel)
	assert.Equal(t, models.LineSolid, v.Historical.Style)
	assert.Equal(t, models.LineDashed, v.Forecast.Style)
	assert.Equal(t, []float64{10, 12, 8}, v.Historical.Values)
	assert.Equal(t, []float64{9, 9.5}, v.Forecast.Values)
	require.Len(t, v.Timeline, 5)
	assert.Equal(t, sunday(2011, 1, 2), v.Timeline[0])
	assert.Equal(t, sunday(2011, 1, 30), v.Timeline[4])
}

func TestAlignWithoutForecast(t *testing.T) {
	hist := models.WeeklySalesSeries{ProductCode: "A", Points: []models.WeeklyPoint{{WeekEnding: sunday(2011, 1, 2), Quantity: 1}}}
	v := Align(hist, nil)
	assert.Empty(t, v.Forecast.Values)
	assert.Len(t, v.Timeline, 1)
}
