package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubForecaster struct {
	backend models.Backend
	fn      func(s models.WeeklySalesSeries, h int) (domsvc.Prediction, error)
	calls   int
}

func (s *stubForecaster) Backend() models.Backend { return s.backend }

func (s *stubForecaster) Forecast(_ context.Context, series models.WeeklySalesSeries, h int) (domsvc.Prediction, error) {
	s.calls++
	return s.fn(series, h)
}

func constant(v float64) func(models.WeeklySalesSeries, int) (domsvc.Prediction, error) {
	return func(_ models.WeeklySalesSeries, h int) (domsvc.Prediction, error) {
		out := make([]float64, h)
		for i := range out {
			out[i] = v
		}
		return domsvc.Prediction{Values: out, Model: "const"}, nil
	}
}

func sunday(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekly builds a series of consecutive Sundays starting 2011-01-02.
func weekly(code string, values ...float64) models.WeeklySalesSeries {
	s := models.WeeklySalesSeries{ProductCode: code}
	for i, v := range values {
		s.Points = append(s.Points, models.WeeklyPoint{WeekEnding: sunday(2011, 1, 2).AddDate(0, 0, 7*i), Quantity: v})
	}
	return s
}

func TestEngineRejectsBadHorizon(t *testing.T) {
	stub := &stubForecaster{backend: models.BackendExponentialSmoothing, fn: constant(1)}
	e := NewEngine(stub)

	for _, h := range []int{0, -1, 16} {
		_, err := e.Forecast(context.Background(), models.ForecastRequest{
			Series: weekly("A", 1, 2, 3), HorizonWeeks: h, Backend: models.BackendExponentialSmoothing,
		})
		assert.ErrorIs(t, err, models.ErrInvalidHorizon, "horizon %d", h)
	}
	assert.Zero(t, stub.calls)
}

func TestEngineRejectsUnknownBackend(t *testing.T) {
	e := NewEngine(&stubForecaster{backend: models.BackendExponentialSmoothing, fn: constant(1)})
	_, err := e.Forecast(context.Background(), models.ForecastRequest{
		Series: weekly("A", 1, 2, 3), HorizonWeeks: 2, Backend: models.BackendAutoOrderAR,
	})
	assert.ErrorIs(t, err, models.ErrUnknownBackend)
	assert.False(t, e.Supports(models.BackendAutoOrderAR))
}

func TestEngineInsufficientDataForEveryBackend(t *testing.T) {
	e := NewDefaultEngine()
	for _, b := range models.Backends() {
		for _, s := range []models.WeeklySalesSeries{weekly("A"), weekly("A", 5), weekly("A", 5, 6)} {
			_, err := e.Forecast(context.Background(), models.ForecastRequest{Series: s, HorizonWeeks: 4, Backend: b})
			assert.ErrorIs(t, err, models.ErrInsufficientData, "%s with %d points", b, s.Len())
		}
	}
}

func TestEngineDatesFollowLastWeek(t *testing.T) {
	e := NewEngine(&stubForecaster{backend: models.BackendTrendChangepoint, fn: constant(4)})
	res, err := e.Forecast(context.Background(), models.ForecastRequest{
		Series: weekly("A", 10, 12, 8), HorizonWeeks: 3, Backend: models.BackendTrendChangepoint,
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "A", res.ProductCode)
	assert.Equal(t, "const", res.Model)
	assert.Equal(t, sunday(2011, 1, 23), res.Points[0].WeekEnding)
	assert.Equal(t, sunday(2011, 1, 30), res.Points[1].WeekEnding)
	assert.Equal(t, sunday(2011, 2, 6), res.Points[2].WeekEnding)
}

func TestEngineFloorsNegativePredictions(t *testing.T) {
	stub := &stubForecaster{backend: models.BackendAutoOrderAR, fn: func(_ models.WeeklySalesSeries, h int) (domsvc.Prediction, error) {
		return domsvc.Prediction{Values: []float64{-5, 3}}, nil
	}}
	res, err := NewEngine(stub).Forecast(context.Background(), models.ForecastRequest{
		Series: weekly("A", 1, 2, 3), HorizonWeeks: 2, Backend: models.BackendAutoOrderAR,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Points[0].Predicted)
	assert.Equal(t, 3.0, res.Points[1].Predicted)
}

func TestEngineWrapsBackendFailures(t *testing.T) {
	boom := errors.New("singular matrix")
	cases := map[string]func(models.WeeklySalesSeries, int) (domsvc.Prediction, error){
		"error": func(models.WeeklySalesSeries, int) (domsvc.Prediction, error) {
			return domsvc.Prediction{}, boom
		},
		"panic": func(models.WeeklySalesSeries, int) (domsvc.Prediction, error) {
			panic("index out of range")
		},
		"short": func(models.WeeklySalesSeries, int) (domsvc.Prediction, error) {
			return domsvc.Prediction{Values: []float64{1}}, nil
		},
		"nan": func(_ models.WeeklySalesSeries, h int) (domsvc.Prediction, error) {
			out := make([]float64, h)
			out[h-1] = math.NaN()
			return domsvc.Prediction{Values: out}, nil
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(&stubForecaster{backend: models.BackendExponentialSmoothing, fn: fn})
			res, err := e.Forecast(context.Background(), models.ForecastRequest{
				Series: weekly("A", 1, 2, 3), HorizonWeeks: 2, Backend: models.BackendExponentialSmoothing,
			})
			assert.Nil(t, res)
			var ff *models.ForecastFailure
			require.ErrorAs(t, err, &ff)
			assert.Equal(t, models.BackendExponentialSmoothing, ff.Backend)
		})
	}

	e := NewEngine(&stubForecaster{backend: models.BackendExponentialSmoothing, fn: cases["error"]})
	_, err := e.Forecast(context.Background(), models.ForecastRequest{
		Series: weekly("A", 1, 2, 3), HorizonWeeks: 2, Backend: models.BackendExponentialSmoothing,
	})
	assert.ErrorIs(t, err, boom)
}

func TestEngineDoesNotLeakSeriesMutation(t *testing.T) {
	stub := &stubForecaster{backend: models.BackendExponentialSmoothing, fn: func(s models.WeeklySalesSeries, h int) (domsvc.Prediction, error) {
		s.Points[0].Quantity = -100
		return constant(1)(s, h)
	}}
	in := weekly("A", 1, 2, 3)
	_, err := NewEngine(stub).Forecast(context.Background(), models.ForecastRequest{
		Series: in, HorizonWeeks: 1, Backend: models.BackendExponentialSmoothing,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, in.Points[0].Quantity)
}

func TestEngineThreeWeekScenario(t *testing.T) {
	e := NewDefaultEngine()
	series := weekly("85123A", 10, 12, 8)
	for _, b := range models.Backends() {
		t.Run(string(b), func(t *testing.T) {
			res, err := e.Forecast(context.Background(), models.ForecastRequest{Series: series, HorizonWeeks: 2, Backend: b})
			require.NoError(t, err)
			require.Equal(t, 2, res.Len())
			assert.Equal(t, sunday(2011, 1, 23), res.Points[0].WeekEnding)
			assert.Equal(t, sunday(2011, 1, 30), res.Points[1].WeekEnding)
			for _, p := range res.Points {
				assert.False(t, math.IsNaN(p.Predicted) || math.IsInf(p.Predicted, 0))
				assert.GreaterOrEqual(t, p.Predicted, 0.0)
			}
			assert.NotEmpty(t, res.Model)
		})
	}
}
