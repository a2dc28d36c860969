package forecast

import (
	"context"
	"math"
	"strings"
	"testing"

	"DemandCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(n int, a, b float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a + b*float64(i)
	}
	return out
}

func TestHoltExtendsLinearTrend(t *testing.T) {
	pred, err := NewHolt().Forecast(context.Background(), weekly("A", linear(10, 10, 10)...), 2)
	require.NoError(t, err)
	require.Len(t, pred.Values, 2)
	assert.InDelta(t, 110, pred.Values[0], 0.5)
	assert.InDelta(t, 120, pred.Values[1], 0.5)
	assert.True(t, strings.HasPrefix(pred.Model, "Holt(alpha="))
}

func TestHoltCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHolt().Forecast(ctx, weekly("A", 1, 2, 3), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestARIMAConstantSeries(t *testing.T) {
	pred, err := NewAutoARIMA(DefaultARIMAConfig()).Forecast(context.Background(), weekly("A", 5, 5, 5, 5, 5, 5), 3)
	require.NoError(t, err)
	require.Len(t, pred.Values, 3)
	for _, v := range pred.Values {
		assert.InDelta(t, 5, v, 1e-3)
	}
	assert.True(t, strings.HasPrefix(pred.Model, "ARIMA("))
	assert.Contains(t, pred.Model, ",0,")
}

func TestARIMADifferencesTrend(t *testing.T) {
	pred, err := NewAutoARIMA(DefaultARIMAConfig()).Forecast(context.Background(), weekly("A", linear(12, 10, 3)...), 2)
	require.NoError(t, err)
	assert.Contains(t, pred.Model, ",1,")
	assert.InDelta(t, 46, pred.Values[0], 1e-2)
	assert.InDelta(t, 49, pred.Values[1], 1e-2)
}

func TestARIMAGridMatchesCriterionOptions(t *testing.T) {
	series := weekly("A", 12, 15, 11, 14, 18, 13, 16, 19, 15, 17, 21, 16, 18, 22, 19)
	for _, crit := range []string{CriterionAIC, CriterionAICc, CriterionBIC} {
		for _, stepwise := range []bool{true, false} {
			cfg := DefaultARIMAConfig()
			cfg.Criterion, cfg.Stepwise = crit, stepwise
			pred, err := NewAutoARIMA(cfg).Forecast(context.Background(), series, 4)
			require.NoError(t, err, "%s stepwise=%v", crit, stepwise)
			require.Len(t, pred.Values, 4)
			for _, v := range pred.Values {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
		}
	}
}

func TestNewAutoARIMAFillsDefaults(t *testing.T) {
	a := NewAutoARIMA(ARIMAConfig{Criterion: "HQIC"})
	assert.Equal(t, DefaultARIMAConfig().MaxP, a.cfg.MaxP)
	assert.Equal(t, CriterionAIC, a.cfg.Criterion)
}

func TestKPSS(t *testing.T) {
	stat, ok := kpssLevel(linear(20, 10, 3))
	require.True(t, ok)
	assert.Greater(t, stat, kpssCritical5)

	_, ok = kpssLevel([]float64{4, 4, 4, 4})
	assert.False(t, ok)

	assert.Equal(t, 1, chooseDifferencing(linear(20, 10, 3), 2, 3))
	assert.Equal(t, 0, chooseDifferencing([]float64{10, 12, 8}, 2, 3))
}

func TestStableAR(t *testing.T) {
	assert.True(t, stableAR(nil))
	assert.True(t, stableAR([]float64{0.5}))
	assert.False(t, stableAR([]float64{1.2}))
	assert.True(t, stableAR([]float64{0.5, 0.3}))
	assert.False(t, stableAR([]float64{0.5, 0.6}))
}

func TestTrendFollowsLine(t *testing.T) {
	pred, err := NewTrendChangepoint(DefaultTrendConfig()).Forecast(context.Background(), weekly("A", linear(12, 10, 3)...), 2)
	require.NoError(t, err)
	assert.InDelta(t, 46, pred.Values[0], 0.1)
	assert.InDelta(t, 49, pred.Values[1], 0.1)
	assert.Equal(t, "PiecewiseLinear(changepoints=8, active=0)", pred.Model)
}

func TestTrendPicksUpSlopeChange(t *testing.T) {
	values := append(linear(10, 10, 0), linear(10, 15, 5)...)
	pred, err := NewTrendChangepoint(DefaultTrendConfig()).Forecast(context.Background(), weekly("A", values...), 3)
	require.NoError(t, err)
	assert.Greater(t, pred.Values[0], values[len(values)-1])
	assert.Greater(t, pred.Values[2], pred.Values[1])
	assert.NotContains(t, pred.Model, "active=0")
}

func TestChangepointIndexes(t *testing.T) {
	assert.Equal(t, []int{1}, changepointIndexes(3, 0.8, 25))
	assert.Nil(t, changepointIndexes(2, 0.8, 25))
	idx := changepointIndexes(100, 0.8, 25)
	require.Len(t, idx, 25)
	assert.Equal(t, 79, idx[len(idx)-1])
	for i := 1; i < len(idx); i++ {
		assert.Greater(t, idx[i], idx[i-1])
	}
}

func TestBackendsReportTheirKind(t *testing.T) {
	assert.Equal(t, models.BackendExponentialSmoothing, NewHolt().Backend())
	assert.Equal(t, models.BackendAutoOrderAR, NewAutoARIMA(ARIMAConfig{}).Backend())
	assert.Equal(t, models.BackendTrendChangepoint, NewTrendChangepoint(TrendConfig{}).Backend())
}
