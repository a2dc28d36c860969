package forecast

import (
	"context"
	"fmt"
	"math"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"
)

// Holt is additive-trend exponential smoothing without seasonality. The
// smoothing weights and initial state are chosen by minimising the one-step
// squared error with Nelder-Mead.
type Holt struct{}

// NewHolt returns the exponential smoothing backend.
func NewHolt() *Holt { return &Holt{} }

func (h *Holt) Backend() models.Backend { return models.BackendExponentialSmoothing }

type holtParams struct {
	alpha, beta  float64
	level, slope float64
}

// decode maps unconstrained optimiser coordinates to 0<beta<=alpha<1.
func decodeHolt(x []float64) holtParams {
	a := logistic(x[0])
	return holtParams{alpha: a, beta: a * logistic(x[1]), level: x[2], slope: x[3]}
}

// run filters y and returns the SSE together with the final state.
func (p holtParams) run(y []float64) (sse, level, slope float64) {
	level, slope = p.level, p.slope
	for _, v := range y {
		f := level + slope
		e := v - f
		sse += e * e
		prev := level
		level = f + p.alpha*e
		slope = slope + p.beta*(level-prev-slope)
	}
	return sse, level, slope
}

func (h *Holt) Forecast(ctx context.Context, series models.WeeklySalesSeries, horizon int) (domsvc.Prediction, error) {
	raw := series.Values()
	if len(raw) < models.MinHistoryWeeks {
		return domsvc.Prediction{}, models.ErrInsufficientData
	}
	if err := ctx.Err(); err != nil {
		return domsvc.Prediction{}, err
	}

	scale := scaleOf(raw)
	y := make([]float64, len(raw))
	for i, v := range raw {
		y[i] = v / scale
	}

	objective := func(x []float64) float64 {
		sse, _, _ := decodeHolt(x).run(y)
		return sse
	}

	l0, b0 := y[0], y[1]-y[0]
	best := math.Inf(1)
	var bestX []float64
	for _, start := range [][2]float64{{0.5, 0.1}, {0.2, 0.05}, {0.8, 0.3}} {
		x0 := []float64{logit(start[0]), logit(start[1] / start[0]), l0, b0}
		x, f, err := minimizeNM(objective, x0, 0.5)
		if err != nil {
			continue
		}
		if f < best {
			best, bestX = f, x
		}
	}
	if bestX == nil {
		return domsvc.Prediction{}, fmt.Errorf("holt: optimisation did not converge")
	}

	p := decodeHolt(bestX)
	_, level, slope := p.run(y)
	out := make([]float64, horizon)
	for i := range out {
		out[i] = (level + float64(i+1)*slope) * scale
	}
	return domsvc.Prediction{
		Values: out,
		Model:  fmt.Sprintf("Holt(alpha=%.3f, beta=%.3f)", p.alpha, p.beta),
	}, nil
}
