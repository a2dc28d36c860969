package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// penalty replaces non-finite objective values so the simplex can move away
// from infeasible regions.
const penalty = 1e100

// minimizeNM runs Nelder-Mead from x0. Hitting the iteration or evaluation
// budget is not an error: the best vertex found is returned.
func minimizeNM(f func(x []float64) float64, x0 []float64, simplex float64) ([]float64, float64, error) {
	if len(x0) == 0 {
		return nil, f(nil), nil
	}
	p := optimize.Problem{
		Func: func(x []float64) float64 {
			v := f(x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return penalty
			}
			return v
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 4000,
		FuncEvaluations: 20000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-10,
			Iterations: 200,
		},
	}
	res, err := optimize.Minimize(p, x0, settings, &optimize.NelderMead{SimplexSize: simplex})
	if res == nil {
		return nil, 0, fmt.Errorf("nelder-mead: %w", err)
	}
	if err != nil && !budgetExhausted(res.Status) {
		return nil, 0, fmt.Errorf("nelder-mead: %w", err)
	}
	if res.F >= penalty || math.IsNaN(res.F) {
		return nil, 0, errors.New("nelder-mead: no feasible point found")
	}
	return res.X, res.F, nil
}

func budgetExhausted(s optimize.Status) bool {
	switch s {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return true
	default:
		return false
	}
}

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		m = math.Max(m, math.Abs(x))
	}
	return m
}

// scaleOf picks a positive divisor that brings xs to unit order.
func scaleOf(xs []float64) float64 {
	if s := maxAbs(xs); s > 0 {
		return s
	}
	return 1
}

func diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}
