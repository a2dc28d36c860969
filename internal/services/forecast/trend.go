package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

// TrendConfig controls the changepoint grid and the sparsity prior.
type TrendConfig struct {
	ChangepointRange float64 // share of history eligible for changepoints
	MaxChangepoints  int
	PriorScale       float64 // Laplace scale on rate changes
}

func DefaultTrendConfig() TrendConfig {
	return TrendConfig{ChangepointRange: 0.8, MaxChangepoints: 25, PriorScale: 0.05}
}

// TrendChangepoint fits a piecewise-linear trend whose slope may change at
// evenly spaced changepoints. Rate changes carry a Laplace prior, which makes
// the MAP fit an L1-penalised least squares problem.
type TrendChangepoint struct {
	cfg TrendConfig
}

func NewTrendChangepoint(cfg TrendConfig) *TrendChangepoint {
	def := DefaultTrendConfig()
	if cfg.ChangepointRange <= 0 || cfg.ChangepointRange > 1 {
		cfg.ChangepointRange = def.ChangepointRange
	}
	if cfg.MaxChangepoints < 0 {
		cfg.MaxChangepoints = def.MaxChangepoints
	}
	if cfg.PriorScale <= 0 {
		cfg.PriorScale = def.PriorScale
	}
	return &TrendChangepoint{cfg: cfg}
}

func (tc *TrendChangepoint) Backend() models.Backend { return models.BackendTrendChangepoint }

// trendModel is a fitted trend in scaled units.
type trendModel struct {
	start  time.Time
	span   time.Duration
	cps    []float64 // changepoint locations on the scaled time axis
	k, m   float64
	deltas []float64
	scale  float64
}

func (tm *trendModel) at(d time.Time) float64 {
	t := float64(d.Sub(tm.start)) / float64(tm.span)
	v := tm.m + tm.k*t
	for j, s := range tm.cps {
		if t > s {
			v += tm.deltas[j] * (t - s)
		}
	}
	return v * tm.scale
}

func (tm *trendModel) active() int {
	n := 0
	for _, d := range tm.deltas {
		if d != 0 {
			n++
		}
	}
	return n
}

func (tc *TrendChangepoint) Forecast(ctx context.Context, series models.WeeklySalesSeries, horizon int) (domsvc.Prediction, error) {
	if series.Len() < models.MinHistoryWeeks {
		return domsvc.Prediction{}, models.ErrInsufficientData
	}
	tm, err := tc.fit(ctx, series)
	if err != nil {
		return domsvc.Prediction{}, err
	}

	// evaluate over history and future, keep the trailing horizon
	dates := append(series.Dates(), futureWeeks(series.LastDate(), horizon)...)
	all := make([]float64, len(dates))
	for i, d := range dates {
		all[i] = tm.at(d)
	}
	return domsvc.Prediction{
		Values: all[len(all)-horizon:],
		Model:  fmt.Sprintf("PiecewiseLinear(changepoints=%d, active=%d)", len(tm.cps), tm.active()),
	}, nil
}

func futureWeeks(last time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = last.AddDate(0, 0, 7*(i+1))
	}
	return out
}

func (tc *TrendChangepoint) fit(ctx context.Context, series models.WeeklySalesSeries) (*trendModel, error) {
	dates := series.Dates()
	raw := series.Values()
	n := len(raw)

	tm := &trendModel{start: dates[0], span: dates[n-1].Sub(dates[0]), scale: scaleOf(raw)}
	if tm.span <= 0 {
		return nil, fmt.Errorf("trend: series spans no time")
	}
	t := make([]float64, n)
	y := make([]float64, n)
	for i := range raw {
		t[i] = float64(dates[i].Sub(tm.start)) / float64(tm.span)
		y[i] = raw[i] / tm.scale
	}
	for _, idx := range changepointIndexes(n, tc.cfg.ChangepointRange, tc.cfg.MaxChangepoints) {
		tm.cps = append(tm.cps, t[idx])
	}

	// ordinary least squares on [1, t] seeds k, m and the noise level
	X := mat.NewDense(n, 2, nil)
	for i := range t {
		X.Set(i, 0, 1)
		X.Set(i, 1, t[i])
	}
	var beta mat.VecDense
	if err := beta.SolveVec(X, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("trend: ols: %w", err)
	}
	tm.m, tm.k = beta.AtVec(0), beta.AtVec(1)

	var rss float64
	for i := range y {
		r := y[i] - tm.m - tm.k*t[i]
		rss += r * r
	}
	if len(tm.cps) == 0 {
		return tm, nil
	}

	// sigma is profiled out by alternating the penalised fit with
	// sigma2 = RSS/n, started once from the OLS noise and once from the
	// floor; the lower posterior wins.
	ols := *tm
	var best *trendModel
	bestScore := math.Inf(1)
	for _, sigma2 := range []float64{math.Max(rss/float64(n), sigmaFloor), sigmaFloor} {
		cand := ols
		cand.deltas = make([]float64, len(tm.cps))
		score, err := tc.profile(ctx, &cand, t, y, sigma2)
		if err != nil {
			return nil, err
		}
		if score < bestScore {
			best, bestScore = &cand, score
		}
	}
	return best, nil
}

// sigmaFloor bounds the noise variance of the scaled series.
const sigmaFloor = 1e-4

// profile returns the negative log posterior with sigma profiled out.
func (tc *TrendChangepoint) profile(ctx context.Context, tm *trendModel, t, y []float64, sigma2 float64) (float64, error) {
	n := float64(len(y))
	for iter := 0; iter < 25; iter++ {
		rss, err := tc.coordinateDescent(ctx, tm, t, y, sigma2)
		if err != nil {
			return 0, err
		}
		next := math.Max(rss/n, sigmaFloor)
		converged := math.Abs(next-sigma2) <= 1e-6*sigma2
		sigma2 = next
		if converged {
			break
		}
	}
	var l1 float64
	for _, d := range tm.deltas {
		l1 += math.Abs(d)
	}
	return n/2*math.Log(sigma2) + l1/tc.cfg.PriorScale + (tm.k*tm.k+tm.m*tm.m)/50, nil
}

// coordinateDescent minimises
//
//	1/2 ||y - m - k t - A delta||^2 + lambda |delta|_1 + rho/2 (k^2 + m^2)
//
// with lambda = sigma2/priorScale and rho = sigma2/25 (normal prior of scale 5
// on k and m).
func (tc *TrendChangepoint) coordinateDescent(ctx context.Context, tm *trendModel, t, y []float64, sigma2 float64) (float64, error) {
	n, p := len(t), len(tm.cps)
	lambda := sigma2 / tc.cfg.PriorScale
	rho := sigma2 / 25

	cols := make([][]float64, p)
	norms := make([]float64, p)
	for j, s := range tm.cps {
		cols[j] = make([]float64, n)
		for i, ti := range t {
			if ti > s {
				cols[j][i] = ti - s
				norms[j] += cols[j][i] * cols[j][i]
			}
		}
	}
	var tt float64
	for _, ti := range t {
		tt += ti * ti
	}

	r := make([]float64, n)
	for i := range r {
		r[i] = y[i] - tm.m - tm.k*t[i]
		for j := range cols {
			r[i] -= tm.deltas[j] * cols[j][i]
		}
	}

	const maxSweeps = 5000
	for sweep := 0; sweep < maxSweeps; sweep++ {
		if sweep%100 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		var maxStep float64

		// intercept
		var z float64
		for i := range r {
			z += r[i] + tm.m
		}
		next := z / (float64(n) + rho)
		maxStep = math.Max(maxStep, math.Abs(next-tm.m))
		for i := range r {
			r[i] -= next - tm.m
		}
		tm.m = next

		// base rate
		z = 0
		for i := range r {
			z += t[i] * (r[i] + tm.k*t[i])
		}
		next = z / (tt + rho)
		maxStep = math.Max(maxStep, math.Abs(next-tm.k))
		for i := range r {
			r[i] -= (next - tm.k) * t[i]
		}
		tm.k = next

		// rate changes
		for j := range cols {
			if norms[j] == 0 {
				continue
			}
			z = 0
			for i, c := range cols[j] {
				z += c * (r[i] + c*tm.deltas[j])
			}
			next = softThreshold(z, lambda) / norms[j]
			if step := next - tm.deltas[j]; step != 0 {
				for i, c := range cols[j] {
					r[i] -= step * c
				}
				maxStep = math.Max(maxStep, math.Abs(step))
			}
			tm.deltas[j] = next
		}

		if maxStep < 1e-9 {
			break
		}
	}
	var rss float64
	for _, v := range r {
		rss += v * v
	}
	return rss, nil
}

func softThreshold(z, lambda float64) float64 {
	switch {
	case z > lambda:
		return z - lambda
	case z < -lambda:
		return z + lambda
	default:
		return 0
	}
}

// changepointIndexes spreads up to maxCps changepoints evenly over the first
// cpRange share of n points, excluding the first point.
func changepointIndexes(n int, cpRange float64, maxCps int) []int {
	hist := int(math.Floor(float64(n) * cpRange))
	k := hist - 1
	if maxCps < k {
		k = maxCps
	}
	if k <= 0 {
		return nil
	}
	out := make([]int, 0, k)
	step := float64(hist-1) / float64(k)
	for i := 1; i <= k; i++ {
		out = append(out, int(math.RoundToEven(float64(i)*step)))
	}
	return out
}
