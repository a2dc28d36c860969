package forecast

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

// Information criteria accepted by ARIMAConfig.Criterion.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// ARIMAConfig bounds the order search of the auto-order AR backend.
type ARIMAConfig struct {
	MaxP      int
	MaxQ      int
	MaxD      int
	MaxOrder  int // upper bound on p+q
	Criterion string
	Stepwise  bool
}

// DefaultARIMAConfig mirrors the usual auto-ARIMA defaults for a
// non-seasonal series.
func DefaultARIMAConfig() ARIMAConfig {
	return ARIMAConfig{MaxP: 5, MaxQ: 5, MaxD: 2, MaxOrder: 5, Criterion: CriterionAIC, Stepwise: true}
}

// AutoARIMA picks the differencing order with a KPSS test and the AR/MA
// orders by information criterion, then forecasts with the selected model.
type AutoARIMA struct {
	cfg ARIMAConfig
}

// NewAutoARIMA fills unset bounds from DefaultARIMAConfig.
func NewAutoARIMA(cfg ARIMAConfig) *AutoARIMA {
	def := DefaultARIMAConfig()
	if cfg.MaxP <= 0 {
		cfg.MaxP = def.MaxP
	}
	if cfg.MaxQ <= 0 {
		cfg.MaxQ = def.MaxQ
	}
	if cfg.MaxD <= 0 {
		cfg.MaxD = def.MaxD
	}
	if cfg.MaxOrder <= 0 {
		cfg.MaxOrder = def.MaxOrder
	}
	switch strings.ToLower(cfg.Criterion) {
	case CriterionAIC, CriterionAICc, CriterionBIC:
		cfg.Criterion = strings.ToLower(cfg.Criterion)
	default:
		cfg.Criterion = def.Criterion
	}
	return &AutoARIMA{cfg: cfg}
}

func (a *AutoARIMA) Backend() models.Backend { return models.BackendAutoOrderAR }

// arimaFit is one estimated candidate, in the scaled differenced space.
type arimaFit struct {
	p, q      int
	intercept bool
	phi       []float64
	theta     []float64
	mu        float64
	resid     []float64
	sigma2    float64
	score     float64
}

func (a *AutoARIMA) Forecast(ctx context.Context, series models.WeeklySalesSeries, horizon int) (domsvc.Prediction, error) {
	y := series.Values()
	if len(y) < models.MinHistoryWeeks {
		return domsvc.Prediction{}, models.ErrInsufficientData
	}

	d := chooseDifferencing(y, a.cfg.MaxD, models.MinHistoryWeeks)
	levels := make([][]float64, d+1)
	levels[0] = y
	for i := 1; i <= d; i++ {
		levels[i] = diff(levels[i-1])
	}
	w := levels[d]

	scale := stdDev(w)
	if scale <= 0 {
		scale = scaleOf(w)
	}
	ws := make([]float64, len(w))
	for i, v := range w {
		ws[i] = v / scale
	}
	intercept := d < 2

	best, err := a.search(ctx, ws, intercept)
	if err != nil {
		return domsvc.Prediction{}, err
	}

	fw := best.forecast(ws, horizon)
	for i := range fw {
		fw[i] *= scale
	}
	// undo differencing, innermost level first
	for k := d - 1; k >= 0; k-- {
		last := levels[k][len(levels[k])-1]
		for i := range fw {
			last += fw[i]
			fw[i] = last
		}
	}
	return domsvc.Prediction{Values: fw, Model: fmt.Sprintf("ARIMA(%d,%d,%d)", best.p, d, best.q)}, nil
}

func (a *AutoARIMA) search(ctx context.Context, w []float64, intercept bool) (*arimaFit, error) {
	visited := make(map[[2]int]*arimaFit)
	try := func(p, q int) *arimaFit {
		key := [2]int{p, q}
		if f, seen := visited[key]; seen {
			return f
		}
		var f *arimaFit
		if p <= a.cfg.MaxP && q <= a.cfg.MaxQ && p+q <= a.cfg.MaxOrder && p >= 0 && q >= 0 {
			f = a.fit(w, p, q, intercept)
		}
		visited[key] = f
		return f
	}
	better := func(f, than *arimaFit) bool {
		return f != nil && !math.IsInf(f.score, 1) && (than == nil || f.score < than.score)
	}

	var best *arimaFit
	if a.cfg.Stepwise {
		for _, o := range [][2]int{{2, 2}, {0, 0}, {1, 0}, {0, 1}} {
			if f := try(o[0], o[1]); better(f, best) {
				best = f
			}
		}
		for best != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			moved := false
			for _, dlt := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {1, 1}, {-1, 1}, {1, -1}} {
				if f := try(best.p+dlt[0], best.q+dlt[1]); better(f, best) {
					best, moved = f, true
					break
				}
			}
			if !moved {
				break
			}
		}
	} else {
		for p := 0; p <= a.cfg.MaxP; p++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for q := 0; q <= a.cfg.MaxQ; q++ {
				if f := try(p, q); better(f, best) {
					best = f
				}
			}
		}
	}

	if best == nil {
		// too few points for any criterion to be finite; fall back to the
		// mean (or drift) model
		best = a.fit(w, 0, 0, intercept)
		if best == nil {
			return nil, fmt.Errorf("arima: no model could be fitted to %d points", len(w))
		}
	}
	return best, nil
}

// fit estimates (p,q) by conditional sum of squares. It returns nil when the
// series is too short to leave at least one residual degree of freedom.
func (a *AutoARIMA) fit(w []float64, p, q int, intercept bool) *arimaFit {
	nCoef := p + q
	if intercept {
		nCoef++
	}
	nEff := len(w) - p
	if nEff < nCoef+2 {
		return nil
	}

	unpack := func(x []float64) (phi, theta []float64, mu float64) {
		phi, theta = x[:p], x[p:p+q]
		if intercept {
			mu = x[p+q]
		}
		return
	}
	objective := func(x []float64) float64 {
		phi, theta, mu := unpack(x)
		if !stableAR(phi) || !stableAR(negate(theta)) {
			return penalty
		}
		var sse float64
		for _, e := range cssResiduals(w, phi, theta, mu) {
			sse += e * e
		}
		return sse
	}

	x0 := make([]float64, nCoef)
	if intercept {
		x0[nCoef-1] = mean(w)
	}
	x := x0
	if nCoef > 0 {
		var err error
		x, _, err = minimizeNM(objective, x0, 0.1)
		if err != nil {
			return nil
		}
	}

	phi, theta, mu := unpack(x)
	f := &arimaFit{
		p: p, q: q, intercept: intercept,
		phi:   append([]float64(nil), phi...),
		theta: append([]float64(nil), theta...),
		mu:    mu,
		resid: cssResiduals(w, phi, theta, mu),
	}
	var sse float64
	for _, e := range f.resid[p:] {
		sse += e * e
	}
	f.sigma2 = math.Max(sse/float64(nEff), 1e-10)
	f.score = a.criterion(f.sigma2, nEff, nCoef+1)
	return f
}

func (a *AutoARIMA) criterion(sigma2 float64, n, k int) float64 {
	nf, kf := float64(n), float64(k)
	loglik := -0.5 * nf * (math.Log(2*math.Pi*sigma2) + 1)
	aic := -2*loglik + 2*kf
	switch a.cfg.Criterion {
	case CriterionAICc:
		if n-k-1 <= 0 {
			return math.Inf(1)
		}
		return aic + 2*kf*(kf+1)/(nf-kf-1)
	case CriterionBIC:
		return -2*loglik + kf*math.Log(nf)
	default:
		return aic
	}
}

// cssResiduals returns one-step errors; the first p entries are zero.
func cssResiduals(w, phi, theta []float64, mu float64) []float64 {
	p := len(phi)
	e := make([]float64, len(w))
	for t := p; t < len(w); t++ {
		pred := mu
		for i, c := range phi {
			pred += c * (w[t-1-i] - mu)
		}
		for j, c := range theta {
			if t-1-j >= p {
				pred += c * e[t-1-j]
			}
		}
		e[t] = w[t] - pred
	}
	return e
}

func (f *arimaFit) forecast(w []float64, horizon int) []float64 {
	n := len(w)
	hist := append(append([]float64(nil), w...), make([]float64, horizon)...)
	errs := append(append([]float64(nil), f.resid...), make([]float64, horizon)...)
	for h := 0; h < horizon; h++ {
		t := n + h
		pred := f.mu
		for i, c := range f.phi {
			if t-1-i >= 0 {
				pred += c * (hist[t-1-i] - f.mu)
			}
		}
		for j, c := range f.theta {
			if t-1-j >= 0 {
				pred += c * errs[t-1-j]
			}
		}
		hist[t] = pred
	}
	return hist[n:]
}

// stableAR reports whether all roots of 1 - c1 z - ... - ck z^k lie outside
// the unit circle, via the eigenvalues of the companion matrix.
func stableAR(c []float64) bool {
	k := len(c)
	switch k {
	case 0:
		return true
	case 1:
		return math.Abs(c[0]) < 1
	}
	comp := mat.NewDense(k, k, nil)
	for j, v := range c {
		comp.Set(0, j, v)
	}
	for i := 1; i < k; i++ {
		comp.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1-1e-8 {
			return false
		}
	}
	return true
}

func negate(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = -v
	}
	return out
}
