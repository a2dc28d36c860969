package forecast

import "math"

// kpssCritical5 is the 5% critical value of the KPSS level-stationarity test.
const kpssCritical5 = 0.463

// kpssLevel returns the KPSS statistic for level stationarity of y using a
// Bartlett-weighted long-run variance with trunc(3*sqrt(n)/13) lags.
// ok is false when the statistic is undefined (constant or too-short series).
func kpssLevel(y []float64) (stat float64, ok bool) {
	n := len(y)
	if n < 2 {
		return 0, false
	}
	m := mean(y)
	e := make([]float64, n)
	for i, v := range y {
		e[i] = v - m
	}

	var partial, eta float64
	for _, v := range e {
		partial += v
		eta += partial * partial
	}
	nf := float64(n)
	eta /= nf * nf

	lags := int(3 * math.Sqrt(nf) / 13)
	var s2 float64
	for _, v := range e {
		s2 += v * v
	}
	for l := 1; l <= lags && l < n; l++ {
		w := 1 - float64(l)/float64(lags+1)
		var acc float64
		for t := l; t < n; t++ {
			acc += e[t] * e[t-l]
		}
		s2 += 2 * w * acc
	}
	s2 /= nf
	if s2 <= 1e-12 {
		return 0, false
	}
	return eta / s2, true
}

// chooseDifferencing repeatedly differences y while the KPSS test rejects
// level stationarity, up to maxD times and never leaving fewer than
// MinHistoryWeeks points.
func chooseDifferencing(y []float64, maxD, minPoints int) int {
	d := 0
	w := y
	for d < maxD && len(w)-1 >= minPoints {
		stat, ok := kpssLevel(w)
		if !ok || stat <= kpssCritical5 {
			break
		}
		w = diff(w)
		d++
	}
	return d
}
