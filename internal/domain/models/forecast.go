package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Backend selects the forecasting algorithm.
type Backend string

const (
	BackendTrendChangepoint     Backend = "trend_changepoint"
	BackendAutoOrderAR          Backend = "auto_order_ar"
	BackendExponentialSmoothing Backend = "exponential_smoothing"
)

// Horizon bounds, in weeks.
const (
	MinHorizonWeeks     = 1
	MaxHorizonWeeks     = 15
	DefaultHorizonWeeks = 15
)

// MinHistoryWeeks is the shortest weekly series any backend will fit.
const MinHistoryWeeks = 3

// Backends lists every backend in display order.
func Backends() []Backend {
	return []Backend{BackendTrendChangepoint, BackendAutoOrderAR, BackendExponentialSmoothing}
}

// backendAliases are the short names accepted besides the canonical ones.
var backendAliases = map[Backend][]string{
	BackendTrendChangepoint:     {"prophet", "trend"},
	BackendAutoOrderAR:          {"arima", "auto_arima"},
	BackendExponentialSmoothing: {"ets", "holt"},
}

// BackendNames lists every accepted backend name and alias, sorted.
func BackendNames() []string {
	var out []string
	for _, b := range Backends() {
		out = append(out, string(b))
		out = append(out, backendAliases[b]...)
	}
	sort.Strings(out)
	return out
}

// ParseBackend resolves a backend name or one of its short aliases,
// ignoring case and surrounding space.
func ParseBackend(s string) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, b := range Backends() {
		if name == string(b) {
			return b, nil
		}
		for _, alias := range backendAliases[b] {
			if name == alias {
				return b, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// ForecastRequest asks for HorizonWeeks future points of Series using Backend.
type ForecastRequest struct {
	Series       WeeklySalesSeries
	HorizonWeeks int
	Backend      Backend
}

// ForecastPoint is a predicted quantity for the week ending on WeekEnding.
type ForecastPoint struct {
	WeekEnding time.Time `json:"week_ending"`
	Predicted  float64   `json:"predicted_quantity"`
}

// ForecastResult belongs to the request that produced it; it is never cached
// or persisted.
type ForecastResult struct {
	ProductCode string          `json:"product_code"`
	Backend     Backend         `json:"backend"`
	Model       string          `json:"model"` // fitted model description, e.g. "ARIMA(1,1,0)"
	Points      []ForecastPoint `json:"points"`
}

// Len returns the number of forecast points.
func (r *ForecastResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Points)
}
