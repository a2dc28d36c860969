package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// Engine dispatches forecast requests to the registered backend. It holds no
// per-request state and is safe for concurrent use once built.
type Engine struct {
	backends map[models.Backend]domsvc.Forecaster
	l        *applogger.Logger
}

// NewEngine registers the given backends. A later backend replaces an earlier
// one for the same models.Backend.
func NewEngine(fs ...domsvc.Forecaster) *Engine {
	e := &Engine{backends: make(map[models.Backend]domsvc.Forecaster, len(fs))}
	for _, f := range fs {
		e.backends[f.Backend()] = f
	}
	return e
}

// NewDefaultEngine builds an engine with the three native backends.
func NewDefaultEngine() *Engine {
	return NewEngine(NewTrendChangepoint(DefaultTrendConfig()), NewAutoARIMA(DefaultARIMAConfig()), NewHolt())
}

// SetLogger injects a structured logger.
func (e *Engine) SetLogger(l *applogger.Logger) { e.l = l }

// Supports reports whether b has a registered backend.
func (e *Engine) Supports(b models.Backend) bool {
	_, ok := e.backends[b]
	return ok
}

// Forecast validates the request, fits the selected backend and returns
// HorizonWeeks points dated on the Sundays following the last historical
// week. Backend errors and panics come back as *models.ForecastFailure.
func (e *Engine) Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	if req.HorizonWeeks < models.MinHorizonWeeks || req.HorizonWeeks > models.MaxHorizonWeeks {
		return nil, fmt.Errorf("%w: %d not in [%d,%d]", models.ErrInvalidHorizon,
			req.HorizonWeeks, models.MinHorizonWeeks, models.MaxHorizonWeeks)
	}
	f, ok := e.backends[req.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBackend, req.Backend)
	}
	switch n := req.Series.Len(); {
	case n == 0:
		return nil, fmt.Errorf("%w: weekly sales series is empty", models.ErrInsufficientData)
	case n < models.MinHistoryWeeks:
		return nil, fmt.Errorf("%w: %d weekly points, need at least %d",
			models.ErrInsufficientData, n, models.MinHistoryWeeks)
	}

	// backends get their own copy of the points
	series := models.WeeklySalesSeries{
		ProductCode: req.Series.ProductCode,
		Points:      append([]models.WeeklyPoint(nil), req.Series.Points...),
	}

	start := time.Now()
	pred, err := fit(ctx, f, series, req.HorizonWeeks)
	if err == nil {
		err = checkPrediction(pred, req.HorizonWeeks)
	}
	if err != nil {
		if e.l != nil {
			e.l.Warn("forecast backend failed",
				applogger.String("backend", string(req.Backend)),
				applogger.String("product", series.ProductCode),
				applogger.Error(err),
			)
		}
		return nil, models.NewForecastFailure(req.Backend, err)
	}

	dates := util.WeeklyRange(series.LastDate().AddDate(0, 0, 1), req.HorizonWeeks)
	res := &models.ForecastResult{
		ProductCode: series.ProductCode,
		Backend:     req.Backend,
		Model:       pred.Model,
		Points:      make([]models.ForecastPoint, req.HorizonWeeks),
	}
	for i, d := range dates {
		res.Points[i] = models.ForecastPoint{WeekEnding: d, Predicted: math.Max(0, pred.Values[i])}
	}

	if e.l != nil {
		e.l.Debug("forecast fitted",
			applogger.String("backend", string(req.Backend)),
			applogger.String("product", series.ProductCode),
			applogger.String("model", pred.Model),
			applogger.Int("history_weeks", series.Len()),
			applogger.Int("horizon", req.HorizonWeeks),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return res, nil
}

func fit(ctx context.Context, f domsvc.Forecaster, s models.WeeklySalesSeries, horizon int) (pred domsvc.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return f.Forecast(ctx, s, horizon)
}

func checkPrediction(p domsvc.Prediction, horizon int) error {
	if len(p.Values) != horizon {
		return fmt.Errorf("backend returned %d values, want %d", len(p.Values), horizon)
	}
	for i, v := range p.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite prediction at step %d", i+1)
		}
	}
	return nil
}
