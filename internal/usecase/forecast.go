package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/export"
	"DemandCast/internal/services/forecast"
	applogger "DemandCast/pkg/logger"

	"github.com/google/uuid"
)

// ForecastUseCase runs one selection (product, horizon, backend) through
// aggregation, forecasting and alignment.
type ForecastUseCase struct {
	dataset          *Dataset
	engine           *forecast.Engine
	exporter         *export.Exporter
	events           domrepo.EventPublisher
	metrics          domrepo.Metrics
	l                *applogger.Logger
	restrictToRanked bool
	now              func() time.Time
}

type ForecastOption func(*ForecastUseCase)

// RestrictToRanked limits forecasting to the ranked top products.
func RestrictToRanked(on bool) ForecastOption {
	return func(uc *ForecastUseCase) { uc.restrictToRanked = on }
}

func WithEventPublisher(p domrepo.EventPublisher) ForecastOption {
	return func(uc *ForecastUseCase) { uc.events = p }
}

func WithForecastMetrics(m domrepo.Metrics) ForecastOption {
	return func(uc *ForecastUseCase) { uc.metrics = m }
}

func WithForecastLogger(l *applogger.Logger) ForecastOption {
	return func(uc *ForecastUseCase) { uc.l = l }
}

func NewForecastUseCase(ds *Dataset, engine *forecast.Engine, exporter *export.Exporter, opts ...ForecastOption) *ForecastUseCase {
	uc := &ForecastUseCase{
		dataset:  ds,
		engine:   engine,
		exporter: exporter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type ForecastParams struct {
	ProductCode  string
	HorizonWeeks int    // must be within [MinHorizonWeeks, MaxHorizonWeeks]
	Backend      string // name or alias; empty selects the trend backend
}

// Diagnostics describes the data a forecast was fitted on.
type Diagnostics struct {
	ProductRows   int    `json:"product_rows"`
	HistoryWeeks  int    `json:"history_weeks"`
	TotalQuantity int64  `json:"total_quantity"`
	Model         string `json:"model"`
	DurationMS    int64  `json:"duration_ms"`
}

type ForecastOutcome struct {
	ProductCode string                   `json:"product_code"`
	Backend     models.Backend           `json:"backend"`
	Horizon     int                      `json:"horizon_weeks"`
	Series      models.WeeklySalesSeries `json:"series"`
	Result      *models.ForecastResult   `json:"forecast"`
	View        models.AlignedView       `json:"view"`
	Diagnostics Diagnostics              `json:"diagnostics"`
}

// Products returns the ranked top products.
func (uc *ForecastUseCase) Products() models.ProductRanking {
	return uc.dataset.Ranking()
}

func (uc *ForecastUseCase) Run(ctx context.Context, p ForecastParams) (*ForecastOutcome, error) {
	start := uc.now()
	code := strings.TrimSpace(p.ProductCode)
	horizon := p.HorizonWeeks
	backendName := p.Backend
	if backendName == "" {
		backendName = string(models.BackendTrendChangepoint)
	}

	ev := models.ForecastEvent{
		ID:           uuid.NewString(),
		ProductCode:  code,
		Backend:      models.Backend(backendName),
		HorizonWeeks: horizon,
	}

	out, err := uc.run(ctx, code, horizon, backendName, &ev)
	ev.DurationMS = uc.now().Sub(start).Milliseconds()
	ev.Timestamp = uc.now()
	ev.Status = statusOf(err)
	if err != nil {
		ev.Error = err.Error()
	}
	uc.finish(ctx, ev)
	if err != nil {
		return nil, err
	}
	out.Diagnostics.DurationMS = ev.DurationMS
	return out, nil
}

func (uc *ForecastUseCase) run(ctx context.Context, code string, horizon int, backendName string, ev *models.ForecastEvent) (*ForecastOutcome, error) {
	backend, err := models.ParseBackend(backendName)
	if err != nil {
		return nil, err
	}
	ev.Backend = backend

	if code == "" || !uc.dataset.HasProduct(code) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownProduct, code)
	}
	if uc.restrictToRanked && !uc.dataset.ranking.Contains(code) {
		return nil, fmt.Errorf("%w: %q is not among the top products", models.ErrUnknownProduct, code)
	}

	series := uc.dataset.Series(code)
	ev.HistoryWeeks = series.Len()

	res, err := uc.engine.Forecast(ctx, models.ForecastRequest{Series: series, HorizonWeeks: horizon, Backend: backend})
	if err != nil {
		return nil, err
	}

	var total float64
	for _, pt := range series.Points {
		total += pt.Quantity
	}
	return &ForecastOutcome{
		ProductCode: code,
		Backend:     backend,
		Horizon:     horizon,
		Series:      series,
		Result:      res,
		View:        export.Align(series, res),
		Diagnostics: Diagnostics{
			ProductRows:   uc.dataset.ProductRows(code),
			HistoryWeeks:  series.Len(),
			TotalQuantity: int64(total),
			Model:         res.Model,
		},
	}, nil
}

func statusOf(err error) models.ForecastStatus {
	var ff *models.ForecastFailure
	switch {
	case err == nil:
		return models.StatusOK
	case errors.Is(err, models.ErrInsufficientData):
		return models.StatusInsufficientData
	case errors.As(err, &ff):
		return models.StatusFailed
	default:
		return models.StatusRejected
	}
}

func (uc *ForecastUseCase) finish(ctx context.Context, ev models.ForecastEvent) {
	if uc.metrics != nil {
		uc.metrics.RecordForecast(string(ev.Backend), string(ev.Status), float64(ev.DurationMS)/1000)
	}
	if uc.l != nil {
		fields := []applogger.Field{
			applogger.String("id", ev.ID),
			applogger.String("product", ev.ProductCode),
			applogger.String("backend", string(ev.Backend)),
			applogger.Int("horizon", ev.HorizonWeeks),
			applogger.Int("history_weeks", ev.HistoryWeeks),
			applogger.String("status", string(ev.Status)),
			applogger.Int64("duration_ms", ev.DurationMS),
		}
		if ev.Status == models.StatusFailed {
			uc.l.Error("forecast failed", append(fields, applogger.String("cause", ev.Error))...)
		} else {
			uc.l.Info("forecast request", fields...)
		}
	}
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishForecast(ctx, ev); err != nil && uc.l != nil {
		uc.l.Warn("publish forecast event failed", applogger.String("id", ev.ID), applogger.Error(err))
	}
}

// Export runs the selection and renders the forecast as CSV.
func (uc *ForecastUseCase) Export(ctx context.Context, p ForecastParams) (filename string, data []byte, err error) {
	out, err := uc.Run(ctx, p)
	if err != nil {
		return "", nil, err
	}
	data, err = uc.exporter.CSV(ctx, out.Result)
	if err != nil {
		if errors.Is(err, models.ErrNothingToExport) && uc.l != nil {
			uc.l.Warn("nothing to export", applogger.String("product", out.ProductCode))
		}
		return "", nil, err
	}
	return export.FileName(out.ProductCode), data, nil
}
