package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/service/ratelimit"
	"DemandCast/internal/services/export"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/usecase"
	xlogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForecaster struct {
	err    error
	params usecase.ForecastParams
}

func (f *fakeForecaster) Products() models.ProductRanking {
	return models.ProductRanking{{ProductCode: "85123A", TotalQuantity: 90}, {ProductCode: "22423", TotalQuantity: 40}}
}

func (f *fakeForecaster) Run(_ context.Context, p usecase.ForecastParams) (*usecase.ForecastOutcome, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	res := &models.ForecastResult{Backend: models.BackendTrendChangepoint, Points: []models.ForecastPoint{
		{WeekEnding: time.Date(2011, 1, 23, 0, 0, 0, 0, time.UTC), Predicted: 9.5},
	}}
	return &usecase.ForecastOutcome{ProductCode: p.ProductCode, Horizon: p.HorizonWeeks, Result: res}, nil
}

func (f *fakeForecaster) Export(ctx context.Context, p usecase.ForecastParams) (string, []byte, error) {
	out, err := f.Run(ctx, p)
	if err != nil {
		return "", nil, err
	}
	data, err := export.EncodeCSV(out.Result)
	return export.FileName(p.ProductCode), data, err
}

func newEcho(uc Forecaster, limiter *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	NewForecastEchoHandler(xlogger.Nop(), uc, limiter, RateLimit{Capacity: 2, RefillPerSec: 0.001}).RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProducts(t *testing.T) {
	e := newEcho(&fakeForecaster{}, nil)

	rec := get(e, "/api/products?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rows":[{"product_code":"85123A","total_quantity":90}],"total":1}`, string(decode(t, rec).Data))

	rec = get(e, "/api/products?limit=50")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_LTE")
}

func TestForecastDefaults(t *testing.T) {
	f := &fakeForecaster{}
	e := newEcho(f, nil)

	rec := get(e, "/api/forecast?product=85123A")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.ForecastParams{ProductCode: "85123A", HorizonWeeks: 15, Backend: "trend_changepoint"}, f.params)
	assert.Contains(t, string(decode(t, rec).Data), `"product_code":"85123A"`)
}

func TestForecastValidation(t *testing.T) {
	e := newEcho(&fakeForecaster{}, nil)
	for _, q := range []string{
		"/api/forecast",
		"/api/forecast?product=X&horizon=0",
		"/api/forecast?product=X&horizon=",
		"/api/forecast?product=X&horizon=16",
		"/api/forecast?product=X&horizon=-1",
		"/api/forecast?product=X&backend=lstm",
		"/api/forecast?product=X&horizon=abc",
	} {
		assert.Equal(t, http.StatusBadRequest, get(e, q).Code, q)
	}
	assert.Contains(t, get(e, "/api/forecast").Body.String(), `"field":"product"`)

	body := get(e, "/api/forecast?product=X&horizon=0").Body.String()
	assert.Contains(t, body, `"field":"horizon"`)
	assert.Contains(t, body, "ERR_GTE")

	body = get(e, "/api/forecast?product=X&backend=lstm").Body.String()
	assert.Contains(t, body, `"field":"backend"`)
	assert.Contains(t, body, `"holt"`)
}

func TestForecastExplicitHorizonAndAliases(t *testing.T) {
	f := &fakeForecaster{}
	e := newEcho(f, nil)

	for _, backend := range []string{"holt", "HOLT", "auto_arima", "trend", "Prophet", "exponential_smoothing"} {
		rec := get(e, "/api/forecast?product=85123A&horizon=4&backend="+backend)
		require.Equal(t, http.StatusOK, rec.Code, backend)
		assert.Equal(t, 4, f.params.HorizonWeeks)
		assert.Equal(t, backend, f.params.Backend)
	}
}

func TestForecastErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		tag  string
	}{
		{fmt.Errorf("%w: 0", models.ErrInvalidHorizon), http.StatusBadRequest, "ERR_INVALID_HORIZON"},
		{fmt.Errorf("%w: %q", models.ErrUnknownBackend, "x"), http.StatusBadRequest, "ERR_UNKNOWN_BACKEND"},
		{fmt.Errorf("%w: %q", models.ErrUnknownProduct, "X"), http.StatusNotFound, "ERR_UNKNOWN_PRODUCT"},
		{fmt.Errorf("%w: 2 weekly points", models.ErrInsufficientData), http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_DATA"},
		{models.NewForecastFailure(models.BackendAutoOrderAR, assert.AnError), http.StatusInternalServerError, "ERR_FORECAST_FAILED"},
		{fmt.Errorf("clean: %w", models.ErrEmptyDataset), http.StatusServiceUnavailable, "ERR_UNAVAILABLE"},
		{assert.AnError, http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			rec := get(newEcho(&fakeForecaster{err: tc.err}, nil), "/api/forecast?product=X")
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.tag)
		})
	}
}

func TestExport(t *testing.T) {
	e := newEcho(&fakeForecaster{}, nil)
	rec := get(e, "/api/forecast/export?product=85123A&horizon=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="85123A_forecast.csv"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "date,predictedQuantity\n2011-01-23,9.5\n", rec.Body.String())

	rec = get(newEcho(&fakeForecaster{err: models.ErrNothingToExport}, nil), "/api/forecast/export?product=85123A")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestForecastRateLimited(t *testing.T) {
	e := newEcho(&fakeForecaster{}, ratelimit.New())
	assert.Equal(t, http.StatusOK, get(e, "/api/forecast?product=A").Code)
	assert.Equal(t, http.StatusOK, get(e, "/api/forecast/export?product=A").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/api/forecast?product=A").Code)
	assert.Equal(t, http.StatusOK, get(e, "/api/products").Code, "listing is not limited")
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newEcho(&fakeForecaster{}, nil), "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(newEcho(nil, nil), "/healthz").Code)
}

func TestEndToEndWithRealEngine(t *testing.T) {
	var rows []models.TransactionRecord
	day := time.Date(2011, 1, 3, 9, 0, 0, 0, time.UTC)
	for w := 0; w < 12; w++ {
		ts := day.AddDate(0, 0, 7*w).Format("02/01/2006 15:04")
		rows = append(rows, models.TransactionRecord{ProductCode: "84879", Timestamp: ts, Quantity: int64(20 + 2*w), UnitPrice: decimal.NewFromInt(2)})
	}
	ds, err := usecase.NewDataset(rows, usecase.DatasetOptions{})
	require.NoError(t, err)
	uc := usecase.NewForecastUseCase(ds, forecast.NewDefaultEngine(), export.NewExporter())
	e := newEcho(uc, nil)

	for _, backend := range []string{"trend_changepoint", "auto_order_ar", "exponential_smoothing"} {
		rec := get(e, "/api/forecast/export?product=84879&horizon=3&backend="+backend)
		require.Equal(t, http.StatusOK, rec.Code, backend)
		records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 4, backend)
		assert.Equal(t, "2011-04-03", records[1][0], backend)
	}
}
