package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domsvc "DemandCast/internal/domain/service"
	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	applogger "DemandCast/pkg/logger"
)

// HTTPServiceBase holds the client and base URL shared by remote model services.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
	retries int
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from config.
func NewHTTPServiceBase(cfg *config.Config) *HTTPServiceBase {
	timeout := cfg.Analytics.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: cfg.Analytics.TrendServiceURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		retries: cfg.Analytics.Retries,
	}
}

// Enabled reports whether a service URL is configured.
func (b *HTTPServiceBase) Enabled() bool { return b != nil && b.baseURL != "" }

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("model service http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// PostJSONWithRetry posts JSON with up to `attempts` tries for transient errors.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.PostJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.PostJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return err
		}
		if i == attempts {
			break
		}
		// simple backoff
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// RemoteTrend asks a Prophet sidecar for the trend forecast and falls back
// to the local model when the sidecar is unset, unreachable or returns a
// malformed answer.
type RemoteTrend struct {
	base     *HTTPServiceBase
	fallback domsvc.Forecaster
	l        *applogger.Logger
}

func NewRemoteTrend(base *HTTPServiceBase, fallback domsvc.Forecaster, l *applogger.Logger) *RemoteTrend {
	return &RemoteTrend{base: base, fallback: fallback, l: l}
}

func (r *RemoteTrend) Backend() models.Backend { return models.BackendTrendChangepoint }

type trendReq struct {
	ProductCode string    `json:"product_code"`
	Dates       []string  `json:"ds"`
	Values      []float64 `json:"y"`
	Periods     int       `json:"periods"`
	Freq        string    `json:"freq"`
}

type trendResp struct {
	Yhat  []float64 `json:"yhat"`
	Model string    `json:"model"`
}

func (r *RemoteTrend) Forecast(ctx context.Context, series models.WeeklySalesSeries, horizon int) (domsvc.Prediction, error) {
	if !r.base.Enabled() {
		return r.fallback.Forecast(ctx, series, horizon)
	}

	req := trendReq{ProductCode: series.ProductCode, Periods: horizon, Freq: "W-SUN", Values: series.Values()}
	for _, d := range series.Dates() {
		req.Dates = append(req.Dates, d.Format("2006-01-02"))
	}
	var resp trendResp
	err := r.base.PostJSONWithRetry(ctx, "/trend/forecast", req, &resp, r.base.retries+1)
	if err == nil && len(resp.Yhat) != horizon {
		err = fmt.Errorf("sidecar returned %d values, want %d", len(resp.Yhat), horizon)
	}
	if err != nil {
		if r.l != nil {
			r.l.Warn("trend sidecar unavailable, using local model",
				applogger.String("product", series.ProductCode),
				applogger.Error(err),
			)
		}
		return r.fallback.Forecast(ctx, series, horizon)
	}

	model := resp.Model
	if model == "" {
		model = "Prophet(remote)"
	}
	return domsvc.Prediction{Values: resp.Yhat, Model: model}, nil
}

var _ domsvc.Forecaster = (*RemoteTrend)(nil)
