package service

import (
	"context"

	"DemandCast/internal/domain/models"
)

// Forecaster is one forecasting backend. Implementations receive a series of
// at least models.MinHistoryWeeks points and must return exactly horizon
// predictions for the weeks following the series; dates are assigned by the
// caller.
type Forecaster interface {
	Backend() models.Backend
	Forecast(ctx context.Context, series models.WeeklySalesSeries, horizon int) (Prediction, error)
}

// Prediction is a backend's raw output.
type Prediction struct {
	Values []float64
	Model  string // human-readable description of the fitted model
}
