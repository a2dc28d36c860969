package models

import "time"

// ForecastStatus is the outcome of one forecast request.
type ForecastStatus string

const (
	StatusOK               ForecastStatus = "ok"
	StatusInsufficientData ForecastStatus = "insufficient_data"
	StatusFailed           ForecastStatus = "failed"
	StatusRejected         ForecastStatus = "rejected"
)

// ForecastEvent is the audit record published after each request. It carries
// no predicted values.
type ForecastEvent struct {
	ID           string         `json:"id"`
	ProductCode  string         `json:"product_code"`
	Backend      Backend        `json:"backend"`
	HorizonWeeks int            `json:"horizon_weeks"`
	HistoryWeeks int            `json:"history_weeks"`
	Status       ForecastStatus `json:"status"`
	Error        string         `json:"error,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	Timestamp    time.Time      `json:"timestamp"`
}
