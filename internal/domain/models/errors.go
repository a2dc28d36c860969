package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySource: a source yielded no rows or could not be parsed.
	ErrEmptySource = errors.New("empty source")
	// ErrEmptyDataset: nothing to clean.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInsufficientData: fewer than MinHistoryWeeks weekly points.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNothingToExport: empty forecast at export time.
	ErrNothingToExport = errors.New("nothing to export")

	ErrInvalidHorizon = errors.New("invalid horizon")
	ErrUnknownBackend = errors.New("unknown backend")
	ErrUnknownProduct = errors.New("unknown product")
)

// ForecastFailure reports a backend that could not fit or predict.
type ForecastFailure struct {
	Backend Backend
	Cause   error
}

func (e *ForecastFailure) Error() string {
	return fmt.Sprintf("forecast failed (%s): %v", e.Backend, e.Cause)
}

// Unwrap returns the backend error.
func (e *ForecastFailure) Unwrap() error { return e.Cause }

// NewForecastFailure wraps cause for backend.
func NewForecastFailure(b Backend, cause error) *ForecastFailure {
	return &ForecastFailure{Backend: b, Cause: cause}
}
