package repository

import (
	"context"

	"DemandCast/internal/domain/models"
)

// TransactionSource loads raw POS rows from one location.
type TransactionSource interface {
	Location() string
	Load(ctx context.Context) ([]models.TransactionRecord, error)
}

// SourceResolver maps a location string (file path or URI) to a source.
type SourceResolver interface {
	Resolve(location string) (TransactionSource, error)
}

// EventPublisher emits forecast audit events.
type EventPublisher interface {
	PublishForecast(ctx context.Context, ev models.ForecastEvent) error
	Close() error
}

type Metrics interface {
	RecordRowsLoaded(source string, n int)
	RecordRowsDropped(reason string, n int)
	RecordForecast(backend string, status string, seconds float64)
	RecordExport(cacheHit bool)
	RecordError(kind string)
}
