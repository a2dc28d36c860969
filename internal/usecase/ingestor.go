package usecase

import (
	"context"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	applogger "DemandCast/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Ingestor loads every configured location and concatenates the rows in
// location order. Duplicate rows across or within sources are kept.
type Ingestor struct {
	resolver domrepo.SourceResolver
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewIngestor(resolver domrepo.SourceResolver, metrics domrepo.Metrics, l *applogger.Logger) *Ingestor {
	return &Ingestor{resolver: resolver, metrics: metrics, l: l}
}

func (in *Ingestor) Load(ctx context.Context, locations []string) ([]models.TransactionRecord, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: no source locations configured", models.ErrEmptySource)
	}

	sources := make([]domrepo.TransactionSource, len(locations))
	for i, loc := range locations {
		src, err := in.resolver.Resolve(loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrEmptySource, err)
		}
		sources[i] = src
	}

	parts := make([][]models.TransactionRecord, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			rows, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Location(), err)
			}
			if len(rows) == 0 {
				return fmt.Errorf("%w: %s: no rows", models.ErrEmptySource, src.Location())
			}
			parts[i] = rows
			if in.metrics != nil {
				in.metrics.RecordRowsLoaded(src.Location(), len(rows))
			}
			if in.l != nil {
				in.l.Info("source loaded",
					applogger.String("source", src.Location()),
					applogger.Int("rows", len(rows)),
					applogger.Duration("duration_ms", time.Since(start)),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if in.metrics != nil {
			in.metrics.RecordError("ingest")
		}
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]models.TransactionRecord, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
