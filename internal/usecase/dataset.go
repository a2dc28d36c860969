package usecase

import (
	"context"
	"fmt"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/services/sales"
	applogger "DemandCast/pkg/logger"
)

// DatasetOptions controls how the cleaned dataset is summarised.
type DatasetOptions struct {
	RankLimit    int
	ZeroFillGaps bool
}

// Dataset is the cleaned transaction table plus its product ranking. It is
// built once and never mutated; accessors hand out copies.
type Dataset struct {
	rows      []models.CleanedTransaction
	byProduct map[string][]models.CleanedTransaction
	ranking   models.ProductRanking
	report    sales.CleanReport
	weekly    sales.WeeklyOptions
}

// BuildDataset ingests locations and cleans the result.
func BuildDataset(ctx context.Context, in *Ingestor, locations []string, opts DatasetOptions, metrics domrepo.Metrics, l *applogger.Logger) (*Dataset, error) {
	raw, err := in.Load(ctx, locations)
	if err != nil {
		return nil, err
	}
	ds, err := NewDataset(raw, opts)
	if err != nil {
		return nil, err
	}

	r := ds.report
	if metrics != nil {
		metrics.RecordRowsDropped("negative_quantity", r.DroppedNegative)
		metrics.RecordRowsDropped("bad_date", r.DroppedBadDate)
	}
	if l != nil {
		l.Info("dataset ready",
			applogger.Int("raw_rows", r.Input),
			applogger.Int("clean_rows", len(r.Rows)),
			applogger.Int("dropped_negative", r.DroppedNegative),
			applogger.Int("dropped_bad_date", r.DroppedBadDate),
			applogger.Int("products", len(ds.byProduct)),
			applogger.Strings("top_products", ds.ranking.Codes()),
		)
	}
	return ds, nil
}

// NewDataset cleans raw rows and indexes them by product.
func NewDataset(raw []models.TransactionRecord, opts DatasetOptions) (*Dataset, error) {
	report, err := sales.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	return &Dataset{
		rows:      report.Rows,
		byProduct: sales.GroupByProduct(report.Rows),
		ranking:   sales.RankProducts(report.Rows, opts.RankLimit),
		report:    report,
		weekly:    sales.WeeklyOptions{ZeroFillGaps: opts.ZeroFillGaps},
	}, nil
}

// Len is the number of cleaned rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Report returns the cleaning counters without the rows.
func (d *Dataset) Report() sales.CleanReport {
	r := d.report
	r.Rows = nil
	return r
}

func (d *Dataset) Ranking() models.ProductRanking {
	return append(models.ProductRanking(nil), d.ranking...)
}

func (d *Dataset) HasProduct(code string) bool {
	_, ok := d.byProduct[code]
	return ok
}

// ProductRows returns the number of cleaned rows for code.
func (d *Dataset) ProductRows(code string) int { return len(d.byProduct[code]) }

// Series aggregates code into its weekly series. Unknown codes yield an
// empty series.
func (d *Dataset) Series(code string) models.WeeklySalesSeries {
	return sales.WeeklySeries(d.byProduct[code], code, d.weekly)
}
