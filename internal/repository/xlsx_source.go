package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	applogger "DemandCast/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads transactions from the first worksheet whose first row
// carries the required header.
type XLSXSource struct {
	path    string
	l       *applogger.Logger
	metrics domrepo.Metrics
}

func NewXLSXSource(path string) *XLSXSource { return &XLSXSource{path: path} }

// SetLogger injects a structured logger.
func (s *XLSXSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *XLSXSource) SetMetrics(m domrepo.Metrics) { s.metrics = m }

func (s *XLSXSource) Location() string { return s.path }

func (s *XLSXSource) Load(ctx context.Context) ([]models.TransactionRecord, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmptySource, s.path, err)
	}
	defer func() { _ = f.Close() }()

	var (
		rows  [][]string
		idx   columnIndex
		lastE error
	)
	for _, name := range f.GetSheetList() {
		r, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil || len(r) == 0 {
			continue
		}
		if i, err := mapHeader(r[0]); err == nil {
			rows, idx = r, i
			break
		} else {
			lastE = err
		}
	}
	if idx == nil {
		if lastE == nil {
			lastE = fmt.Errorf("workbook has no data")
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmptySource, s.path, lastE)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.TransactionRecord, 0, len(rows)-1)
	skipped := 0
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rec, ok := idx.parseRow(row, s.path)
		if !ok {
			skipped++
			continue
		}
		rec.Timestamp = excelTimestamp(rec.Timestamp)
		out = append(out, rec)
	}

	reportSkipped(s.l, s.metrics, s.path, skipped)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s: no rows", models.ErrEmptySource, s.path)
	}
	return out, nil
}

// excelTimestamp turns a raw date serial into an ISO timestamp. Text cells
// are returned unchanged.
func excelTimestamp(raw string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t.Round(time.Second).Format("2006-01-02 15:04:05")
}
