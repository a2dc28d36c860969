package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	applogger "DemandCast/pkg/logger"
)

// CSVSource reads transactions from a delimited text file with a header row.
type CSVSource struct {
	path    string
	l       *applogger.Logger
	metrics domrepo.Metrics
}

func NewCSVSource(path string) *CSVSource { return &CSVSource{path: path} }

// SetLogger injects a structured logger.
func (s *CSVSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CSVSource) SetMetrics(m domrepo.Metrics) { s.metrics = m }

func (s *CSVSource) Location() string { return s.path }

func (s *CSVSource) Load(ctx context.Context) ([]models.TransactionRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmptySource, s.path, err)
	}
	defer f.Close()
	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) ([]models.TransactionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %v", models.ErrEmptySource, s.path, err)
	}
	idx, err := mapHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmptySource, s.path, err)
	}

	out := make([]models.TransactionRecord, 0, 4096)
	skipped := 0
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("%w: %s: line %d: %v", models.ErrEmptySource, s.path, line, err)
		}
		rec, ok := idx.parseRow(row, s.path)
		if !ok {
			skipped++
			continue
		}
		out = append(out, rec)
	}

	reportSkipped(s.l, s.metrics, s.path, skipped)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s: no rows", models.ErrEmptySource, s.path)
	}
	return out, nil
}

func reportSkipped(l *applogger.Logger, m domrepo.Metrics, location string, n int) {
	if n == 0 {
		return
	}
	if l != nil {
		l.Warn("skipped rows with non-numeric quantity or price",
			applogger.String("source", location),
			applogger.Int("rows", n),
		)
	}
	if m != nil {
		m.RecordRowsDropped("unparseable", n)
	}
}
