package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/domain/repository"
	"DemandCast/internal/service/cache"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// ContentType of the exported file.
const ContentType = "text/csv"

var header = []string{"date", "predictedQuantity"}

// FileName is the download name for a product's forecast.
func FileName(productCode string) string {
	return productCode + "_forecast.csv"
}

// Exporter serialises forecasts to CSV. Identical forecasts are served from
// the cache, keyed by a hash of their content.
type Exporter struct {
	cache   cache.BytesCache
	ttl     time.Duration
	metrics repository.Metrics
	l       *applogger.Logger
}

type Option func(*Exporter)

// WithCache memoises rendered files for ttl.
func WithCache(c cache.BytesCache, ttl time.Duration) Option {
	return func(e *Exporter) {
		e.cache = c
		e.ttl = ttl
	}
}

func WithMetrics(m repository.Metrics) Option { return func(e *Exporter) { e.metrics = m } }

func WithLogger(l *applogger.Logger) Option { return func(e *Exporter) { e.l = l } }

func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{cache: cache.Noop{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CSV renders result as `date,predictedQuantity` rows with ISO dates.
func (e *Exporter) CSV(ctx context.Context, result *models.ForecastResult) ([]byte, error) {
	if result.Len() == 0 {
		return nil, models.ErrNothingToExport
	}
	key := ContentKey(result)

	if b, ok, err := e.cache.GetBytes(ctx, key); err != nil {
		e.warn("export cache read failed", err)
	} else if ok {
		e.record(true)
		return b, nil
	}

	b, err := EncodeCSV(result)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetBytes(ctx, key, b, e.ttl); err != nil {
		e.warn("export cache write failed", err)
	}
	e.record(false)
	return b, nil
}

func (e *Exporter) record(hit bool) {
	if e.metrics != nil {
		e.metrics.RecordExport(hit)
	}
}

func (e *Exporter) warn(msg string, err error) {
	if e.l != nil {
		e.l.Warn(msg, applogger.Error(err))
	}
}

// EncodeCSV writes the forecast without consulting any cache. Floats use the
// shortest representation that parses back to the same value.
func EncodeCSV(result *models.ForecastResult) ([]byte, error) {
	if result.Len() == 0 {
		return nil, models.ErrNothingToExport
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range result.Points {
		row := []string{p.WeekEnding.Format(util.ISODate), strconv.FormatFloat(p.Predicted, 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses a file produced by EncodeCSV back into forecast points.
func DecodeCSV(b []byte) ([]models.ForecastPoint, error) {
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) != 2 || rows[0][0] != header[0] || rows[0][1] != header[1] {
		return nil, fmt.Errorf("unexpected csv header")
	}
	out := make([]models.ForecastPoint, 0, len(rows)-1)
	for i, r := range rows[1:] {
		d, err := time.Parse(util.ISODate, r[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(r[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, models.ForecastPoint{WeekEnding: d, Predicted: v})
	}
	return out, nil
}

// ContentKey hashes the (date, value) pairs of a forecast.
func ContentKey(result *models.ForecastResult) string {
	h := sha256.New()
	for _, p := range result.Points {
		fmt.Fprintf(h, "%s=%s;", p.WeekEnding.Format(util.ISODate), strconv.FormatFloat(p.Predicted, 'b', -1, 64))
	}
	return hex.EncodeToString(h.Sum(nil))
}
