package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// ClickHouseScheme prefixes locations served by CHTransactionSource.
const ClickHouseScheme = "clickhouse://"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHTransactionSource reads POS rows from a ClickHouse table with columns
// stock_code, invoice_date, quantity and price.
type CHTransactionSource struct {
	db       *sql.DB
	location string
	table    string
	l        *applogger.Logger
	metrics  domrepo.Metrics
}

// NewCHTransactionSource binds location (clickhouse://db.table or
// clickhouse://table) to the client's pool.
func NewCHTransactionSource(ch *pkgch.Client, location string) (*CHTransactionSource, error) {
	table, err := parseCHLocation(location)
	if err != nil {
		return nil, err
	}
	return &CHTransactionSource{db: ch.DB(), location: location, table: table}, nil
}

// SetLogger injects a structured logger.
func (s *CHTransactionSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHTransactionSource) SetMetrics(m domrepo.Metrics) { s.metrics = m }

func (s *CHTransactionSource) Location() string { return s.location }

func parseCHLocation(location string) (string, error) {
	rest := strings.TrimPrefix(location, ClickHouseScheme)
	if rest == location || rest == "" {
		return "", fmt.Errorf("invalid clickhouse location %q", location)
	}
	parts := strings.Split(rest, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("invalid clickhouse location %q", location)
	}
	for _, p := range parts {
		if !identRe.MatchString(p) {
			return "", fmt.Errorf("invalid clickhouse identifier %q", p)
		}
	}
	return strings.Join(parts, "."), nil
}

func transactionsQuery(table string) string {
	const qtpl = `
        SELECT toString(stock_code), formatDateTime(invoice_date, '%%Y-%%m-%%d %%H:%%i:%%S'),
               toString(quantity), toString(price)
        FROM %s
        ORDER BY invoice_date ASC
    `
	return fmt.Sprintf(qtpl, table)
}

func (s *CHTransactionSource) Load(ctx context.Context) ([]models.TransactionRecord, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, transactionsQuery(s.table))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_transactions query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEmptySource, s.location, err)
	}
	defer rows.Close()

	idx := columnIndex{"code": 0, "date": 1, "qty": 2, "price": 3}
	out := make([]models.TransactionRecord, 0, 4096)
	skipped := 0
	for rows.Next() {
		var code, ts, qtyS, priceS string
		if err := rows.Scan(&code, &ts, &qtyS, &priceS); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec, ok := idx.parseRow([]string{code, ts, qtyS, priceS}, s.location)
		if !ok {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	reportSkipped(s.l, s.metrics, s.location, skipped)
	if s.l != nil {
		s.l.Debug("clickhouse load_transactions",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s: no rows", models.ErrEmptySource, s.location)
	}
	return out, nil
}
