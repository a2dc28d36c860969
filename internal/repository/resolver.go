package repository

import (
	"fmt"
	"path/filepath"
	"strings"

	domrepo "DemandCast/internal/domain/repository"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// Resolver picks a TransactionSource by file extension or URI scheme.
type Resolver struct {
	ch      *pkgch.Client
	l       *applogger.Logger
	metrics domrepo.Metrics
}

// NewResolver builds a resolver; ch may be nil when ClickHouse is disabled.
func NewResolver(ch *pkgch.Client, l *applogger.Logger, m domrepo.Metrics) *Resolver {
	return &Resolver{ch: ch, l: l, metrics: m}
}

func (r *Resolver) Resolve(location string) (domrepo.TransactionSource, error) {
	switch {
	case strings.HasPrefix(location, ClickHouseScheme):
		if r.ch == nil {
			return nil, fmt.Errorf("clickhouse source %q: client not configured", location)
		}
		s, err := NewCHTransactionSource(r.ch, location)
		if err != nil {
			return nil, err
		}
		s.SetLogger(r.l)
		s.SetMetrics(r.metrics)
		return s, nil
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".csv", ".txt":
		s := NewCSVSource(location)
		s.SetLogger(r.l)
		s.SetMetrics(r.metrics)
		return s, nil
	case ".xlsx", ".xlsm":
		s := NewXLSXSource(location)
		s.SetLogger(r.l)
		s.SetMetrics(r.metrics)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported source %q", location)
	}
}

var _ domrepo.SourceResolver = (*Resolver)(nil)
