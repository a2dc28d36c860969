package di

import (
	"context"
	"fmt"
	"time"

	"DemandCast/internal/domain/repository"
	domsvc "DemandCast/internal/domain/service"
	"DemandCast/internal/handler/api"
	internalrepo "DemandCast/internal/repository"
	"DemandCast/internal/service/cache"
	"DemandCast/internal/service/ratelimit"
	"DemandCast/internal/services/export"
	"DemandCast/internal/services/forecast"
	"DemandCast/internal/usecase"
	pkgch "DemandCast/pkg/clickhouse"
	"DemandCast/pkg/config"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/metrics"
	"DemandCast/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return l, l.RemoveCollector, nil
}

// ProvideRegistry holds the application metrics. /metrics serves it together
// with the default registry (runtime and Kafka producer metrics).
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegisterer(reg)
}

// ProvideClickHouseClient connects to ClickHouse when it is enabled; a nil
// client is returned otherwise.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(4, 2, 0),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithReadonly(true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	l.Info("clickhouse connected", applogger.String("host", cfg.ClickHouse.Host), applogger.String("db", cfg.ClickHouse.Database))
	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled and
// hooks the error-log collector to it.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		BatchTimeout: cfg.Kafka.Producer.Linger,
		Async:        cfg.Kafka.Producer.Async,
		HashByKey:    true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Logging.Collector.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.FlushInterval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return producer, func() {
		// flush collected logs before the writer goes away
		l.RemoveCollector()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideEventPublisher publishes forecast events to Kafka, or drops them
// when Kafka is disabled.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
}

func ProvideResolver(ch *pkgch.Client, l *applogger.Logger, m repository.Metrics) repository.SourceResolver {
	return internalrepo.NewResolver(ch, l, m)
}

func ProvideIngestor(r repository.SourceResolver, m repository.Metrics, l *applogger.Logger) *usecase.Ingestor {
	return usecase.NewIngestor(r, m, l.With(applogger.String("component", "ingest")))
}

// ProvideDataset loads and cleans every configured source once at start-up.
func ProvideDataset(cfg *config.Config, in *usecase.Ingestor, m repository.Metrics, l *applogger.Logger) (*usecase.Dataset, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ds, err := usecase.BuildDataset(ctx, in, cfg.Sources, usecase.DatasetOptions{
		RankLimit:    cfg.Aggregation.RankLimit,
		ZeroFillGaps: cfg.Aggregation.ZeroFillGaps,
	}, m, l)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return ds, nil
}

// ProvideEngine registers the three backends. The trend backend goes through
// the remote trend service when one is configured.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) *forecast.Engine {
	ac := cfg.Analytics.ARIMA
	arima := forecast.NewAutoARIMA(forecast.ARIMAConfig{
		MaxP:      ac.MaxP,
		MaxQ:      ac.MaxQ,
		MaxD:      2,
		MaxOrder:  ac.MaxOrder,
		Criterion: ac.Criterion,
		Stepwise:  !ac.Exhaustive,
	})

	var trend domsvc.Forecaster = forecast.NewTrendChangepoint(forecast.DefaultTrendConfig())
	if base := forecast.NewHTTPServiceBase(cfg); base.Enabled() {
		trend = forecast.NewRemoteTrend(base, trend, l)
		l.Info("remote trend service enabled", applogger.String("url", cfg.Analytics.TrendServiceURL))
	}

	e := forecast.NewEngine(trend, arima, forecast.NewHolt())
	e.SetLogger(l.With(applogger.String("component", "forecast")))
	return e
}

// ProvideExportCache picks the CSV memo store.
func ProvideExportCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, func(), error) {
	switch backend := cfg.Export.Cache.Backend; backend {
	case "redis", "layered":
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Export.Cache.Prefix,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis export cache: %w", err)
		}
		closeFn := func() {
			if err := rc.Close(); err != nil {
				l.Warn("redis close error", applogger.Error(err))
			}
		}
		if backend == "layered" {
			return cache.NewLayered(rc, time.Minute), closeFn, nil
		}
		return rc, closeFn, nil
	case "none":
		return cache.Noop{}, func() {}, nil
	default:
		return cache.NewTTLCache(), func() {}, nil
	}
}

func ProvideExporter(c cache.BytesCache, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *export.Exporter {
	return export.NewExporter(
		export.WithCache(c, cfg.Export.Cache.TTL),
		export.WithMetrics(m),
		export.WithLogger(l),
	)
}

func ProvideForecastUseCase(
	ds *usecase.Dataset,
	engine *forecast.Engine,
	exporter *export.Exporter,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(ds, engine, exporter,
		usecase.RestrictToRanked(cfg.Selection.RestrictToRanked),
		usecase.WithEventPublisher(events),
		usecase.WithForecastMetrics(m),
		usecase.WithForecastLogger(l),
	)
}

func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

func ProvideForecastHandler(l *applogger.Logger, uc *usecase.ForecastUseCase, lim *ratelimit.Limiter, cfg *config.Config) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(l, uc, lim, api.RateLimit{
		Capacity:     cfg.Server.ForecastRate.Capacity,
		RefillPerSec: cfg.Server.ForecastRate.RefillPerSec,
	})
}

// ProvideApp creates the application server with its maintenance tasks.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.ForecastEchoHandler,
	reg *prometheus.Registry,
	lim *ratelimit.Limiter,
	c cache.BytesCache,
) *server.App {
	janitors := []server.Janitor{{
		Name:     "ratelimit-evict",
		Interval: time.Minute,
		Run:      func() { lim.Forget(10 * time.Minute) },
	}}
	switch ec := c.(type) {
	case *cache.TTLCache:
		janitors = append(janitors, server.Janitor{Name: "export-cache-sweep", Interval: time.Minute, Run: ec.Sweep})
	case *cache.Layered:
		janitors = append(janitors, server.Janitor{Name: "export-cache-sweep", Interval: time.Minute, Run: ec.L1().Sweep})
	}
	return server.New(cfg, l, h, reg, janitors...)
}
