package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	applogger "DemandCast/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// Janitor is a periodic maintenance task (cache sweeps, idle bucket eviction).
type Janitor struct {
	Name     string
	Interval time.Duration
	Run      func()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	registry    *prometheus.Registry
	janitors    []Janitor
}

// New creates a new App. reg may be nil, in which case the default
// Prometheus registry backs /metrics.
func New(cfg *config.Config, l *applogger.Logger, h xhttp.Handler, reg *prometheus.Registry, janitors ...Janitor) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, httpHandler: h, registry: reg, janitors: janitors}
}

func (a *App) server() *xhttp.Server {
	if a.httpServer != nil {
		return a.httpServer
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		xhttp.WithLogger(a.l),
	}
	path := ""
	if a.cfg.Metrics.Enabled {
		path = a.cfg.Metrics.Path
	}
	if a.registry != nil {
		opts = append(opts, xhttp.WithMetrics(path, a.registry, prometheus.Gatherers{a.registry, prometheus.DefaultGatherer}))
	} else {
		opts = append(opts, xhttp.WithMetrics(path, nil, nil))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, opts...)
	return a.httpServer
}

// Run starts the HTTP server and janitors and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with caller-controlled cancellation.
func (a *App) RunContext(ctx context.Context) error {
	srv := a.server()
	if err := srv.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	var wg sync.WaitGroup
	for _, j := range a.janitors {
		wg.Add(1)
		go func(j Janitor) {
			defer wg.Done()
			a.runJanitor(ctx, j)
		}(j)
	}
	a.l.Info("app started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Int("janitors", len(a.janitors)),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	wg.Wait()
	return a.shutdown()
}

func (a *App) runJanitor(ctx context.Context, j Janitor) {
	if j.Interval <= 0 || j.Run == nil {
		return
	}
	t := time.NewTicker(j.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.Run()
		}
	}
}

// shutdown gracefully stops the HTTP server. Infrastructure clients are closed
// by the DI cleanup returned alongside the App.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}
