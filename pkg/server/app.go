package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalScan/internal/domain/models"
	"SignalScan/internal/usecase"
	"SignalScan/pkg/config"
	xhttp "SignalScan/pkg/http"
	applogger "SignalScan/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scans      *usecase.ScanService
	httpServer *xhttp.Server
	closers    []io.Closer
}

// New creates a new App instance with all dependencies. closers are closed in
// order on shutdown.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scans *usecase.ScanService,
	httpServer *xhttp.Server,
	closers ...io.Closer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		scans:      scans,
		httpServer: httpServer,
		closers:    closers,
	}
}

// Run serves HTTP and scans on schedule until SIGINT/SIGTERM or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			_ = a.shutdown()
			return err
		}
	}

	a.log.Info("scheduler started",
		applogger.Duration("interval", a.cfg.Scan.Interval),
		applogger.Int("symbols", len(a.scans.Universe())),
		applogger.String("store", a.cfg.Store.Backend),
	)
	a.schedule(ctx)

	a.log.Info("shutdown signal received")
	// Scheduled and API-submitted scans get ShutdownTimeout to finish before
	// the store and notifiers are closed.
	a.scans.Drain(a.cfg.Server.ShutdownTimeout)
	return a.shutdown()
}

// RunOnce performs a single scan over the configured universe and releases
// resources.
func (a *App) RunOnce(ctx context.Context) *models.ScanReport {
	report := a.scans.Trigger(ctx, nil)
	_ = a.shutdown()
	return report
}

// schedule fires a scan immediately and then on every tick until ctx ends.
// Ticks that land while a scan is still running are dropped by the service.
func (a *App) schedule(ctx context.Context) {
	tick := func() {
		if err := a.scans.Schedule(); err != nil {
			a.log.Warn("scheduled scan not started", applogger.Error(err))
		}
	}

	tick()
	ticker := time.NewTicker(a.cfg.Scan.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
