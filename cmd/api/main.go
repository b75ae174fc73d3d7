package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/config"
	"github.com/urlmon/urlmon/internal/history"
	"github.com/urlmon/urlmon/internal/httpapi"
	"github.com/urlmon/urlmon/internal/logging"
	"github.com/urlmon/urlmon/internal/monitor"
	"github.com/urlmon/urlmon/internal/probe"
	"github.com/urlmon/urlmon/internal/registry"
	"github.com/urlmon/urlmon/internal/scheduler"
	"github.com/urlmon/urlmon/internal/sink"
	"github.com/urlmon/urlmon/internal/status"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.json", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.Server.LogDir, cfg.Server.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	reg, err := registry.Load(cfg.URLs)
	if err != nil {
		logger.Fatal("invalid_targets", zap.Error(err))
	}

	hist := history.New(reg.List(), cfg.Retention())
	checker := probe.NewHTTPChecker(cfg.CheckTimeout())
	agg := status.New(reg, hist)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks, err := sink.Open(ctx, cfg.Storage, reg, logger)
	if err != nil {
		logger.Fatal("sink_open_failed", zap.Error(err))
	}

	// The flusher outlives monitoring start/stop cycles; its context is
	// cancelled only once everything that could enqueue has stopped.
	var resultSink scheduler.ResultSink
	flushCtx, stopFlusher := context.WithCancel(context.Background())
	flusherDone := make(chan struct{})
	if len(sinks) > 0 {
		flusher := sink.NewFlusher(logger, sinks, cfg.FlushInterval(), cfg.Retention())
		resultSink = flusher
		go func() {
			flusher.Run(flushCtx)
			close(flusherDone)
		}()
	} else {
		close(flusherDone)
	}

	sched := scheduler.New(logger, reg, checker, hist, resultSink,
		cfg.CheckInterval(), cfg.CheckTimeout(),
		cfg.Monitoring.MaxConcurrentChecks, cfg.ShutdownGrace())

	svc := monitor.New(logger, reg, hist, agg, sched, sink.Loaders(sinks), cfg.Retention())
	if restored := svc.Restore(ctx); restored > 0 {
		logger.Info("warm_start", zap.Int("results", restored))
	}
	if err := svc.Start(); err != nil {
		logger.Fatal("monitoring_start_failed", zap.Error(err))
	}

	api := httpapi.NewServer(logger, svc, cfg.Server.RatePerMinute, cfg.Server.RateBurst)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	logger.Info("api_listen", zap.String("addr", cfg.Server.Addr))

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", zap.Error(err))
		}
	}

	// Stop checking first so the last results reach the flusher, then
	// the API, then the flusher itself, then the sinks.
	if err := svc.Stop(); err != nil && !errors.Is(err, monitor.ErrNotRunning) {
		logger.Warn("monitoring_stop_failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server_shutdown_failed", zap.Error(err))
	}

	stopFlusher()
	<-flusherDone
	if len(sinks) > 0 {
		if err := sink.Multi(sinks).Close(); err != nil {
			logger.Warn("sink_close_failed", zap.Error(err))
		}
	}
	logger.Info("shutdown_complete")
}
