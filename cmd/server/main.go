package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/churn/internal/api"
	"github.com/gyaneshwarpardhi/churn/internal/config"
	"github.com/gyaneshwarpardhi/churn/internal/logging"
	"github.com/gyaneshwarpardhi/churn/internal/model"
	"github.com/gyaneshwarpardhi/churn/internal/service"
	"github.com/gyaneshwarpardhi/churn/internal/traces"
	"github.com/gyaneshwarpardhi/churn/internal/ui"
)

const artifactSettle = 250 * time.Millisecond

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	cfgPath := flag.String("config", "configs/churn.yaml", "Path to service YAML config")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	// ── Tracing ──────────────────────────────────────────────────────────────
	shutdownTracing, err := traces.Init(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName, logger)
	if err != nil {
		slog.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}

	// ── Artifacts ────────────────────────────────────────────────────────────
	svc := service.New(ctx, cfg.Batch, artifactPaths(cfg))
	if err := svc.Reload(ctx); err != nil {
		// Serve anyway: scoring answers 500 and /readyz 503 until a reload succeeds.
		slog.Error("artifacts not loaded, serving unready", "err", err)
	}

	watcher := &artifactWatcher{svc: svc}
	if cfg.Artifacts.Watch {
		watcher.start(ctx)
	}
	defer watcher.stop()

	// ── Config hot-reload ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		paths := artifactPaths(newCfg)
		if paths == svc.Paths() && newCfg.Artifacts.Watch == watcher.running() {
			return
		}
		watcher.stop()
		svc.SetPaths(paths)
		if err := svc.Reload(ctx); err != nil {
			slog.Warn("artifact reload after config change failed", "err", err)
		}
		if newCfg.Artifacts.Watch {
			watcher.start(ctx)
		}
		slog.Info("config hot-reloaded", "model", paths.Model, "watch", newCfg.Artifacts.Watch)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	page, err := ui.New(svc)
	if err != nil {
		slog.Error("failed to build UI", "err", err)
		os.Exit(1)
	}
	handler := api.New(svc, api.Options{
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MaxBatchSize: cfg.Batch.MaxSize,
		UI:           page,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr, "ready", svc.Ready() == nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("http shutdown", "err", err)
	}
	svc.Shutdown() // finish queued batch items while the pool context is live
	cancel()
	if err := shutdownTracing(shutCtx); err != nil {
		slog.Warn("tracing shutdown", "err", err)
	}
	slog.Info("goodbye")
}

func artifactPaths(cfg *config.Config) model.Paths {
	return model.Paths{
		Model:        cfg.Artifacts.Model,
		Scaler:       cfg.Artifacts.Scaler,
		FeatureNames: cfg.Artifacts.FeatureNames,
	}
}

// artifactWatcher owns the artifact file watch so a config change can move it.
type artifactWatcher struct {
	svc    *service.Service
	mu     sync.Mutex
	stopFn func()
}

func (w *artifactWatcher) start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopFn != nil {
		return
	}
	stop, err := w.svc.Watch(ctx, artifactSettle)
	if err != nil {
		slog.Warn("artifact watcher unavailable (hot-reload disabled)", "err", err)
		return
	}
	w.stopFn = stop
	slog.Info("watching artifacts", "paths", w.svc.Paths().List())
}

func (w *artifactWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopFn != nil {
		w.stopFn()
		w.stopFn = nil
	}
}

func (w *artifactWatcher) running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopFn != nil
}
