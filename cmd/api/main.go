package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/itam/internal/assetcode"
	"github.com/crucial707/itam/internal/config"
	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/notify"
	"github.com/crucial707/itam/internal/workflow"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newNotifier(cfg config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.LineAccessToken == "" || cfg.LineTo == "" {
		logger.Info("LINE notifier not configured, ticket notifications are logged only")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewLineNotifier(cfg.LineAccessToken, cfg.LineTo, cfg.NotifyRatePerMinute)
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	gw, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gw.Close()

	// requests are served only after convergence has finished
	rep := db.NewMigrator(gw, logger).Converge(ctx)
	if len(rep.Failed) > 0 {
		logger.Warn("schema convergence incomplete", "failed", rep.Failed)
	}

	dispatcher := notify.NewDispatcher(newNotifier(cfg, logger), cfg.NotifyQueueSize, logger)
	dispatcher.Start()

	svc := workflow.NewService(gw, assetcode.NewGenerator(), dispatcher, workflow.Options{
		Strict: cfg.Strict(),
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(gw, svc, cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"port", cfg.Port,
			"backend", cfg.Backend(),
			"transition_mode", cfg.TransitionMode)
		var err error
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Warn("notification queue not drained", "error", err)
	}
	logger.Info("server stopped cleanly")
	return nil
}
