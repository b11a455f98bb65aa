// Command server runs the panel evaluation HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-tribunal/infrastructure/llm"
	"github.com/ahrav/go-tribunal/infrastructure/middleware"
	"github.com/ahrav/go-tribunal/infrastructure/store"
	"github.com/ahrav/go-tribunal/internal/api"
	"github.com/ahrav/go-tribunal/internal/application"
	"github.com/ahrav/go-tribunal/internal/panel"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		clog.FromContext(ctx).ErrorContext(ctx, "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := clog.FromContext(ctx)

	cfg, err := application.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	settings, err := application.LoadModelSettings(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("load model settings: %w", err)
	}

	documents, err := store.NewBoltStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer func() {
		if err := documents.Close(); err != nil {
			log.ErrorContext(ctx, "closing document store", "error", err)
		}
	}()

	tools := llm.NewToolRegistry()
	if err := application.RegisterEvaluationTools(tools); err != nil {
		return fmt.Errorf("register evaluation tools: %w", err)
	}

	metrics := middleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	chain := []llm.Middleware{
		llm.TimeoutMiddleware(cfg.RequestTimeout),
		llm.RetryMiddleware(3, time.Second, 30*time.Second),
		llm.MetricsMiddleware(metrics),
		llm.TracingMiddleware("tribunal"),
	}
	if cfg.RateLimit > 0 {
		chain = append(chain, llm.RateLimitMiddleware(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:         llm.DefaultProviders,
		DefaultProvider:   cfg.DefaultProvider,
		DefaultTimeout:    cfg.RequestTimeout,
		DefaultMiddleware: chain,
		Tools:             tools,
		Settings:          settings,
	})
	if err != nil {
		return fmt.Errorf("build provider registry: %w", err)
	}

	orchestrator := panel.NewOrchestrator(documents, registry, metrics)
	handler := api.NewServer(documents, orchestrator)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "listening", "addr", server.Addr, "provider", cfg.DefaultProvider)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down", "grace", cfg.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
