package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/feebill/internal/app"
	"github.com/mmynk/feebill/internal/config"
	"github.com/mmynk/feebill/internal/metrics"
	"github.com/mmynk/feebill/internal/middleware"
	"github.com/mmynk/feebill/internal/service"
	"github.com/mmynk/feebill/internal/web"
	"github.com/mmynk/feebill/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	m := metrics.New()
	a, err := app.New(cfg, m)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	// Register Connect services
	billSvc := service.NewBillService(a.Schedule, a.Composer, a.Validator, m)
	billPath, billHandler := service.NewBillServiceHandler(billSvc,
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	)
	mux.Handle(billPath, middleware.CORS(billHandler))

	web.New(web.Options{
		Schedule:        a.Schedule,
		Composer:        a.Composer,
		Validator:       a.Validator,
		Renderer:        a.Renderer,
		Metrics:         m,
		Institution:     cfg.Institution.Name,
		DefaultBillType: a.DefaultBillType,
	}).Register(mux)

	mux.Handle("GET /metrics", m.Handler())

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.Logging(mux), &http2.Server{})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", srv.Addr, "url", fmt.Sprintf("http://%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
