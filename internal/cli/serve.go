package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/solawi/internal/health"
	httphandler "github.com/kjstillabower/solawi/internal/http"
	"github.com/kjstillabower/solawi/internal/observability"
)

// Version is reported on /health and to Sentry. Set at build time with
// -ldflags "-X github.com/kjstillabower/solawi/internal/cli.Version=...".
var Version = "dev"

const inFlightCheckInterval = 100 * time.Millisecond

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	a, err := newApp(ctx, opts, false)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if a.cfg.AutoMigrate {
		if err := a.store.Migrate(ctx); err != nil {
			return err
		}
	}

	enabled, err := observability.InitSentry(observability.SentryConfig{
		DSN:              a.cfg.SentryDSN,
		Environment:      a.cfg.SentryEnvironment,
		Release:          Version,
		TracesSampleRate: a.cfg.SentryTracesSampleRate,
	})
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	} else if enabled {
		logger.Info("sentry enabled", zap.String("environment", a.cfg.SentryEnvironment))
	}

	srv := newServer(a)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("graceful shutdown triggered")
	health.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, inFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// newServer wires health, rate limiting and routes into an http.Server for a.
func newServer(a *app) *http.Server {
	cfg := a.cfg
	checker := health.NewChecker(health.Config{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.LoginRateLimitRPS,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedErrorPct:     cfg.DegradedErrorPct,
		DBPing:               a.store.Ping,
		CachePing:            a.cachePing,
	})
	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	limiter := rate.NewLimiter(rate.Limit(cfg.LoginRateLimitRPS), cfg.LoginRateLimitBurst)
	handler := httphandler.NewHandler(a.svc, checker, a.logger, Version)

	return &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: httphandler.NewRouter(httphandler.RouterConfig{
			Handler:        handler,
			Logger:         a.logger,
			RequestTimeout: cfg.RequestTimeout,
			LoginLimiter:   limiter,
			CORSOrigins:    cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}
}
