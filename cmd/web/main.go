package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/home"
	"finitefield.org/storefront-web/internal/httpserver"
	"finitefield.org/storefront-web/internal/i18n"
	"finitefield.org/storefront-web/internal/platform/config"
	"finitefield.org/storefront-web/internal/platform/observability"
	"finitefield.org/storefront-web/internal/session"
	"finitefield.org/storefront-web/internal/storefront"
	"finitefield.org/storefront-web/locales"
)

const meterName = "finitefield.org/storefront-web"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-web: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initialise logger: %w", err)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("web")

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := httpserver.New(httpserver.Config{
		Address:        cfg.Server.Addr,
		PublicDir:      cfg.Server.PublicDir,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, app.deps)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	errCh := make(chan error, 1)
	go func() {
		serverLogger.Info("storefront web listening", zap.Bool("static_storefront", cfg.Storefront.Static()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received; draining requests")
	// Unmounting first closes open carousel streams so Shutdown can finish.
	app.registry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

type app struct {
	deps     httpserver.Dependencies
	registry *carousel.Registry
	deferred *home.DeferredStore
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	bundle, err := i18n.Load(locales.FS, cfg.I18n.DefaultLocale, cfg.I18n.Supported)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}

	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      session.KeyFromString(cfg.Session.HashKey),
		BlockKey:     session.KeyFromString(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise sessions: %w", err)
	}
	if cfg.Session.HashKey == "" {
		logger.Warn("SESSION_HASH_KEY not set; visitor cookies will not survive restarts")
	}

	meter := otel.Meter(meterName)
	service, err := storefront.FromConfig(cfg.Storefront, logger, meter)
	if err != nil {
		return nil, fmt.Errorf("initialise storefront: %w", err)
	}

	registry := carousel.NewRegistry(cfg.Carousel.IdleTTL, logger.Named("carousel"),
		carousel.WithAutoAdvance(cfg.Carousel.AutoAdvance),
		carousel.WithCooldown(cfg.Carousel.Cooldown),
		carousel.WithOverlapPolicy(cfg.Carousel.OverlapPolicy()),
		carousel.WithMeter(meter),
	)

	deferred := home.NewDeferredStore(0)

	loader := home.NewLoader(service,
		home.WithLogger(logger.Named("home")),
		home.WithRecommendedTimeout(cfg.Storefront.Timeout),
	)

	return &app{
		deps: httpserver.Dependencies{
			Logger:   logger,
			Loader:   loader,
			Registry: registry,
			Deferred: deferred,
			Bundle:   bundle,
			Sessions: sessions,
		},
		registry: registry,
		deferred: deferred,
	}, nil
}

// Close unmounts every carousel and stops the background sweepers.
func (a *app) Close() {
	a.registry.Close()
	a.deferred.Close()
}
