package storefront

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/platform/config"
)

// FromConfig returns the fixture-backed service when no store domain is
// configured, and a Storefront API client otherwise.
func FromConfig(cfg config.StorefrontConfig, logger *zap.Logger, meter metric.Meter) (Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Static() {
		svc, err := NewStaticService(cfg.FixtureFile)
		if err != nil {
			return nil, err
		}
		logger.Info("using static storefront fixture", zap.String("path", cfg.FixtureFile))
		return svc, nil
	}

	opts := []Option{
		WithAPIVersion(cfg.APIVersion),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		WithLogger(logger),
		WithCacheTTL(cfg.CacheTTL),
		WithRateLimit(cfg.RatePerSecond, cfg.RateBurst),
	}
	if meter != nil {
		opts = append(opts, WithMeter(meter))
	}
	client, err := NewClient(cfg.Domain, cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("storefront: client: %w", err)
	}
	return client, nil
}
