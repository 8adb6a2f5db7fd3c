// Command carousel previews the featured-collections carousel in a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/home"
	"finitefield.org/storefront-web/internal/platform/config"
	"finitefield.org/storefront-web/internal/storefront"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "carousel: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// The TUI owns the terminal, so logs are discarded.
	logger := zap.NewNop()
	svc, err := storefront.FromConfig(cfg.Storefront, logger, otel.Meter("finitefield.org/storefront-web/cmd/carousel"))
	if err != nil {
		return err
	}

	ic, err := storefront.InContextFromLocale(cfg.I18n.DefaultLocale)
	if err != nil {
		ic = storefront.DefaultInContext
	}
	collections, err := svc.FeaturedCollections(ctx, ic)
	if err != nil {
		return fmt.Errorf("featured collections: %w", err)
	}

	ctrl := carousel.New(
		carousel.WithAutoAdvance(cfg.Carousel.AutoAdvance),
		carousel.WithCooldown(cfg.Carousel.Cooldown),
		carousel.WithOverlapPolicy(cfg.Carousel.OverlapPolicy()),
	)
	if err := ctrl.Mount(home.Slides(collections)); err != nil {
		return err
	}
	defer ctrl.Unmount()

	program := tea.NewProgram(newModel(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}
