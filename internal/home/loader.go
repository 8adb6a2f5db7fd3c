package home

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/storefront"
)

const (
	defaultRecommendedTimeout = 8 * time.Second

	// PlaceholderTitle is shown for slides whose collection has no title.
	PlaceholderTitle = "Placeholder Title"
)

// Data is everything the homepage renders for one request.
type Data struct {
	FeaturedCollection    *storefront.Collection
	FeaturedCollectionErr error

	FeaturedCollections    []storefront.Collection
	FeaturedCollectionsErr error

	Recommended *Deferred[[]storefront.Product]
}

// Loader fetches homepage data from a storefront service.
type Loader struct {
	service storefront.Service
	logger  *zap.Logger
	timeout time.Duration
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRecommendedTimeout bounds the background recommended-products fetch.
func WithRecommendedTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLoader constructs a Loader around svc.
func NewLoader(svc storefront.Service, opts ...LoaderOption) *Loader {
	l := &Loader{
		service: svc,
		logger:  zap.NewNop(),
		timeout: defaultRecommendedTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches both collection queries concurrently and starts the recommended
// products query in the background. Section failures are recorded on Data and
// also returned joined, so callers can log them while still rendering.
func (l *Loader) Load(ctx context.Context, ic storefront.InContext) (Data, error) {
	var data Data
	data.Recommended = l.Recommended(ctx, ic)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		featured, err := l.service.FeaturedCollection(gctx, ic)
		if err != nil {
			data.FeaturedCollectionErr = err
			return nil
		}
		data.FeaturedCollection = &featured
		return nil
	})
	g.Go(func() error {
		collections, err := l.service.FeaturedCollections(gctx, ic)
		if err != nil {
			data.FeaturedCollectionsErr = err
			return nil
		}
		data.FeaturedCollections = collections
		return nil
	})
	_ = g.Wait()

	return data, errors.Join(data.FeaturedCollectionErr, data.FeaturedCollectionsErr)
}

// Recommended starts the recommended products query detached from ctx
// cancellation and bounded by the loader timeout.
func (l *Loader) Recommended(ctx context.Context, ic storefront.InContext) *Deferred[[]storefront.Product] {
	bg := context.WithoutCancel(ctx)
	return Go(bg, func(c context.Context) ([]storefront.Product, error) {
		c, cancel := context.WithTimeout(c, l.timeout)
		defer cancel()
		products, err := l.service.RecommendedProducts(c, ic)
		if err != nil {
			l.logger.Warn("recommended products failed", zap.Error(err))
			return nil, err
		}
		return products, nil
	})
}

// Slides converts collections into carousel slides, in order.
func Slides(collections []storefront.Collection) []carousel.Slide {
	slides := make([]carousel.Slide, 0, len(collections))
	for i, c := range collections {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = PlaceholderTitle
		}
		slide := carousel.Slide{
			ID:     i,
			Title:  title,
			Handle: c.Handle,
		}
		if c.Image != nil {
			slide.Image = carousel.Image{URL: c.Image.URL, AltText: c.Image.AltText}
		}
		slides = append(slides, slide)
	}
	return slides
}
