package home

import (
	"strings"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/storefront"
	"finitefield.org/storefront-web/internal/templates/helpers"
)

// Translator resolves UI labels for a locale.
type Translator interface {
	T(locale, key string) string
}

// Labels holds the translated strings a page needs.
type Labels struct {
	Title               string
	CarouselLabel       string
	Prev                string
	Next                string
	CarouselUnavailable string
	FeaturedUnavailable string
	RecommendedTitle    string
	RecommendedLoading  string
	RecommendedError    string
	RecommendedEmpty    string
}

// BuildLabels loads every label for lang.
func BuildLabels(t Translator, lang string) Labels {
	return Labels{
		Title:               t.T(lang, "home.title"),
		CarouselLabel:       t.T(lang, "carousel.label"),
		Prev:                t.T(lang, "carousel.prev"),
		Next:                t.T(lang, "carousel.next"),
		CarouselUnavailable: t.T(lang, "carousel.unavailable"),
		FeaturedUnavailable: t.T(lang, "featured.unavailable"),
		RecommendedTitle:    t.T(lang, "recommended.title"),
		RecommendedLoading:  t.T(lang, "recommended.loading"),
		RecommendedError:    t.T(lang, "recommended.error"),
		RecommendedEmpty:    t.T(lang, "recommended.empty"),
	}
}

// PageData is the full homepage payload.
type PageData struct {
	// Locale is the route locale segment, empty on the root path.
	Locale string
	// Lang is the locale used for labels and the html lang attribute.
	Lang        string
	Labels      Labels
	Featured    FeaturedData
	Carousel    CarouselData
	Recommended RecommendedData
}

// FeaturedData is the hero collection or its fallback.
type FeaturedData struct {
	Title    string
	URL      string
	ImageURL string
	ImageAlt string
	Error    string
}

// FeaturedPayload builds the hero view.
func FeaturedPayload(locale string, c *storefront.Collection, labels Labels) FeaturedData {
	if c == nil {
		return FeaturedData{Error: labels.FeaturedUnavailable}
	}
	out := FeaturedData{
		Title: c.Title,
		URL:   helpers.CollectionURL(locale, c.Handle),
	}
	if c.Image != nil {
		out.ImageURL = c.Image.URL
		out.ImageAlt = c.Image.AltText
	}
	return out
}

// SlideView is one rendered carousel slide.
type SlideView struct {
	ID       int
	Title    string
	URL      string
	ImageURL string
	ImageAlt string
}

// CarouselData is the carousel fragment payload.
type CarouselData struct {
	ID         string
	Slides     []SlideView
	Thumbnails []SlideView
	Direction  string
	Locked     bool
	Revision   uint64
	Labels     Labels
	NextURL    string
	PrevURL    string
	StreamURL  string
	Error      string
}

// CarouselPayload resolves the controller state against its slides.
func CarouselPayload(locale, id string, st carousel.State, slides []carousel.Slide, labels Labels) CarouselData {
	data := CarouselData{
		ID:        id,
		Direction: st.Direction.String(),
		Locked:    st.Locked,
		Revision:  st.Revision,
		Labels:    labels,
		NextURL:   "/carousel/next",
		PrevURL:   "/carousel/prev",
		StreamURL: "/carousel/stream",
	}
	if locale != "" {
		q := "?locale=" + locale
		data.NextURL += q
		data.PrevURL += q
		data.StreamURL += q
	}
	for _, s := range carousel.Ordered(st.Order, slides) {
		data.Slides = append(data.Slides, slideView(locale, s))
	}
	for _, s := range carousel.Ordered(st.Thumbnails, slides) {
		data.Thumbnails = append(data.Thumbnails, slideView(locale, s))
	}
	if len(data.Slides) == 0 {
		data.Error = labels.CarouselUnavailable
	}
	return data
}

// CarouselUnavailablePayload is rendered when no controller can be mounted.
func CarouselUnavailablePayload(labels Labels) CarouselData {
	return CarouselData{Labels: labels, Error: labels.CarouselUnavailable}
}

func slideView(locale string, s carousel.Slide) SlideView {
	return SlideView{
		ID:       s.ID,
		Title:    s.Title,
		URL:      helpers.CollectionURL(locale, s.Handle),
		ImageURL: s.Image.URL,
		ImageAlt: s.Image.AltText,
	}
}

// RecommendedState mirrors the settlement state of the deferred product list.
type RecommendedState string

const (
	RecommendedPending  RecommendedState = "pending"
	RecommendedResolved RecommendedState = "resolved"
	RecommendedRejected RecommendedState = "rejected"
)

// RecommendedData is the renderer payload.
type RecommendedData struct {
	State       RecommendedState
	Title       string
	Loading     string
	Error       string
	Empty       string
	FragmentURL string
	Products    []ProductCard
}

// ProductCard is one rendered product.
type ProductCard struct {
	ID       string
	Title    string
	URL      string
	Price    string
	ImageURL string
	ImageAlt string
}

// RecommendedPendingPayload renders the placeholder. fragmentURL, when set,
// lets the client fetch the settled list.
func RecommendedPendingPayload(labels Labels, fragmentURL string) RecommendedData {
	return RecommendedData{
		State:       RecommendedPending,
		Title:       labels.RecommendedTitle,
		Loading:     labels.RecommendedLoading,
		FragmentURL: strings.TrimSpace(fragmentURL),
	}
}

// RecommendedResolvedPayload renders one card per product, in input order.
func RecommendedResolvedPayload(locale string, products []storefront.Product, labels Labels) RecommendedData {
	data := RecommendedData{
		State: RecommendedResolved,
		Title: labels.RecommendedTitle,
		Empty: labels.RecommendedEmpty,
	}
	for _, p := range products {
		card := ProductCard{
			ID:    p.ID,
			Title: p.Title,
			URL:   helpers.ProductURL(locale, p.Handle),
			Price: helpers.Money(p.PriceRange.MinVariantPrice.Amount, p.PriceRange.MinVariantPrice.CurrencyCode),
		}
		if img := p.FeaturedImage(); img != nil {
			card.ImageURL = img.URL
			card.ImageAlt = img.AltText
			if card.ImageAlt == "" {
				card.ImageAlt = p.Title
			}
		}
		data.Products = append(data.Products, card)
	}
	return data
}

// RecommendedRejectedPayload renders the explicit error state.
func RecommendedRejectedPayload(labels Labels) RecommendedData {
	return RecommendedData{
		State: RecommendedRejected,
		Title: labels.RecommendedTitle,
		Error: labels.RecommendedError,
	}
}
