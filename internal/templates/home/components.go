package home

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

const (
	htmxScript    = "https://unpkg.com/htmx.org@1.9.12"
	htmxSSEScript = "https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"

	// CarouselEvent is the SSE event name carrying carousel markup.
	CarouselEvent = "carousel"
)

// Page renders the full homepage document.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!doctype html>\n<html")
		h.attr("lang", data.Lang)
		h.raw("><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>")
		h.text(data.Labels.Title)
		h.raw("</title><link rel=\"stylesheet\" href=\"/assets/site.css\">")
		h.raw("<script src=\"" + htmxScript + "\" defer></script>")
		h.raw("<script src=\"" + htmxSSEScript + "\" defer></script>")
		h.raw("<script src=\"/assets/carousel.js\" defer></script>")
		h.raw("</head><body><main class=\"home\">")
		h.render(ctx, CarouselSection(data.Carousel))
		h.render(ctx, FeaturedCollection(data.Featured))
		h.render(ctx, RecommendedProducts(data.Recommended))
		h.raw("</main></body></html>")
		return h.err
	})
}

// CarouselSection renders the carousel container. A mounted carousel
// subscribes to the stream and swaps its body on each state event.
func CarouselSection(data CarouselData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<section id=\"carousel\" class=\"carousel\"")
		h.attr("aria-label", data.Labels.CarouselLabel)
		if data.Error == "" && data.ID != "" {
			h.attr("data-carousel-id", data.ID)
			h.raw(" hx-ext=\"sse\"")
			h.urlAttr("sse-connect", data.StreamURL)
			h.attr("sse-swap", CarouselEvent)
			h.raw(" hx-swap=\"innerHTML\"")
		}
		h.raw(">")
		h.render(ctx, CarouselBody(data))
		h.raw("</section>")
		return h.err
	})
}

// CarouselBody renders the slides, thumbnails and controls for one state.
func CarouselBody(data CarouselData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		if data.Error != "" {
			h.raw("<p class=\"carousel__error\" role=\"status\">")
			h.text(data.Error)
			h.raw("</p>")
			return h.err
		}

		h.raw("<div class=\"carousel__track\"")
		h.attr("data-direction", data.Direction)
		h.attr("data-locked", strconv.FormatBool(data.Locked))
		h.attr("data-revision", strconv.FormatUint(data.Revision, 10))
		h.raw(">")
		for i, s := range data.Slides {
			h.raw("<a class=\"carousel__slide\"")
			if i == 0 {
				h.raw(" aria-current=\"true\"")
			}
			h.urlAttr("href", s.URL)
			h.attr("data-slide-id", strconv.Itoa(s.ID))
			h.raw(">")
			if s.ImageURL != "" {
				h.raw("<img")
				h.urlAttr("src", s.ImageURL)
				h.attr("alt", s.ImageAlt)
				h.raw(" loading=\"lazy\">")
			}
			h.raw("<h2 class=\"carousel__title\">")
			h.text(s.Title)
			h.raw("</h2></a>")
		}
		h.raw("</div><ol class=\"carousel__thumbs\">")
		for _, s := range data.Thumbnails {
			h.raw("<li class=\"carousel__thumb\"")
			h.attr("data-slide-id", strconv.Itoa(s.ID))
			h.raw(">")
			if s.ImageURL != "" {
				h.raw("<img")
				h.urlAttr("src", s.ImageURL)
				h.attr("alt", s.ImageAlt)
				h.raw(" loading=\"lazy\">")
			} else {
				h.text(s.Title)
			}
			h.raw("</li>")
		}
		h.raw("</ol><div class=\"carousel__controls\">")
		h.raw("<button type=\"button\" class=\"carousel__prev\"")
		h.urlAttr("hx-post", data.PrevURL)
		h.raw(" hx-target=\"closest section\" hx-swap=\"innerHTML\">")
		h.text(data.Labels.Prev)
		h.raw("</button><button type=\"button\" class=\"carousel__next\"")
		h.urlAttr("hx-post", data.NextURL)
		h.raw(" hx-target=\"closest section\" hx-swap=\"innerHTML\">")
		h.text(data.Labels.Next)
		h.raw("</button></div>")
		return h.err
	})
}

// FeaturedCollection renders the hero collection.
func FeaturedCollection(data FeaturedData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<section class=\"featured-collection\">")
		if data.Error != "" {
			h.raw("<p class=\"featured-collection__error\" role=\"alert\">")
			h.text(data.Error)
			h.raw("</p></section>")
			return h.err
		}
		h.raw("<a class=\"featured-collection__link\"")
		h.urlAttr("href", data.URL)
		h.raw(">")
		if data.ImageURL != "" {
			h.raw("<div class=\"featured-collection__image\"><img")
			h.urlAttr("src", data.ImageURL)
			h.attr("alt", data.ImageAlt)
			h.raw(" sizes=\"100vw\"></div>")
		}
		h.raw("<h1>")
		h.text(data.Title)
		h.raw("</h1></a></section>")
		return h.err
	})
}

// RecommendedProducts renders the recommended section with its list.
func RecommendedProducts(data RecommendedData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<section class=\"recommended-products\" id=\"recommended-products\"><h2>")
		h.text(data.Title)
		h.raw("</h2>")
		h.render(ctx, RecommendedList(data))
		h.raw("</section>")
		return h.err
	})
}

// RecommendedList renders the placeholder, product grid or error state.
// The pending placeholder replaces itself with the fragment once loaded.
func RecommendedList(data RecommendedData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		switch data.State {
		case RecommendedResolved:
			if len(data.Products) == 0 {
				h.raw("<p class=\"recommended-products__empty\">")
				h.text(data.Empty)
				h.raw("</p>")
				return h.err
			}
			h.raw("<div class=\"recommended-products__grid\">")
			for _, p := range data.Products {
				h.raw("<a class=\"recommended-product\"")
				h.urlAttr("href", p.URL)
				h.attr("data-product-id", p.ID)
				h.raw(">")
				if p.ImageURL != "" {
					h.raw("<img")
					h.urlAttr("src", p.ImageURL)
					h.attr("alt", p.ImageAlt)
					h.raw(" sizes=\"(min-width: 45em) 20vw, 50vw\" loading=\"lazy\">")
				}
				h.raw("<h4>")
				h.text(p.Title)
				h.raw("</h4><small class=\"recommended-product__price\">")
				h.text(p.Price)
				h.raw("</small></a>")
			}
			h.raw("</div>")
		case RecommendedRejected:
			h.raw("<p class=\"recommended-products__error\" role=\"alert\">")
			h.text(data.Error)
			h.raw("</p>")
		default:
			h.raw("<div class=\"recommended-products__placeholder\" aria-busy=\"true\"")
			if data.FragmentURL != "" {
				h.urlAttr("hx-get", data.FragmentURL)
				h.raw(" hx-trigger=\"load\" hx-swap=\"outerHTML\"")
			}
			h.raw(">")
			h.text(data.Loading)
			h.raw("</div>")
		}
		return h.err
	})
}

// htmlWriter stops writing after the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

func (h *htmlWriter) urlAttr(name, value string) {
	h.attr(name, string(templ.URL(value)))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}
