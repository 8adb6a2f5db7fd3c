package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/home"
	custommw "finitefield.org/storefront-web/internal/httpserver/middleware"
	"finitefield.org/storefront-web/internal/i18n"
	"finitefield.org/storefront-web/internal/platform/httpx"
	"finitefield.org/storefront-web/internal/platform/requestctx"
	"finitefield.org/storefront-web/internal/storefront"
	hometpl "finitefield.org/storefront-web/internal/templates/home"
)

type handlers struct {
	loader    *home.Loader
	registry  *carousel.Registry
	deferred  *home.DeferredStore
	bundle    *i18n.Bundle
	heartbeat time.Duration
}

func newHandlers(deps Dependencies, heartbeat time.Duration) *handlers {
	deferred := deps.Deferred
	if deferred == nil {
		deferred = home.NewDeferredStore(0)
	}
	return &handlers{
		loader:    deps.Loader,
		registry:  deps.Registry,
		deferred:  deferred,
		bundle:    deps.Bundle,
		heartbeat: heartbeat,
	}
}

// Home renders the full homepage. The carousel is mounted for the visitor,
// and recommended products stream in through a fragment when still pending.
func (h *handlers) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)
	loc := custommw.LocaleFromContext(ctx, h.bundle.Fallback())
	labels := hometpl.BuildLabels(h.bundle, loc.Lang)

	data, err := h.loader.Load(ctx, h.inContext(ctx, loc.Lang))
	if err != nil {
		logger.Warn("home: section failed to load", zap.Error(err))
	}

	page := hometpl.PageData{
		Locale:      loc.Route,
		Lang:        loc.Lang,
		Labels:      labels,
		Featured:    hometpl.FeaturedPayload(loc.Route, data.FeaturedCollection, labels),
		Carousel:    h.mountCarousel(ctx, loc.Route, data, labels),
		Recommended: h.recommendedPayload(loc.Route, data.Recommended, labels),
	}
	render(w, r, hometpl.Page(page))
}

func (h *handlers) mountCarousel(ctx context.Context, route string, data home.Data, labels hometpl.Labels) hometpl.CarouselData {
	if data.FeaturedCollectionsErr != nil || len(data.FeaturedCollections) == 0 {
		return hometpl.CarouselUnavailablePayload(labels)
	}
	ctrl, err := h.registry.Mount(requestctx.VisitorID(ctx), home.Slides(data.FeaturedCollections))
	if err != nil {
		requestctx.Logger(ctx).Warn("home: carousel mount failed", zap.Error(err))
		return hometpl.CarouselUnavailablePayload(labels)
	}
	return hometpl.CarouselPayload(route, ctrl.ID(), ctrl.State(), ctrl.Slides(), labels)
}

func (h *handlers) recommendedPayload(route string, d *home.Deferred[[]storefront.Product], labels hometpl.Labels) hometpl.RecommendedData {
	if d == nil {
		return hometpl.RecommendedPendingPayload(labels, "")
	}
	products, status, _ := d.Peek()
	switch status {
	case home.StatusResolved:
		return hometpl.RecommendedResolvedPayload(route, products, labels)
	case home.StatusRejected:
		return hometpl.RecommendedRejectedPayload(labels)
	default:
		id := h.deferred.Put(d)
		return hometpl.RecommendedPendingPayload(labels, "/fragments/recommended/"+id+localeQuery(route))
	}
}

// RecommendedFragment waits for a parked recommended-products query and
// renders its settled state. Expired ids re-run the query.
func (h *handlers) RecommendedFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)
	loc := custommw.LocaleFromContext(ctx, h.bundle.Fallback())
	labels := hometpl.BuildLabels(h.bundle, loc.Lang)

	d, ok := h.deferred.Take(chi.URLParam(r, "id"))
	if !ok {
		logger.Debug("recommended: deferred expired, refetching")
		d = h.loader.Recommended(ctx, h.inContext(ctx, loc.Lang))
	}

	products, err := d.Await(ctx)
	if ctx.Err() != nil {
		return
	}
	data := hometpl.RecommendedResolvedPayload(loc.Route, products, labels)
	if err != nil {
		data = hometpl.RecommendedRejectedPayload(labels)
	}
	render(w, r, hometpl.RecommendedList(data))
}

// CarouselNext rotates the visitor's carousel forward.
func (h *handlers) CarouselNext(w http.ResponseWriter, r *http.Request) {
	h.rotate(w, r, carousel.DirectionNext)
}

// CarouselPrev rotates the visitor's carousel backward.
func (h *handlers) CarouselPrev(w http.ResponseWriter, r *http.Request) {
	h.rotate(w, r, carousel.DirectionPrev)
}

func (h *handlers) rotate(w http.ResponseWriter, r *http.Request, dir carousel.Direction) {
	ctx := r.Context()
	loc := custommw.LocaleFromContext(ctx, h.bundle.Fallback())
	labels := hometpl.BuildLabels(h.bundle, loc.Lang)

	ctrl, ok := h.registry.Get(requestctx.VisitorID(ctx))
	if !ok {
		h.carouselUnavailable(w, r, labels, &carousel.PreconditionError{Op: dir.String(), Reason: "carousel is not mounted"})
		return
	}

	err := ctrl.Rotate(dir)
	switch {
	case err == nil, errors.Is(err, carousel.ErrTransitionLocked):
	case errors.Is(err, carousel.ErrPrecondition):
		h.carouselUnavailable(w, r, labels, err)
		return
	default:
		requestctx.Logger(ctx).Error("carousel: rotate failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("carousel_error", "unable to rotate carousel", http.StatusInternalServerError))
		return
	}

	render(w, r, hometpl.CarouselBody(hometpl.CarouselPayload(loc.Route, ctrl.ID(), ctrl.State(), ctrl.Slides(), labels)))
}

func (h *handlers) carouselUnavailable(w http.ResponseWriter, r *http.Request, labels hometpl.Labels, err error) {
	ctx := r.Context()
	if custommw.IsHTMXRequest(ctx) {
		render(w, r, hometpl.CarouselBody(hometpl.CarouselUnavailablePayload(labels)))
		return
	}
	httpx.WriteError(ctx, w, httpx.Unavailable("carousel_unavailable", err.Error()))
}

// CarouselUnmount tears down the visitor's carousel.
func (h *handlers) CarouselUnmount(w http.ResponseWriter, r *http.Request) {
	h.registry.Unmount(requestctx.VisitorID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// CarouselStream pushes the carousel body as server-sent events on every
// state change until the client disconnects or the carousel is unmounted.
func (h *handlers) CarouselStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestctx.Logger(ctx)
	loc := custommw.LocaleFromContext(ctx, h.bundle.Fallback())
	labels := hometpl.BuildLabels(h.bundle, loc.Lang)

	visitorID := requestctx.VisitorID(ctx)
	ctrl, ok := h.registry.Get(visitorID)
	if !ok {
		// 204 tells EventSource not to reconnect.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Debug("carousel stream: clear write deadline", zap.Error(err))
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	send := func(st carousel.State) bool {
		data := hometpl.CarouselPayload(loc.Route, ctrl.ID(), st, ctrl.Slides(), labels)
		var buf bytes.Buffer
		if err := hometpl.CarouselBody(data).Render(ctx, &buf); err != nil {
			logger.Error("carousel stream: render failed", zap.Error(err))
			return false
		}
		if err := writeEvent(w, hometpl.CarouselEvent, strconv.FormatUint(st.Revision, 10), buf.Bytes()); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send(ctrl.State()) {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				logger.Debug("carousel stream: carousel unmounted", zap.String("carousel_id", ctrl.ID()))
				return
			}
			h.registry.Touch(visitorID, ctrl)
			if !send(st) {
				return
			}
		case <-ticker.C:
			h.registry.Touch(visitorID, ctrl)
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// writeEvent writes one SSE frame, prefixing every payload line with data:.
func writeEvent(w io.Writer, event, id string, payload []byte) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\n")
	if id != "" {
		b.WriteString("id: ")
		b.WriteString(id)
		b.WriteString("\n")
	}
	for _, line := range strings.Split(string(payload), "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func (h *handlers) inContext(ctx context.Context, lang string) storefront.InContext {
	ic, err := storefront.InContextFromLocale(lang)
	if err != nil {
		requestctx.Logger(ctx).Debug("storefront: default in-context", zap.Error(err))
		return storefront.DefaultInContext
	}
	return ic
}

func localeQuery(route string) string {
	if route == "" {
		return ""
	}
	return "?locale=" + route
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	templ.Handler(c).ServeHTTP(w, r)
}
