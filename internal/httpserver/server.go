package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/carousel"
	"finitefield.org/storefront-web/internal/home"
	custommw "finitefield.org/storefront-web/internal/httpserver/middleware"
	"finitefield.org/storefront-web/internal/i18n"
	"finitefield.org/storefront-web/internal/platform/observability"
	"finitefield.org/storefront-web/internal/session"
	"finitefield.org/storefront-web/public"
)

// Config holds runtime options for the storefront HTTP server.
type Config struct {
	Address        string
	PublicDir      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	// Heartbeat is the interval between keep-alive comments on the carousel stream.
	Heartbeat      time.Duration
}

// Dependencies are the collaborators handlers need.
type Dependencies struct {
	Logger   *zap.Logger
	Loader   *home.Loader
	Registry *carousel.Registry
	Deferred *home.DeferredStore
	Bundle   *i18n.Bundle
	Sessions *session.Manager
}

// New constructs the HTTP server with its middleware stack and routes.
func New(cfg Config, deps Dependencies) *http.Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      NewRouter(cfg, deps),
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
		ErrorLog:     zap.NewStdLog(logger),
	}
}

// NewRouter builds the routing tree. The carousel stream sits outside the
// request timeout so it can stay open.
func NewRouter(cfg Config, deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := newHandlers(deps, durationOr(cfg.Heartbeat, 25*time.Second))

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.TraceMiddleware())
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Handle("/assets/*", http.StripPrefix("/assets/", assetHandler(cfg.PublicDir, logger)))

	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.Session(deps.Sessions))
		r.Use(custommw.Locale(deps.Bundle))

		r.Get("/carousel/stream", h.CarouselStream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, 15*time.Second)))
			r.Use(chimw.Compress(5))

			r.Get("/", h.Home)
			r.With(custommw.PathLocale(deps.Bundle)).Get("/{locale}", h.Home)
			RegisterFragment(r, "/fragments/recommended/{id}", h.RecommendedFragment)

			r.Post("/carousel/next", h.CarouselNext)
			r.Post("/carousel/prev", h.CarouselPrev)
			r.Post("/carousel/unmount", h.CarouselUnmount)
		})
	})

	return router
}

// RegisterFragment registers an htmx-only GET route.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}

// assetHandler serves assets from publicDir when it exists on disk, and the
// embedded copies otherwise.
func assetHandler(publicDir string, logger *zap.Logger) http.Handler {
	if dir := strings.TrimSpace(publicDir); dir != "" {
		path := filepath.Join(dir, "assets")
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return http.FileServer(http.Dir(path))
		}
		logger.Debug("public dir not found; serving embedded assets", zap.String("path", path))
	}
	embedded, err := public.AssetsFS()
	if err != nil {
		logger.Error("embedded assets unavailable", zap.Error(err))
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(embedded))
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
