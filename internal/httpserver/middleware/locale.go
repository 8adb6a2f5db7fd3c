package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finitefield.org/storefront-web/internal/i18n"
)

const localeContextKey contextKey = "locale"

// LocaleInfo describes the locale of the current request.
type LocaleInfo struct {
	// Route is the locale segment used in links, empty on unprefixed paths.
	Route string
	// Lang selects labels and the storefront context.
	Lang  string
}

// Locale resolves labels from Accept-Language, or from a supported ?locale= value.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := LocaleInfo{Lang: bundle.Resolve(r.Header.Get("Accept-Language"))}
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("locale"))); q != "" && bundle.IsSupported(q) {
				info = LocaleInfo{Route: q, Lang: q}
			}
			w.Header().Add("Vary", "Accept-Language")
			w.Header().Set("Content-Language", info.Lang)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeContextKey, info)))
		})
	}
}

// PathLocale validates the {locale} route segment. Unsupported locales 404.
func PathLocale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			segment := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "locale")))
			if segment == "" || !bundle.IsSupported(segment) {
				http.NotFound(w, r)
				return
			}
			info := LocaleInfo{Route: segment, Lang: segment}
			w.Header().Set("Content-Language", info.Lang)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeContextKey, info)))
		})
	}
}

// LocaleFromContext returns the request locale, or lang as a fallback.
func LocaleFromContext(ctx context.Context, fallback string) LocaleInfo {
	if info, ok := ctx.Value(localeContextKey).(LocaleInfo); ok {
		return info
	}
	return LocaleInfo{Lang: fallback}
}
