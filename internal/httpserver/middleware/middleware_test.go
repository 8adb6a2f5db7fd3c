package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"finitefield.org/storefront-web/internal/i18n"
	"finitefield.org/storefront-web/internal/platform/requestctx"
	"finitefield.org/storefront-web/internal/session"
	"finitefield.org/storefront-web/locales"
)

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.Load(locales.FS, "en-us", []string{"en-us", "en-ca", "ja-jp"})
	require.NoError(t, err)
	return b
}

func TestHTMXCapturesHeaders(t *testing.T) {
	var got HTMXInfo
	h := HTMX()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = HTMXInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/carousel/next", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "carousel")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, got.IsHTMX)
	require.Equal(t, "carousel", got.Target)
}

func TestRequireHTMX(t *testing.T) {
	h := HTMX()(RequireHTMX()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fragments/recommended/x", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/fragments/recommended/x", nil)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, "HX-Request", rec.Header().Get("Vary"))
}

func TestLocaleResolvesQueryThenAcceptLanguage(t *testing.T) {
	bundle := testBundle(t)
	var got LocaleInfo
	h := Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context(), "")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ja")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, LocaleInfo{Lang: "ja-jp"}, got)
	require.Equal(t, "ja-jp", rec.Header().Get("Content-Language"))
	require.Equal(t, "Accept-Language", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodPost, "/carousel/next?locale=EN-CA", nil)
	req.Header.Set("Accept-Language", "ja")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, LocaleInfo{Route: "en-ca", Lang: "en-ca"}, got)

	req = httptest.NewRequest(http.MethodPost, "/carousel/next?locale=fr-fr", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, LocaleInfo{Lang: "en-us"}, got)
}

func TestPathLocale(t *testing.T) {
	bundle := testBundle(t)
	var got LocaleInfo
	router := chi.NewRouter()
	router.With(PathLocale(bundle)).Get("/{locale}", func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context(), "")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ja-jp", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, LocaleInfo{Route: "ja-jp", Lang: "ja-jp"}, got)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/de-de", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionIssuesVisitorOnce(t *testing.T) {
	mgr, err := session.NewManager(session.Config{})
	require.NoError(t, err)

	var ids []string
	h := Session(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := VisitorFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, v.ID, requestctx.VisitorID(r.Context()))
		ids = append(ids, v.ID)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Empty(t, rec.Result().Cookies())

	require.Len(t, ids, 2)
	require.Equal(t, ids[0], ids[1])
}
