package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"finitefield.org/storefront-web/internal/platform/requestctx"
)

func TestRequestLoggerRecordsStatusAndRoute(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(InjectLoggerMiddleware(logger))
	r.Use(TraceMiddleware())
	r.Use(RequestLoggerMiddleware())
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, requestctx.TraceID(r.Context()))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.EqualValues(t, http.StatusTeapot, fields["status"])
	require.Equal(t, "/things/{id}", fields["route"])
	require.EqualValues(t, 2, fields["bytes"])
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestRecoveryMiddlewareWritesEnvelope(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carousel/next", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "internal_server_error", payload["error"])
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestResponseRecorderUnwraps(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := newResponseRecorder(rec)
	require.Same(t, rec, wrapped.Unwrap())
	wrapped.Flush()
	require.True(t, rec.Flushed)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("verbose")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestSanitizeRequestAttributes(t *testing.T) {
	require.Equal(t, "/", SanitizeRoute(""))
	require.Equal(t, "/fragments/recommended/{id}", SanitizeRoute("/fragments/recommended/{id}"))
	require.Equal(t, "/carousel/nextforged=1", SanitizePath("/carousel/next\r\nforged=1"))
	require.Len(t, []rune(SanitizePath("/ja-jp/"+strings.Repeat("é", 300))), pathLimit)
	require.Equal(t, "POST", SanitizeMethod("post"))
	require.Equal(t, "GETGETGETG", SanitizeMethod(strings.Repeat("GET", 5)))
}
