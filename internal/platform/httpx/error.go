package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"finitefield.org/storefront-web/internal/platform/requestctx"
)

// Error is the JSON body the carousel routes answer with when the caller
// is not htmx: scripts polling /carousel/next or the bubbletea client.
type Error struct {
	Code      string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError builds an envelope. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    clip(code, 80),
		Message: clip(message, 512),
		Status:  status,
	}
}

// Unavailable reports that the visitor has no carousel to act on. The
// client can reload the home page and retry.
func Unavailable(code, reason string) Error {
	e := NewError(code, reason, http.StatusConflict)
	e.Retryable = true
	return e
}

// WriteError encodes err, filling the request and trace ids from ctx so a
// carousel failure can be matched to its access log line.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	if err.RequestID == "" {
		err.RequestID = clip(middleware.GetReqID(ctx), 80)
	}
	if err.TraceID == "" {
		err.TraceID = clip(requestctx.TraceID(ctx), 64)
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(err)
}

// clip keeps envelope fields on one line and bounded.
func clip(value string, limit int) string {
	value = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
