package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/platform/requestctx"
	"finitefield.org/storefront-web/internal/session"
)

const visitorContextKey contextKey = "visitor"

// Session loads the visitor cookie, issuing a new visitor when absent.
func Session(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitor, fresh := mgr.Load(r)
			logger := requestctx.Logger(r.Context())
			if fresh {
				if err := mgr.Save(w, visitor); err != nil {
					logger.Warn("session: save visitor failed", zap.Error(err))
				}
			}

			ctx := context.WithValue(r.Context(), visitorContextKey, visitor)
			ctx = requestctx.WithVisitorID(ctx, visitor.ID)
			ctx = requestctx.WithLogger(ctx, logger.With(zap.String("visitor_id", visitor.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VisitorFromContext returns the visitor loaded by Session.
func VisitorFromContext(ctx context.Context) (session.Visitor, bool) {
	v, ok := ctx.Value(visitorContextKey).(session.Visitor)
	return v, ok
}
