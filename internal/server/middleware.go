package server

import (
	"log/slog"
	"net/http"
	"time"

	"producthot/internal/logging"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger puts a request-scoped logger in the context and logs each request.
func requestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := l
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				reqLog = reqLog.With("request_id", rid)
			}
			r = r.WithContext(logging.Into(r.Context(), reqLog))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			reqLog.LogAttrs(r.Context(), slog.LevelInfo, "server: request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}
