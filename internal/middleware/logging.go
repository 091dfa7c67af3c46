// Package middleware provides HTTP middleware for the caroumate API.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture the status code
// and the body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
	written    bool
}

// WriteHeader captures the status code before writing it.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write ensures a default 200 status if WriteHeader was never called.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// requestLog holds fields learnt by middleware nested inside Logger.
type requestLog struct {
	user string
}

type requestLogKey struct{}

// noteUser records the caller on the enclosing Logger's entry, if any.
func noteUser(ctx context.Context, id string) {
	if e, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		e.user = id
	}
}

// requestUser returns the caller as far as it is known for r.
func requestUser(r *http.Request) string {
	if id := UserFromCtx(r.Context()); id != "" {
		return id
	}
	if e, ok := r.Context().Value(requestLogKey{}).(*requestLog); ok {
		return e.user
	}
	return ""
}

// Logger writes one structured line per request. Server errors log at
// error level and client errors at warn. The user id is the one
// RequireUser accepted further down the chain.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := &requestLog{}
		r = r.WithContext(context.WithValue(r.Context(), requestLogKey{}, entry))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		level := slog.LevelInfo
		switch {
		case wrapped.statusCode >= 500:
			level = slog.LevelError
		case wrapped.statusCode >= 400:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.statusCode),
			slog.Int("bytes", wrapped.bytes),
			slog.String("duration", time.Since(start).String()),
			slog.String("remote", r.RemoteAddr),
		}
		if entry.user != "" {
			attrs = append(attrs, slog.String("user_id", entry.user))
		}
		if id := chimw.GetReqID(r.Context()); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		slog.LogAttrs(r.Context(), level, "http request", attrs...)
	})
}
