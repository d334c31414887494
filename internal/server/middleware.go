package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// chain wraps next with request logging and panic recovery.
func chain(logger *slog.Logger, next http.Handler) http.Handler {
	return loggingMiddleware(logger, panicRecoveryMiddleware(logger, next))
}

// loggingMiddleware logs method, path, status, duration and remote addr.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Debug("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.statusCode),
			slog.Duration("duration", time.Since(start)),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

func panicRecoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("HTTP handler panic",
					slog.Any("panic", err),
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method),
					logfields.RemoteAddr(r.RemoteAddr))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cacheControl sets Cache-Control by asset type. Output files are rewritten
// in place on every rebuild, so pages and assets always revalidate.
func cacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := determineCacheControl(r.URL.Path); v != "" {
			w.Header().Set("Cache-Control", v)
		}
		next.ServeHTTP(w, r)
	})
}

func determineCacheControl(path string) string {
	switch {
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".ico"):
		return "public, max-age=3600"
	case strings.HasSuffix(path, ".css"), strings.HasSuffix(path, ".js"),
		strings.HasSuffix(path, ".html"), strings.HasSuffix(path, "/"):
		return "no-cache"
	default:
		return ""
	}
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
