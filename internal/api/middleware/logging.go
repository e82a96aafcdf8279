package middleware

import (
	"net/http"
	"time"

	"libraryapi/pkg/logger"
)

func Logging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := wrap(w)
			next.ServeHTTP(rw, r)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			}

			switch {
			case rw.statusCode >= 500:
				log.ErrorContext(r.Context(), "Request completed", fields)
			case rw.statusCode >= 400:
				log.WarnContext(r.Context(), "Request completed", fields)
			default:
				log.InfoContext(r.Context(), "Request completed", fields)
			}
		})
	}
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
