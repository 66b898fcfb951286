package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"torrenthealth/internal/platform/logger"
)

// AccessLog emits one structured line per request
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Str("request_id", RequestID(r.Context())).
				Msg("http request")
		})
	}
}
