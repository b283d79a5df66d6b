package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"custos/pkg/requestcontext"
)

// CorrelationHeader carries the correlation ID linking an HTTP request
// to its audit chain.
const CorrelationHeader = "X-Correlation-Id"

// Correlation reads the correlation ID from the request, generating one
// when absent, and echoes it on the response so callers can follow the
// chain they started.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(CorrelationHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx := requestcontext.WithCorrelationID(r.Context(), correlationID)
		ctx = requestcontext.WithRequestID(ctx, chimiddleware.GetReqID(ctx))
		w.Header().Set(CorrelationHeader, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger emits one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("correlation_id", requestcontext.CorrelationID(r.Context())))
		})
	}
}
