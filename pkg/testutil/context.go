package testutil

import (
	"context"
	"net/http"

	"custos/pkg/requestcontext"
)

// WithCorrelationID adds a correlation ID to the request context.
// This simulates what the correlation middleware does for real requests.
func WithCorrelationID(req *http.Request, corrID string) *http.Request {
	ctx := requestcontext.WithCorrelationID(req.Context(), corrID)
	return req.WithContext(ctx)
}

// WithActor adds an acting identity to the request context.
func WithActor(req *http.Request, actor string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), actor)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
