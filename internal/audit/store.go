package audit

import "context"

// Store is the append-only event log. Implementations must never mutate
// or delete stored events; the hash chain depends on it.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListByCorrelation returns the full chain for a correlation ID in
	// sequence order. An unknown ID returns an empty slice, not an error.
	ListByCorrelation(ctx context.Context, correlationID string) ([]Event, error)
	// List returns events matching the filter in timestamp order.
	List(ctx context.Context, filter Filter) ([]Event, error)
}
