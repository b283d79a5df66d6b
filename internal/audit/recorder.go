package audit

import (
	"context"
	"sync"

	"custos/internal/integrity"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Recorder assigns sequence numbers and chains integrity hashes before
// handing events to the store. Appends for the same correlation ID are
// serialized so the chain order is total; different chains proceed
// concurrently.
type Recorder struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRecorder(store Store) (*Recorder, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "audit store is required")
	}
	return &Recorder{store: store, locks: make(map[string]*sync.Mutex)}, nil
}

// Append stamps the event with the next sequence number and chained
// hash, then persists it. The stored event is returned.
func (r *Recorder) Append(ctx context.Context, event Event) (Event, error) {
	if event.CorrelationID == "" {
		return Event{}, dErrors.New(dErrors.CodeValidation, "correlation_id is required")
	}
	if event.EventType == "" {
		return Event{}, dErrors.New(dErrors.CodeValidation, "event_type is required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}

	lock := r.chainLock(event.CorrelationID)
	lock.Lock()
	defer lock.Unlock()

	chain, err := r.store.ListByCorrelation(ctx, event.CorrelationID)
	if err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "read chain tail")
	}

	prevHash := integrity.GenesisHash
	if len(chain) > 0 {
		tail := chain[len(chain)-1]
		event.Sequence = tail.Sequence + 1
		prevHash = tail.IntegrityHash
	} else {
		event.Sequence = 1
	}
	event.PrevHash = prevHash

	digest, err := integrity.Digest(event.Payload(), prevHash)
	if err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "compute event digest")
	}
	event.IntegrityHash = digest

	if err := r.store.Append(ctx, event); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "append audit event")
	}
	return event, nil
}

// List exposes filtered reads for the decision listing boundary.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]Event, error) {
	return r.store.List(ctx, filter)
}

func (r *Recorder) chainLock(correlationID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[correlationID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[correlationID] = lock
	}
	return lock
}
