package authorization

import "context"

// Store persists agent tool mappings and their change history.
// Implementations return sentinel.ErrNotFound for unknown agents.
type Store interface {
	Get(ctx context.Context, agentID string) (Mapping, error)
	Save(ctx context.Context, mapping Mapping) error
	List(ctx context.Context) ([]Mapping, error)
	SaveChange(ctx context.Context, change ChangeReport) error
	ListChanges(ctx context.Context, agentID string) ([]ChangeReport, error)
}
