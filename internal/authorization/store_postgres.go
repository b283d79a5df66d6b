package authorization

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"custos/pkg/platform/sentinel"
)

// PostgresStore persists mappings and change reports in Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema returns the DDL this store expects. Applied by the caller or a
// migration tool.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS agent_tool_mappings (
    agent_id   TEXT PRIMARY KEY,
    tools      TEXT[] NOT NULL,
    revision   INTEGER NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_tool_changes (
    agent_id   TEXT NOT NULL,
    revision   INTEGER NOT NULL,
    added      TEXT[] NOT NULL,
    removed    TEXT[] NOT NULL,
    unchanged  TEXT[] NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (agent_id, revision)
);
`
}

func (s *PostgresStore) Get(ctx context.Context, agentID string) (Mapping, error) {
	var m Mapping
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_id, tools, revision, updated_at FROM agent_tool_mappings WHERE agent_id = $1`,
		agentID,
	).Scan(&m.AgentID, pq.Array(&m.Tools), &m.Revision, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Mapping{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Mapping{}, err
	}
	return m, nil
}

func (s *PostgresStore) Save(ctx context.Context, mapping Mapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_tool_mappings (agent_id, tools, revision, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (agent_id) DO UPDATE
		SET tools = EXCLUDED.tools, revision = EXCLUDED.revision, updated_at = EXCLUDED.updated_at`,
		mapping.AgentID, pq.Array(mapping.Tools), mapping.Revision, mapping.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent_id, tools, revision, updated_at FROM agent_tool_mappings ORDER BY agent_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.AgentID, pq.Array(&m.Tools), &m.Revision, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveChange(ctx context.Context, change ChangeReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_tool_changes (agent_id, revision, added, removed, unchanged, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		change.AgentID, change.Revision,
		pq.Array(change.Added), pq.Array(change.Removed), pq.Array(change.Unchanged),
		change.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) ListChanges(ctx context.Context, agentID string) ([]ChangeReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, revision, added, removed, unchanged, updated_at
		FROM agent_tool_changes WHERE agent_id = $1 ORDER BY revision`,
		agentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeReport
	for rows.Next() {
		var c ChangeReport
		if err := rows.Scan(&c.AgentID, &c.Revision, pq.Array(&c.Added), pq.Array(&c.Removed), pq.Array(&c.Unchanged), &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
