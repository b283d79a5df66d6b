package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists the event log in the audit_events table.
// Appends are plain inserts; the table carries no UPDATE or DELETE path
// so the append-only invariant holds at the schema level too.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema returns the DDL for the audit_events table. Callers own
// migrations; tests apply it directly.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS audit_events (
	correlation_id TEXT        NOT NULL,
	sequence       INTEGER     NOT NULL,
	event_type     TEXT        NOT NULL,
	subject        TEXT        NOT NULL DEFAULT '',
	action         TEXT        NOT NULL DEFAULT '',
	resource       TEXT        NOT NULL DEFAULT '',
	decision       TEXT        NOT NULL DEFAULT '',
	reason         TEXT        NOT NULL DEFAULT '',
	ts             TIMESTAMPTZ NOT NULL,
	prev_hash      TEXT        NOT NULL,
	integrity_hash TEXT        NOT NULL,
	PRIMARY KEY (correlation_id, sequence)
);
CREATE INDEX IF NOT EXISTS audit_events_ts_idx ON audit_events (ts);
CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject);
`
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (
			correlation_id, sequence, event_type, subject, action,
			resource, decision, reason, ts, prev_hash, integrity_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.CorrelationID,
		event.Sequence,
		string(event.EventType),
		event.Subject,
		event.Action,
		event.Resource,
		string(event.Decision),
		event.Reason,
		event.Timestamp,
		event.PrevHash,
		event.IntegrityHash,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCorrelation(ctx context.Context, correlationID string) ([]Event, error) {
	query := `
		SELECT correlation_id, sequence, event_type, subject, action,
		       resource, decision, reason, ts, prev_hash, integrity_hash
		FROM audit_events
		WHERE correlation_id = $1
		ORDER BY sequence ASC
	`
	rows, err := s.db.QueryContext(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query chain: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CorrelationID != "" {
		add("correlation_id = $%d", filter.CorrelationID)
	}
	if filter.Subject != "" {
		add("subject = $%d", filter.Subject)
	}
	if filter.Decision != "" {
		add("decision = $%d", string(filter.Decision))
	}
	if filter.Resource != "" {
		add("resource = $%d", filter.Resource)
	}
	if filter.Action != "" {
		add("action = $%d", filter.Action)
	}
	if filter.EventType != "" {
		add("event_type = $%d", string(filter.EventType))
	}
	if !filter.From.IsZero() {
		add("ts >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("ts <= $%d", filter.To)
	}

	query := `
		SELECT correlation_id, sequence, event_type, subject, action,
		       resource, decision, reason, ts, prev_hash, integrity_hash
		FROM audit_events
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e         Event
			eventType string
			decision  string
			ts        time.Time
		)
		if err := rows.Scan(
			&e.CorrelationID, &e.Sequence, &eventType, &e.Subject, &e.Action,
			&e.Resource, &decision, &e.Reason, &ts, &e.PrevHash, &e.IntegrityHash,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.EventType = EventType(eventType)
		e.Decision = Decision(decision)
		e.Timestamp = ts.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
