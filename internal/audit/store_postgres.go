package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradedesk/pkg/domain"
)

// PostgresStore persists the decision trail in Postgres. The caller opens
// the database with the lib/pq driver and owns its lifecycle.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the audit table when absent. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          TEXT PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	actor_role  TEXT NOT NULL,
	action      TEXT NOT NULL,
	kind        TEXT NOT NULL DEFAULT '',
	subject_id  TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_occurred_at_idx ON audit_events (occurred_at DESC);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const insert = `
INSERT INTO audit_events (id, occurred_at, actor_role, action, kind, subject_id, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, insert,
		event.ID,
		event.Timestamp.UTC(),
		string(event.ActorRole),
		string(event.Action),
		string(event.Kind),
		event.SubjectID,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, occurred_at, actor_role, action, kind, subject_id, reason
FROM audit_events
ORDER BY occurred_at DESC
LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event      Event
			occurredAt time.Time
			actorRole  string
			action     string
			kind       string
		)
		if err := rows.Scan(&event.ID, &occurredAt, &actorRole, &action, &kind, &event.SubjectID, &event.Reason); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Timestamp = occurredAt
		event.ActorRole = domain.Role(actorRole)
		event.Action = Action(action)
		event.Kind = domain.RequestKind(kind)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
