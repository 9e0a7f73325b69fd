package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"abitur/internal/admission/models"
)

// PostgresStore persists the audit trail in PostgreSQL. The table is
// append-only; a campaign reset is itself an event, never a row deletion.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id           text PRIMARY KEY,
			action       text NOT NULL,
			day          text NOT NULL DEFAULT '',
			rule         text NOT NULL DEFAULT '',
			applicant_id bigint NOT NULL DEFAULT 0,
			detail       text NOT NULL DEFAULT '',
			created_at   timestamptz NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, day, rule, applicant_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, string(event.Action), string(event.Day), event.Rule,
		int64(event.ApplicantID), event.Detail, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, day, rule, applicant_id, detail, created_at
		FROM audit_events ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			action, day string
			applicantID int64
			createdAt   time.Time
		)
		if err := rows.Scan(&event.ID, &action, &day, &event.Rule,
			&applicantID, &event.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = Action(action)
		event.Day = models.Day(day)
		event.ApplicantID = models.ApplicantID(applicantID)
		event.Timestamp = createdAt
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
