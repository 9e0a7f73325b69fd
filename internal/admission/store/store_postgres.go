package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"abitur/internal/admission/models"
	"abitur/pkg/platform/sentinel"
)

// PostgresStore persists day results in PostgreSQL. The result document is
// stored whole as JSONB: the engine already guarantees immutability per day,
// and every query pattern the service needs is by day key.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed day result store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS day_results (
			day        text PRIMARY KEY,
			applied_at timestamptz NOT NULL,
			result     jsonb NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate day_results: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveDayResult(ctx context.Context, result *models.DayResult) error {
	doc, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal day result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO day_results (day, applied_at, result) VALUES ($1, $2, $3)`,
		string(result.Day), result.AppliedAt, doc)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save day result: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDayResult(ctx context.Context, day models.Day) (*models.DayResult, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM day_results WHERE day = $1`, string(day)).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get day result: %w", err)
	}
	var result models.DayResult
	if err := json.Unmarshal(doc, &result); err != nil {
		return nil, fmt.Errorf("unmarshal day result: %w", err)
	}
	return &result, nil
}

func (s *PostgresStore) LatestDay(ctx context.Context) (models.Day, error) {
	var day string
	err := s.db.QueryRowContext(ctx,
		`SELECT day FROM day_results ORDER BY day DESC LIMIT 1`).Scan(&day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("latest day: %w", err)
	}
	return models.Day(day), nil
}

func (s *PostgresStore) ListDays(ctx context.Context) ([]models.Day, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day FROM day_results ORDER BY day ASC`)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var days []models.Day
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, models.Day(day))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return days, nil
}

func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM day_results`); err != nil {
		return fmt.Errorf("reset day results: %w", err)
	}
	return nil
}
