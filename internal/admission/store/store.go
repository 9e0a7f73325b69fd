// Package store persists the append-only history of day results. Stores
// return sentinel errors for infrastructure facts; the service layer
// translates them into domain errors.
package store

import (
	"context"

	"abitur/internal/admission/models"
)

// Store is the persistence boundary for accepted day results. History is
// append-only: a day is written once and never updated; Reset clears the
// whole campaign.
type Store interface {
	SaveDayResult(ctx context.Context, result *models.DayResult) error
	GetDayResult(ctx context.Context, day models.Day) (*models.DayResult, error)
	LatestDay(ctx context.Context) (models.Day, error)
	ListDays(ctx context.Context) ([]models.Day, error)
	Reset(ctx context.Context) error
}
