package store

import (
	"context"
	"sort"
	"sync"

	"abitur/internal/admission/models"
	"abitur/pkg/platform/sentinel"
)

// InMemoryStore keeps day results in process memory. Day results are
// immutable by contract, so reads hand back the stored pointer.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[models.Day]*models.DayResult
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{results: make(map[models.Day]*models.DayResult)}
}

func (s *InMemoryStore) SaveDayResult(_ context.Context, result *models.DayResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.Day]; exists {
		return sentinel.ErrConflict
	}
	s.results[result.Day] = result
	return nil
}

func (s *InMemoryStore) GetDayResult(_ context.Context, day models.Day) (*models.DayResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[day]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return result, nil
}

func (s *InMemoryStore) LatestDay(_ context.Context) (models.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest models.Day
	for day := range s.results {
		if day > latest {
			latest = day
		}
	}
	if latest == "" {
		return "", sentinel.ErrNotFound
	}
	return latest, nil
}

func (s *InMemoryStore) ListDays(_ context.Context) ([]models.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := make([]models.Day, 0, len(s.results))
	for day := range s.results {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func (s *InMemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[models.Day]*models.DayResult)
	return nil
}
