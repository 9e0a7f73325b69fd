// Package service owns the running campaign: it serializes day application
// against the engine, persists accepted day results, and answers the query
// surface the HTTP layer and report renderer read from.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"abitur/internal/admission/engine"
	"abitur/internal/admission/metrics"
	"abitur/internal/admission/models"
	"abitur/internal/admission/store"
	"abitur/internal/audit"
	"abitur/internal/platform/redis"
	dErrors "abitur/pkg/domain-errors"
	"abitur/pkg/platform/sentinel"
)

const cacheKeyPrefix = "abitur:day_result:"

// Service applies snapshots for one campaign and serves its history. The
// engine allows at most one in-flight apply per campaign; the internal mutex
// enforces that here so callers don't have to.
type Service struct {
	engine *engine.Engine
	store  store.Store

	mu    sync.Mutex
	state *engine.State

	cache    *redis.Client
	cacheTTL time.Duration
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache enables read-through caching of day results.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = client
		s.cacheTTL = ttl
	}
}

func WithAuditor(auditor *audit.Publisher) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a campaign service.
func New(eng *engine.Engine, st store.Store, opts ...Option) (*Service, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{
		engine: eng,
		store:  st,
		state:  engine.NewState(),
		logger: slog.Default(),
		tracer: otel.Tracer("abitur/admission"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Programs returns the campaign's programs in display order.
func (s *Service) Programs() []models.Program {
	return s.engine.Programs()
}

// ApplyDay validates and applies one snapshot atomically. On success the
// result is persisted and the running state advances; on any failure the
// state is untouched and the violation is surfaced with the offending
// applicant and rule.
func (s *Service) ApplyDay(ctx context.Context, snapshot models.DaySnapshot) (*models.DayResult, error) {
	ctx, span := s.tracer.Start(ctx, "admission.apply_day",
		trace.WithAttributes(
			attribute.String("day", string(snapshot.Day)),
			attribute.Int("applicants", len(snapshot.Records)),
		))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	next, result, err := s.engine.ApplyDay(ctx, s.state, snapshot)
	if err != nil {
		span.RecordError(err)
		s.recordRejection(ctx, snapshot.Day, err)
		var v *engine.RuleViolation
		if errors.As(err, &v) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "snapshot rejected")
	}

	if err := s.store.SaveDayResult(ctx, result); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "day %s already applied", snapshot.Day)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist day result")
	}
	s.state = next

	s.cacheSet(ctx, result)
	s.emitAudit(ctx, audit.Event{Action: audit.ActionDayAccepted, Day: result.Day})
	if s.metrics != nil {
		s.metrics.ObserveApply(time.Since(start), len(snapshot.Records))
		for _, c := range result.Cutoffs {
			s.metrics.SetProgramConsents(string(c.Program), c.ConsentCount)
		}
	}
	s.logger.InfoContext(ctx, "day applied",
		"day", string(result.Day),
		"applicants", len(snapshot.Records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *Service) recordRejection(ctx context.Context, day models.Day, err error) {
	event := audit.Event{Action: audit.ActionDayRejected, Day: day, Detail: err.Error()}
	var v *engine.RuleViolation
	if errors.As(err, &v) {
		event.Rule = string(v.Rule)
		event.ApplicantID = v.Applicant
		if s.metrics != nil {
			s.metrics.ObserveRejection(string(v.Rule))
		}
	}
	s.emitAudit(ctx, event)
	s.logger.WarnContext(ctx, "day rejected",
		"day", string(day),
		"error", err.Error(),
	)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "error", err)
	}
}

// Reset clears the whole campaign history and running state.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "reset campaign history")
	}
	s.state = engine.NewState()
	s.cachePurge(ctx)
	s.emitAudit(ctx, audit.Event{Action: audit.ActionCampaignReset})
	s.logger.InfoContext(ctx, "campaign reset")
	return nil
}

// Days lists accepted days in calendar order.
func (s *Service) Days(ctx context.Context) ([]models.Day, error) {
	days, err := s.store.ListDays(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list days")
	}
	return days, nil
}

// DayResult fetches one day's result; an empty day means the latest one.
func (s *Service) DayResult(ctx context.Context, day models.Day) (*models.DayResult, error) {
	if day == "" {
		latest, err := s.store.LatestDay(ctx)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "no days applied yet")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve latest day")
		}
		day = latest
	}

	if cached := s.cacheGet(ctx, day); cached != nil {
		return cached, nil
	}

	result, err := s.store.GetDayResult(ctx, day)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no result for day %s", day)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load day result")
	}
	s.cacheSet(ctx, result)
	return result, nil
}

// RankingPage is one page of a program's ranking table.
type RankingPage struct {
	Program  models.ProgramID      `json:"program"`
	Day      models.Day            `json:"day"`
	Entries  []models.RankingEntry `json:"entries"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Total    int                   `json:"total"`
}

// Ranking returns one page of a program's ranking for a day.
func (s *Service) Ranking(ctx context.Context, day models.Day, program models.ProgramID, page, pageSize int) (*RankingPage, error) {
	result, err := s.DayResult(ctx, day)
	if err != nil {
		return nil, err
	}
	ranking, ok := result.Ranking(program)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown program %s", program)
	}

	if pageSize < 1 {
		pageSize = 200
	}
	if page < 1 {
		page = 1
	}
	total := len(ranking.Entries)
	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}

	return &RankingPage{
		Program:  program,
		Day:      result.Day,
		Entries:  ranking.Entries[from:to],
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// Cutoffs returns the cutoff table for a day.
func (s *Service) Cutoffs(ctx context.Context, day models.Day) ([]models.Cutoff, error) {
	result, err := s.DayResult(ctx, day)
	if err != nil {
		return nil, err
	}
	return result.Cutoffs, nil
}

// Unified returns the unified applicant list for a day.
func (s *Service) Unified(ctx context.Context, day models.Day) ([]models.UnifiedEntry, error) {
	result, err := s.DayResult(ctx, day)
	if err != nil {
		return nil, err
	}
	return result.Unified, nil
}

func (s *Service) cacheGet(ctx context.Context, day models.Day) *models.DayResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, cacheKeyPrefix+string(day)).Bytes()
	if err != nil {
		return nil
	}
	var result models.DayResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *Service) cacheSet(ctx context.Context, result *models.DayResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+string(result.Day), raw, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "day", string(result.Day), "error", err)
	}
}

func (s *Service) cachePurge(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, cacheKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.WarnContext(ctx, "cache purge failed", "key", iter.Val(), "error", err)
			return
		}
	}
}
