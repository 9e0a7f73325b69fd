package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"abitur/internal/admission/engine"
	"abitur/internal/admission/models"
	"abitur/internal/admission/store"
	"abitur/internal/audit"
	dErrors "abitur/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite

	store   *store.InMemoryStore
	auditor *audit.Publisher
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	eng, err := engine.New([]models.Program{
		{Code: "PM", Name: "Applied Math", Seats: 1},
		{Code: "IVT", Name: "Informatics", Seats: 1},
	}, engine.Policy{})
	s.Require().NoError(err)

	s.store = store.NewInMemory()
	s.auditor = audit.NewPublisher(audit.NewInMemoryStore())
	s.service, err = New(eng, s.store,
		WithLogger(slog.Default()),
		WithAuditor(s.auditor),
	)
	s.Require().NoError(err)
}

func record(id int64, total int, consent models.ProgramID, programs ...models.ProgramID) models.ApplicantRecord {
	rec := models.ApplicantRecord{
		ID: models.ApplicantID(id),
		Score: models.Score{
			PhysicsIT: total - 100, Russian: 50, Math: 50, Total: total,
		},
	}
	for i, p := range programs {
		rec.Priorities = append(rec.Priorities, models.ProgramPriority{Program: p, Rank: i + 1})
	}
	if consent != "" {
		rec.Consent = &consent
	}
	return rec
}

func (s *ServiceSuite) firstDay() models.DaySnapshot {
	return models.DaySnapshot{
		Day: "2025-08-01",
		Records: []models.ApplicantRecord{
			record(100001, 280, "PM", "PM", "IVT"),
			record(100002, 260, "", "PM"),
			record(100003, 250, "IVT", "IVT"),
		},
	}
}

func (s *ServiceSuite) TestApplyDayPersistsAndServesQueries() {
	ctx := context.Background()

	result, err := s.service.ApplyDay(ctx, s.firstDay())
	s.Require().NoError(err)
	s.Require().Equal(models.Day("2025-08-01"), result.Day)

	days, err := s.service.Days(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]models.Day{"2025-08-01"}, days)

	// Empty day resolves to the latest applied one.
	latest, err := s.service.DayResult(ctx, "")
	s.Require().NoError(err)
	s.Require().Equal(result.Day, latest.Day)

	cutoffs, err := s.service.Cutoffs(ctx, "2025-08-01")
	s.Require().NoError(err)
	s.Require().Len(cutoffs, 2)
	s.Require().Equal(models.ProgramID("PM"), cutoffs[0].Program)
	s.Require().True(cutoffs[0].Defined())
	s.Require().Equal(280, *cutoffs[0].Score)

	unified, err := s.service.Unified(ctx, "2025-08-01")
	s.Require().NoError(err)
	s.Require().Len(unified, 3)

	events, err := s.auditor.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Require().Equal(audit.ActionDayAccepted, events[0].Action)
}

func (s *ServiceSuite) TestApplyDayRejectionLeavesHistoryIntact() {
	ctx := context.Background()

	_, err := s.service.ApplyDay(ctx, s.firstDay())
	s.Require().NoError(err)

	// Same applicant comes back with a different total: rejected atomically.
	mutated := models.DaySnapshot{
		Day: "2025-08-02",
		Records: []models.ApplicantRecord{
			record(100001, 281, "PM", "PM", "IVT"),
			record(100002, 260, "", "PM"),
			record(100003, 250, "IVT", "IVT"),
		},
	}
	_, err = s.service.ApplyDay(ctx, mutated)
	s.Require().Error(err)

	var violation *engine.RuleViolation
	s.Require().ErrorAs(err, &violation)
	s.Require().Equal(engine.RuleScoreMutated, violation.Rule)
	s.Require().Equal(models.ApplicantID(100001), violation.Applicant)

	days, err := s.service.Days(ctx)
	s.Require().NoError(err)
	s.Require().Equal([]models.Day{"2025-08-01"}, days)

	events, err := s.auditor.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	rejected := events[1]
	s.Require().Equal(audit.ActionDayRejected, rejected.Action)
	s.Require().Equal(string(engine.RuleScoreMutated), rejected.Rule)
	s.Require().Equal(models.ApplicantID(100001), rejected.ApplicantID)
}

func (s *ServiceSuite) TestApplyDayConflictsWithPersistedDay() {
	ctx := context.Background()

	// History written by a previous process: the store already holds the day
	// even though this service's running state is fresh.
	prior, err := s.service.ApplyDay(ctx, s.firstDay())
	s.Require().NoError(err)

	eng, err := engine.New(s.service.Programs(), engine.Policy{})
	s.Require().NoError(err)
	restarted, err := New(eng, s.store)
	s.Require().NoError(err)

	_, err = restarted.ApplyDay(ctx, s.firstDay())
	s.Require().True(dErrors.Is(err, dErrors.CodeConflict))

	stored, err := restarted.DayResult(ctx, prior.Day)
	s.Require().NoError(err)
	s.Require().Equal(prior.Day, stored.Day)
}

func (s *ServiceSuite) TestRankingPaging() {
	ctx := context.Background()

	_, err := s.service.ApplyDay(ctx, s.firstDay())
	s.Require().NoError(err)

	page, err := s.service.Ranking(ctx, "2025-08-01", "PM", 1, 1)
	s.Require().NoError(err)
	s.Require().Equal(2, page.Total)
	s.Require().Len(page.Entries, 1)
	s.Require().Equal(models.ApplicantID(100001), page.Entries[0].ApplicantID)

	page, err = s.service.Ranking(ctx, "2025-08-01", "PM", 2, 1)
	s.Require().NoError(err)
	s.Require().Len(page.Entries, 1)
	s.Require().Equal(models.ApplicantID(100002), page.Entries[0].ApplicantID)

	page, err = s.service.Ranking(ctx, "2025-08-01", "PM", 5, 1)
	s.Require().NoError(err)
	s.Require().Empty(page.Entries)

	_, err = s.service.Ranking(ctx, "2025-08-01", "NOPE", 1, 10)
	s.Require().True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestResetClearsHistoryAndState() {
	ctx := context.Background()

	_, err := s.service.ApplyDay(ctx, s.firstDay())
	s.Require().NoError(err)

	s.Require().NoError(s.service.Reset(ctx))

	days, err := s.service.Days(ctx)
	s.Require().NoError(err)
	s.Require().Empty(days)

	_, err = s.service.DayResult(ctx, "")
	s.Require().True(dErrors.Is(err, dErrors.CodeNotFound))

	// The same first day applies cleanly again after a reset.
	_, err = s.service.ApplyDay(ctx, s.firstDay())
	s.Require().NoError(err)

	events, err := s.auditor.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Require().Equal(audit.ActionCampaignReset, events[1].Action)
}

func (s *ServiceSuite) TestQueryUnknownDay() {
	_, err := s.service.DayResult(context.Background(), "2025-08-09")
	require.True(s.T(), dErrors.Is(err, dErrors.CodeNotFound))
}
