package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"abitur/internal/admission/models"
	dErrors "abitur/pkg/domain-errors"
)

var testPrograms = []models.Program{
	{Code: "PM", Name: "Applied Math", Seats: 2},
	{Code: "IVT", Name: "Informatics", Seats: 2},
	{Code: "IB", Name: "Infosec", Seats: 1},
}

// rec builds an applicant record with priorities listed in rank order.
func rec(id models.ApplicantID, total int, priorities ...models.ProgramID) models.ApplicantRecord {
	r := models.ApplicantRecord{
		ID:    id,
		Score: models.Score{Math: total / 2, PhysicsIT: total - total/2, Total: total},
	}
	for i, p := range priorities {
		r.Priorities = append(r.Priorities, models.ProgramPriority{Program: p, Rank: i + 1})
	}
	return r
}

func withConsent(r models.ApplicantRecord, program models.ProgramID) models.ApplicantRecord {
	r.Consent = &program
	return r
}

func snap(day models.Day, records ...models.ApplicantRecord) models.DaySnapshot {
	return models.DaySnapshot{Day: day, Records: records}
}

func newTestEngine(t *testing.T, policy Policy) *Engine {
	t.Helper()
	e, err := New(testPrograms, policy)
	require.NoError(t, err)
	return e
}

func TestApplyDayCutoffWithFullQuota(t *testing.T) {
	// PM has 2 seats; consenting applicants score 90, 85, 80, 70.
	// The cutoff is the 2nd consenting score, 85; the applicant on 80 is out.
	e := newTestEngine(t, Policy{})

	s := snap("2025-08-01",
		withConsent(rec(1, 90, "PM"), "PM"),
		withConsent(rec(2, 85, "PM"), "PM"),
		withConsent(rec(3, 80, "PM"), "PM"),
		withConsent(rec(4, 70, "PM"), "PM"),
	)
	_, result, err := e.ApplyDay(context.Background(), NewState(), s)
	require.NoError(t, err)

	cutoff, ok := result.CutoffFor("PM")
	require.True(t, ok)
	require.True(t, cutoff.Defined())
	require.Equal(t, 85, *cutoff.Score)
	require.Equal(t, 2, cutoff.Admitted)
	require.Equal(t, 4, cutoff.ConsentCount)

	ranking := result.Rankings["PM"]
	require.True(t, ranking.Entries[0].Admitted)
	require.True(t, ranking.Entries[1].Admitted)
	require.False(t, ranking.Entries[2].Admitted, "score 80 must not be admitted")
	require.False(t, ranking.Entries[3].Admitted)
}

func TestApplyDayUndersubscribedProgram(t *testing.T) {
	// 2 seats, one consenting applicant on 75 and three higher non-consenting
	// scores: the cutoff stays undefined and the consenting applicant is in.
	e := newTestEngine(t, Policy{})

	s := snap("2025-08-01",
		rec(1, 95, "PM"),
		rec(2, 92, "PM"),
		rec(3, 88, "PM"),
		withConsent(rec(4, 75, "PM"), "PM"),
	)
	_, result, err := e.ApplyDay(context.Background(), NewState(), s)
	require.NoError(t, err)

	cutoff, _ := result.CutoffFor("PM")
	require.False(t, cutoff.Defined())
	require.Equal(t, 1, cutoff.Admitted)
	require.Equal(t, 1, cutoff.ConsentCount)

	ranking := result.Rankings["PM"]
	require.Equal(t, models.ApplicantID(4), ranking.Entries[3].ApplicantID)
	require.True(t, ranking.Entries[3].Admitted)
	for i := 0; i < 3; i++ {
		require.False(t, ranking.Entries[i].Admitted)
	}
}

func TestApplyDayNonConsentingScoreNeverMovesCutoff(t *testing.T) {
	e := newTestEngine(t, Policy{})

	base := []models.ApplicantRecord{
		withConsent(rec(1, 90, "PM"), "PM"),
		withConsent(rec(2, 85, "PM"), "PM"),
	}

	for _, nonConsenting := range []int{99, 87, 60} {
		_, result, err := e.ApplyDay(context.Background(), NewState(),
			snap("2025-08-01", append([]models.ApplicantRecord{rec(3, nonConsenting, "PM")}, base...)...))
		require.NoError(t, err)
		cutoff, _ := result.CutoffFor("PM")
		require.True(t, cutoff.Defined())
		require.Equal(t, 85, *cutoff.Score, "non-consenting score %d moved the cutoff", nonConsenting)
	}
}

func TestApplyDayIsIdempotent(t *testing.T) {
	e := newTestEngine(t, Policy{})
	state := NewState()
	s := snap("2025-08-01",
		withConsent(rec(1, 90, "PM", "IVT"), "PM"),
		rec(2, 85, "IVT", "PM"),
		withConsent(rec(3, 80, "IVT"), "IVT"),
	)

	_, first, err := e.ApplyDay(context.Background(), state, s)
	require.NoError(t, err)
	_, second, err := e.ApplyDay(context.Background(), state, s)
	require.NoError(t, err)

	second.AppliedAt = first.AppliedAt
	require.Equal(t, first, second)
}

func TestApplyDayRankingIsStrictTotalOrder(t *testing.T) {
	// Three applicants share a total of 80; ties break by priority rank for
	// the program, then by applicant id.
	e := newTestEngine(t, Policy{})
	s := snap("2025-08-01",
		rec(30, 80, "IVT", "PM"), // PM rank 2
		rec(20, 80, "PM", "IVT"), // PM rank 1
		rec(10, 80, "IVT", "PM"), // PM rank 2, lower id
	)
	_, result, err := e.ApplyDay(context.Background(), NewState(), s)
	require.NoError(t, err)

	got := result.Rankings["PM"].Entries
	require.Len(t, got, 3)
	require.Equal(t, models.ApplicantID(20), got[0].ApplicantID)
	require.Equal(t, models.ApplicantID(10), got[1].ApplicantID)
	require.Equal(t, models.ApplicantID(30), got[2].ApplicantID)
}

func TestApplyDayRejectsOutOfOrderDays(t *testing.T) {
	e := newTestEngine(t, Policy{})
	state, _, err := e.ApplyDay(context.Background(), NewState(), snap("2025-08-02", rec(1, 80, "PM")))
	require.NoError(t, err)

	_, _, err = e.ApplyDay(context.Background(), state, snap("2025-08-01", rec(1, 80, "PM")))
	require.Error(t, err)
	_, _, err = e.ApplyDay(context.Background(), state, snap("2025-08-02", rec(1, 80, "PM")))
	require.Error(t, err)
}

func TestApplyDayRejectsDuplicateApplicant(t *testing.T) {
	e := newTestEngine(t, Policy{})
	_, _, err := e.ApplyDay(context.Background(), NewState(),
		snap("2025-08-01", rec(1, 80, "PM"), rec(1, 80, "IVT")))
	require.Error(t, err)
	require.True(t, dErrors.Is(err, dErrors.CodeMalformedRecord))
}

func TestApplyDayLeavesStateUntouchedOnRejection(t *testing.T) {
	e := newTestEngine(t, Policy{})
	state, _, err := e.ApplyDay(context.Background(), NewState(),
		snap("2025-08-01", withConsent(rec(1, 80, "PM"), "PM")))
	require.NoError(t, err)

	// Score mutation on day two must fail and leave day one's state intact.
	mutated := rec(1, 81, "PM")
	got, _, err := e.ApplyDay(context.Background(), state, snap("2025-08-02", withConsent(mutated, "PM")))
	require.Error(t, err)
	require.True(t, dErrors.Is(err, dErrors.CodeScoreMutated))
	require.Same(t, state, got)
	require.Equal(t, models.Day("2025-08-01"), got.Day)
	require.Equal(t, 80, got.Applicants[1].Score.Total)
}

func TestApplyDayUnifiedPicksBestEligiblePriority(t *testing.T) {
	// Applicant 1 consents to IVT (their rank 2) and is admitted there.
	// Applicant 2 consents to PM (their rank 1) and is admitted there.
	e := newTestEngine(t, Policy{})
	s := snap("2025-08-01",
		withConsent(rec(1, 90, "PM", "IVT"), "IVT"),
		withConsent(rec(2, 85, "PM"), "PM"),
		rec(3, 70, "IB"),
	)
	_, result, err := e.ApplyDay(context.Background(), NewState(), s)
	require.NoError(t, err)

	require.Len(t, result.Unified, 3)

	one := result.Unified[0]
	require.Equal(t, models.ApplicantID(1), one.ApplicantID)
	require.True(t, one.Admitted)
	require.Equal(t, models.ProgramID("IVT"), *one.Program)

	two := result.Unified[1]
	require.True(t, two.Admitted)
	require.Equal(t, models.ProgramID("PM"), *two.Program)

	three := result.Unified[2]
	require.False(t, three.Admitted)
	require.Nil(t, three.Program)
	require.Equal(t, []models.ProgramPriority{{Program: "IB", Rank: 1}}, three.Chain)
}

func TestNewEngineValidation(t *testing.T) {
	_, err := New(nil, Policy{})
	require.Error(t, err)

	_, err = New([]models.Program{{Code: "PM", Seats: 1}, {Code: "PM", Seats: 2}}, Policy{})
	require.Error(t, err)

	_, err = New([]models.Program{{Code: "PM", Seats: -1}}, Policy{})
	require.Error(t, err)
}
