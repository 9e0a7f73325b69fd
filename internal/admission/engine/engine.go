// Package engine is the pure admission allocation core. It turns a sequence
// of daily applicant snapshots into per-program rankings, passing scores and
// a consolidated applicant-centric outcome.
//
// The engine owns no I/O and keeps no hidden state: applying a day is a pure
// function of (previous state, snapshot) -> (next state, day result). Days
// must be applied strictly in calendar order; a day is either applied whole
// or rejected whole.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"abitur/internal/admission/models"
)

// State is the running campaign state threaded through ApplyDay calls. It is
// never mutated in place: each accepted day yields a fresh State.
type State struct {
	Day        models.Day
	Applicants map[models.ApplicantID]ApplicantState
}

// ApplicantState is what the engine remembers about one applicant between
// days: the score frozen at first submission and the consent machine state.
type ApplicantState struct {
	Score   models.Score
	Consent ConsentState
}

// NewState returns the empty state a campaign starts from.
func NewState() *State {
	return &State{Applicants: map[models.ApplicantID]ApplicantState{}}
}

// Engine applies day snapshots for one campaign. The quota set and policy
// are fixed at construction; Engine itself is immutable and safe for
// concurrent readers, though callers must serialize ApplyDay per state line.
type Engine struct {
	programs map[models.ProgramID]models.Program
	order    []models.ProgramID
	policy   Policy
}

// New builds an engine over the campaign's program quota set.
func New(programs []models.Program, policy Policy) (*Engine, error) {
	if len(programs) == 0 {
		return nil, fmt.Errorf("at least one program is required")
	}
	byCode := make(map[models.ProgramID]models.Program, len(programs))
	order := make([]models.ProgramID, 0, len(programs))
	for _, p := range programs {
		if p.Code == "" {
			return nil, fmt.Errorf("program code is required")
		}
		if p.Seats < 0 {
			return nil, fmt.Errorf("program %s: negative seat count", p.Code)
		}
		if _, dup := byCode[p.Code]; dup {
			return nil, fmt.Errorf("duplicate program code %s", p.Code)
		}
		byCode[p.Code] = p
		order = append(order, p.Code)
	}
	return &Engine{programs: byCode, order: order, policy: policy}, nil
}

// Programs returns the campaign's programs in display order.
func (e *Engine) Programs() []models.Program {
	out := make([]models.Program, 0, len(e.order))
	for _, code := range e.order {
		out = append(out, e.programs[code])
	}
	return out
}

// ApplyDay validates the snapshot against the running state and, when it is
// a legal evolution, computes the day's result. Per-program rankings and
// cutoffs have no cross-program dependency and run in parallel; the unified
// list is built after all of them are merged.
//
// On any violation the returned error wraps a *RuleViolation, prev is
// returned unchanged and the day is abandoned.
func (e *Engine) ApplyDay(ctx context.Context, prev *State, snapshot models.DaySnapshot) (*State, *models.DayResult, error) {
	if prev == nil {
		prev = NewState()
	}
	if snapshot.Day == "" {
		return prev, nil, fmt.Errorf("snapshot day is required")
	}
	if prev.Day != "" && snapshot.Day <= prev.Day {
		return prev, nil, fmt.Errorf("day %s is not after last accepted day %s", snapshot.Day, prev.Day)
	}

	seen := make(map[models.ApplicantID]bool, len(snapshot.Records))
	for _, rec := range snapshot.Records {
		if seen[rec.ID] {
			v := violationf(RuleMalformedRecord, rec.ID, "", "applicant restated twice in one snapshot")
			return prev, nil, v.Domain()
		}
		seen[rec.ID] = true
		if v := validateRecord(rec, e.programs); v != nil {
			return prev, nil, v.Domain()
		}
	}

	consents, v := validateDelta(prev, snapshot, e.policy)
	if v != nil {
		return prev, nil, v.Domain()
	}

	rankings := make([]models.ProgramRanking, len(e.order))
	cutoffs := make([]models.Cutoff, len(e.order))
	g, _ := errgroup.WithContext(ctx)
	for i, code := range e.order {
		program := e.programs[code]
		g.Go(func() error {
			ranking := buildRanking(program, snapshot, consents)
			cutoffs[i] = resolveCutoff(&ranking, program.Seats)
			rankings[i] = ranking
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return prev, nil, err
	}

	byProgram := make(map[models.ProgramID]models.ProgramRanking, len(rankings))
	for _, r := range rankings {
		byProgram[r.Program] = r
	}

	result := &models.DayResult{
		Day:       snapshot.Day,
		AppliedAt: time.Now().UTC(),
		Programs:  append([]models.ProgramID(nil), e.order...),
		Rankings:  byProgram,
		Cutoffs:   cutoffs,
		Unified:   buildUnified(snapshot, byProgram),
	}

	next := &State{
		Day:        snapshot.Day,
		Applicants: make(map[models.ApplicantID]ApplicantState, len(snapshot.Records)),
	}
	for _, rec := range snapshot.Records {
		score := rec.Score
		if st, known := prev.Applicants[rec.ID]; known {
			score = st.Score
		}
		next.Applicants[rec.ID] = ApplicantState{Score: score, Consent: consents[rec.ID]}
	}
	// Under MissingTreatAsWithdrawn, disappeared applicants simply drop out
	// of the state: a later reappearance counts as a fresh submission.

	return next, result, nil
}
