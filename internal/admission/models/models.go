// Package models holds the admission campaign data model. These are inert
// value types; the rules that govern how they evolve day over day live in
// internal/admission/engine.
package models

import (
	"sort"
	"time"
)

// ApplicantID identifies one applicant across the whole campaign.
type ApplicantID int64

// ProgramID is the short program code ("PM", "IVT", ...).
type ProgramID string

// Day is a calendar day key in ISO form, "2025-08-01". Days compare
// lexicographically, which for this form equals calendar order.
type Day string

// Score is the composite exam score. Ranking and cutoffs use Total only;
// the subject components are carried for tables and reports.
type Score struct {
	PhysicsIT    int `json:"physics_ikt"`
	Russian      int `json:"russian"`
	Math         int `json:"math"`
	Achievements int `json:"achievements"`
	Total        int `json:"total"`
}

// ProgramPriority is one entry of an applicant's ordered program list.
// Rank 1 is the most wanted program.
type ProgramPriority struct {
	Program ProgramID `json:"program"`
	Rank    int       `json:"rank"`
}

// ApplicantRecord is one applicant's state as restated by a day snapshot.
// Invariants (checked by the engine, not here): priority ranks form a
// contiguous sequence starting at 1 with no duplicate programs, and Consent,
// when set, names a program from the priority list.
type ApplicantRecord struct {
	ID         ApplicantID       `json:"id"`
	Score      Score             `json:"score"`
	Priorities []ProgramPriority `json:"priorities"`
	Consent    *ProgramID        `json:"consent,omitempty"`
}

// PriorityRank returns the rank the applicant assigned to program, or 0 when
// the program is not on their list.
func (r ApplicantRecord) PriorityRank(program ProgramID) int {
	for _, p := range r.Priorities {
		if p.Program == program {
			return p.Rank
		}
	}
	return 0
}

// SortedPriorities returns the priority list ordered by rank ascending.
func (r ApplicantRecord) SortedPriorities() []ProgramPriority {
	out := append([]ProgramPriority(nil), r.Priorities...)
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Program couples a program with its seat quota. Quotas are fixed for the
// campaign; snapshots never mutate them.
type Program struct {
	Code  ProgramID `json:"code" yaml:"code"`
	Name  string    `json:"name" yaml:"name"`
	Seats int       `json:"seats" yaml:"seats"`
}

// DaySnapshot is the full restatement of every applicant valid as of Day.
// It is not a diff: an applicant missing here that existed the day before is
// a rule violation (or a withdrawal, depending on policy).
type DaySnapshot struct {
	Day     Day               `json:"day"`
	Records []ApplicantRecord `json:"records"`
}

// RankingEntry is one row of a program's ranking table.
type RankingEntry struct {
	ApplicantID ApplicantID `json:"applicant_id"`
	Score       Score       `json:"score"`
	Priority    int         `json:"priority"`
	Consented   bool        `json:"consented"`
	Admitted    bool        `json:"admitted"`
}

// ProgramRanking is one program's table for one day, ordered by total score
// descending, priority rank ascending, applicant id ascending. The order is a
// strict total one: no two entries compare equal.
type ProgramRanking struct {
	Program ProgramID      `json:"program"`
	Entries []RankingEntry `json:"entries"`
}

// Cutoff is the passing score of one program for one day. Score is nil when
// fewer consenting applicants than seats exist (the program is
// undersubscribed) or when the program has no seats.
type Cutoff struct {
	Program      ProgramID `json:"program"`
	Seats        int       `json:"seats"`
	ConsentCount int       `json:"consent_count"`
	Admitted     int       `json:"admitted"`
	Score        *int      `json:"score,omitempty"`
}

// Defined reports whether the cutoff resolved to a score.
func (c Cutoff) Defined() bool { return c.Score != nil }

// UnifiedEntry is the applicant-centric outcome: the best-priority program
// the applicant is admitted to, or none. Chain is the full priority list in
// rank order, for display.
type UnifiedEntry struct {
	ApplicantID ApplicantID       `json:"applicant_id"`
	Admitted    bool              `json:"admitted"`
	Program     *ProgramID        `json:"program,omitempty"`
	Chain       []ProgramPriority `json:"chain"`
}

// DayResult is the immutable output of applying one day: every program's
// ranking and cutoff plus the unified list. Programs preserves the campaign's
// display order.
type DayResult struct {
	Day       Day                          `json:"day"`
	AppliedAt time.Time                    `json:"applied_at"`
	Programs  []ProgramID                  `json:"programs"`
	Rankings  map[ProgramID]ProgramRanking `json:"rankings"`
	Cutoffs   []Cutoff                     `json:"cutoffs"`
	Unified   []UnifiedEntry               `json:"unified"`
}

// Ranking returns the ranking for one program, if present.
func (r *DayResult) Ranking(program ProgramID) (ProgramRanking, bool) {
	pr, ok := r.Rankings[program]
	return pr, ok
}

// CutoffFor returns the cutoff row for one program, if present.
func (r *DayResult) CutoffFor(program ProgramID) (Cutoff, bool) {
	for _, c := range r.Cutoffs {
		if c.Program == program {
			return c, true
		}
	}
	return Cutoff{}, false
}
