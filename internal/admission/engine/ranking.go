package engine

import (
	"sort"

	"abitur/internal/admission/models"
)

// validateRecord enforces the structural invariants of one applicant record:
// priority ranks are a contiguous 1..N sequence with no duplicate programs,
// every referenced program has a quota, and the consent flag (when set) names
// a listed program.
func validateRecord(rec models.ApplicantRecord, programs map[models.ProgramID]models.Program) *RuleViolation {
	if len(rec.Priorities) == 0 {
		return violationf(RuleMalformedRecord, rec.ID, "", "empty priority list")
	}

	seenProgram := make(map[models.ProgramID]bool, len(rec.Priorities))
	seenRank := make(map[int]bool, len(rec.Priorities))
	for _, p := range rec.Priorities {
		if _, ok := programs[p.Program]; !ok {
			return violationf(RuleUnknownProgram, rec.ID, p.Program, "priority references an undefined program")
		}
		if seenProgram[p.Program] {
			return violationf(RuleMalformedRecord, rec.ID, p.Program, "duplicate program in priority list")
		}
		seenProgram[p.Program] = true
		if p.Rank < 1 || p.Rank > len(rec.Priorities) || seenRank[p.Rank] {
			return violationf(RuleMalformedRecord, rec.ID, p.Program,
				"priority ranks must form a contiguous sequence starting at 1")
		}
		seenRank[p.Rank] = true
	}

	if rec.Consent != nil && !seenProgram[*rec.Consent] {
		return violationf(RuleMalformedRecord, rec.ID, *rec.Consent,
			"consent names a program outside the priority list")
	}
	return nil
}

// buildRanking produces one program's ranking from the snapshot: every
// applicant listing the program, ordered by total score descending, priority
// rank for this program ascending, applicant id ascending. The order is a
// strict total one, so reruns on the same snapshot are byte-identical.
//
// Consent and admission flags are filled against the day's consent states:
// non-consenting applicants keep their rank but never occupy a seat.
func buildRanking(
	program models.Program,
	snapshot models.DaySnapshot,
	consents map[models.ApplicantID]ConsentState,
) models.ProgramRanking {
	entries := make([]models.RankingEntry, 0, len(snapshot.Records)/2)
	for _, rec := range snapshot.Records {
		rank := rec.PriorityRank(program.Code)
		if rank == 0 {
			continue
		}
		entries = append(entries, models.RankingEntry{
			ApplicantID: rec.ID,
			Score:       rec.Score,
			Priority:    rank,
			Consented:   consents[rec.ID].ConsentedTo(program.Code),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ApplicantID < b.ApplicantID
	})

	return models.ProgramRanking{Program: program.Code, Entries: entries}
}
