package engine

import (
	"sort"

	"abitur/internal/admission/models"
)

// buildUnified reconciles the per-program results into one outcome per
// applicant: the highest-priority program they are admitted to, or "not
// admitted". Per-program rankings alone cannot answer where an applicant
// actually stands, because one applicant appears in several tables at once.
//
// Must run after every program's ranking and cutoff for the day is final;
// it reads the admission flags the cutoff pass wrote.
func buildUnified(snapshot models.DaySnapshot, rankings map[models.ProgramID]models.ProgramRanking) []models.UnifiedEntry {
	admitted := make(map[models.ProgramID]map[models.ApplicantID]bool, len(rankings))
	for code, ranking := range rankings {
		set := make(map[models.ApplicantID]bool)
		for _, e := range ranking.Entries {
			if e.Admitted {
				set[e.ApplicantID] = true
			}
		}
		admitted[code] = set
	}

	entries := make([]models.UnifiedEntry, 0, len(snapshot.Records))
	for _, rec := range snapshot.Records {
		entry := models.UnifiedEntry{
			ApplicantID: rec.ID,
			Chain:       rec.SortedPriorities(),
		}
		for _, p := range entry.Chain {
			if admitted[p.Program][rec.ID] {
				program := p.Program
				entry.Admitted = true
				entry.Program = &program
				break
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ApplicantID < entries[j].ApplicantID })
	return entries
}
