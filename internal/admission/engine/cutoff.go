package engine

import "abitur/internal/admission/models"

// resolveCutoff walks the ranking in order, seating consenting applicants
// until the quota is full. The cutoff is the total score of the applicant
// that filled the last seat; it stays undefined while seats remain open, and
// always for zero-seat programs. Admission flags are written back into the
// ranking entries.
//
// Non-consenting applicants occupy ranking rows but never seats, so their
// scores can never move the cutoff.
func resolveCutoff(ranking *models.ProgramRanking, seats int) models.Cutoff {
	cutoff := models.Cutoff{
		Program: ranking.Program,
		Seats:   seats,
	}

	for i := range ranking.Entries {
		e := &ranking.Entries[i]
		if !e.Consented {
			continue
		}
		cutoff.ConsentCount++
		if cutoff.Admitted < seats {
			e.Admitted = true
			cutoff.Admitted++
			if cutoff.Admitted == seats {
				score := e.Score.Total
				cutoff.Score = &score
			}
		}
	}

	return cutoff
}
