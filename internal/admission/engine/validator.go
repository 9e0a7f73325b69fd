package engine

import (
	"sort"

	"abitur/internal/admission/models"
)

// validateDelta checks that the new snapshot is a legal evolution of the
// running state and, when it is, returns the next per-applicant consent
// states. Rules:
//
//   - no known applicant may disappear (unless the policy downgrades that to
//     a withdrawal)
//   - a known applicant's score is frozen at first submission
//   - every consent flag change must be a legal state machine transition
//
// The first violation aborts the whole day; the caller's state is untouched.
func validateDelta(state *State, snapshot models.DaySnapshot, policy Policy) (map[models.ApplicantID]ConsentState, *RuleViolation) {
	present := make(map[models.ApplicantID]bool, len(snapshot.Records))
	next := make(map[models.ApplicantID]ConsentState, len(snapshot.Records))

	for _, rec := range snapshot.Records {
		present[rec.ID] = true

		prev, known := state.Applicants[rec.ID]
		if known && prev.Score != rec.Score {
			return nil, violationf(RuleScoreMutated, rec.ID, "",
				"score changed after submission (total %d -> %d)",
				prev.Score.Total, rec.Score.Total)
		}

		consent, v := advanceConsent(prev.Consent, rec, policy)
		if v != nil {
			return nil, v
		}
		next[rec.ID] = consent
	}

	if policy.missingApplicant() == MissingReject {
		// Deterministic pick of the offender: lowest missing applicant id.
		var missing []models.ApplicantID
		for id := range state.Applicants {
			if !present[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
			return nil, violationf(RuleApplicantDisappeared, missing[0], "",
				"applicant present on day %s is missing from day %s", state.Day, snapshot.Day)
		}
	}

	return next, nil
}
