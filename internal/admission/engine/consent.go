package engine

import "abitur/internal/admission/models"

// ConsentStatus is the per-applicant enrollment consent state.
type ConsentStatus string

const (
	StatusNoConsent ConsentStatus = "no_consent"
	StatusConsented ConsentStatus = "consented"
	StatusWithdrawn ConsentStatus = "withdrawn"
)

// ConsentState tracks one applicant's consent across days. Program and Rank
// are set for Consented and Withdrawn: Rank is the priority rank the program
// held on the day consent was given, frozen there so the no-downgrade rule
// survives later priority reshuffles.
type ConsentState struct {
	Status  ConsentStatus
	Program models.ProgramID
	Rank    int
}

// ConsentedTo reports whether the applicant currently consents to program.
func (s ConsentState) ConsentedTo(program models.ProgramID) bool {
	return s.Status == StatusConsented && s.Program == program
}

// advanceConsent derives the next consent state from a day's record.
//
// Transitions:
//
//	NoConsent  -> Consented(p)   p must be on the priority list
//	Consented(p) -> Consented(p) no-op
//	Consented(p) -> Consented(p') legal switch to any listed program
//	Consented(p) -> Withdrawn(p) revocation, always legal
//	Withdrawn(p) -> Consented(p') only for rank(p') <= rank held at
//	                              withdrawal, unless the policy allows
//	                              downgrades
//
// Everything else fails with RuleInvalidConsentTransition.
func advanceConsent(prev ConsentState, rec models.ApplicantRecord, policy Policy) (ConsentState, *RuleViolation) {
	if prev.Status == "" {
		prev.Status = StatusNoConsent
	}
	if rec.Consent == nil {
		switch prev.Status {
		case StatusConsented:
			return ConsentState{Status: StatusWithdrawn, Program: prev.Program, Rank: prev.Rank}, nil
		default:
			// NoConsent stays, Withdrawn stays withdrawn.
			return prev, nil
		}
	}

	target := *rec.Consent
	rank := rec.PriorityRank(target)
	if rank == 0 {
		return prev, violationf(RuleInvalidConsentTransition, rec.ID, target,
			"consent names a program outside the priority list")
	}
	next := ConsentState{Status: StatusConsented, Program: target, Rank: rank}

	switch prev.Status {
	case StatusNoConsent, StatusConsented:
		return next, nil
	case StatusWithdrawn:
		if policy.AllowConsentDowngrade || rank <= prev.Rank {
			return next, nil
		}
		return prev, violationf(RuleInvalidConsentTransition, rec.ID, target,
			"re-consent to rank %d after withdrawing a rank %d choice", rank, prev.Rank)
	}
	return prev, violationf(RuleInvalidConsentTransition, rec.ID, target,
		"unknown prior consent state %q", prev.Status)
}
