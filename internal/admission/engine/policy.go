package engine

// MissingApplicantPolicy decides what a disappearing applicant between two
// days means. The strict reading treats it as corrupt source data; the
// lenient one as "withdrew the application entirely".
type MissingApplicantPolicy string

const (
	// MissingReject fails the day with RuleApplicantDisappeared.
	MissingReject MissingApplicantPolicy = "reject"
	// MissingTreatAsWithdrawn drops the applicant from the running state.
	MissingTreatAsWithdrawn MissingApplicantPolicy = "withdrawn"
)

// Policy collects the campaign-level toggles for the contested evolution
// rules. The zero value is the strict variant of both.
type Policy struct {
	// AllowConsentDowngrade permits Withdrawn(p) -> Consented(p') even when
	// p' sits below p in the applicant's priority list. Off by default: after
	// withdrawing, an applicant may only move to an equal-or-higher choice.
	AllowConsentDowngrade bool

	// MissingApplicant selects the disappearance rule. Empty means
	// MissingReject.
	MissingApplicant MissingApplicantPolicy
}

func (p Policy) missingApplicant() MissingApplicantPolicy {
	if p.MissingApplicant == "" {
		return MissingReject
	}
	return p.MissingApplicant
}
