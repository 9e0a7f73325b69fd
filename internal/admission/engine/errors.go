package engine

import (
	"fmt"

	"abitur/internal/admission/models"
	dErrors "abitur/pkg/domain-errors"
)

// Rule names the validation rule a snapshot violated. Every rejection carries
// exactly one rule and the offending applicant so the caller can report or
// fix the source data.
type Rule string

const (
	RuleMalformedRecord          Rule = "malformed_record"
	RuleUnknownProgram           Rule = "unknown_program"
	RuleInvalidConsentTransition Rule = "invalid_consent_transition"
	RuleApplicantDisappeared     Rule = "applicant_disappeared"
	RuleScoreMutated             Rule = "score_mutated"
)

// RuleViolation rejects a whole day: the engine never partially applies a
// snapshot, so one violation aborts processing with prior state untouched.
type RuleViolation struct {
	Rule      Rule
	Applicant models.ApplicantID
	Program   models.ProgramID
	Detail    string
}

func (v *RuleViolation) Error() string {
	if v.Program != "" {
		return fmt.Sprintf("%s: applicant %d, program %s: %s", v.Rule, v.Applicant, v.Program, v.Detail)
	}
	return fmt.Sprintf("%s: applicant %d: %s", v.Rule, v.Applicant, v.Detail)
}

// Code maps the rule onto the domain error taxonomy.
func (v *RuleViolation) Code() dErrors.Code {
	switch v.Rule {
	case RuleMalformedRecord:
		return dErrors.CodeMalformedRecord
	case RuleUnknownProgram:
		return dErrors.CodeUnknownProgram
	case RuleInvalidConsentTransition:
		return dErrors.CodeInvalidConsentTransition
	case RuleApplicantDisappeared:
		return dErrors.CodeApplicantDisappeared
	case RuleScoreMutated:
		return dErrors.CodeScoreMutated
	}
	return dErrors.CodeInternal
}

// Domain wraps the violation as a coded domain error for the transport layer.
func (v *RuleViolation) Domain() error {
	return dErrors.Wrap(v, v.Code(), v.Detail)
}

func violationf(rule Rule, applicant models.ApplicantID, program models.ProgramID, format string, args ...any) *RuleViolation {
	return &RuleViolation{
		Rule:      rule,
		Applicant: applicant,
		Program:   program,
		Detail:    fmt.Sprintf(format, args...),
	}
}
