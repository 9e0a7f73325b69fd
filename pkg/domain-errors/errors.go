// Package derrors provides coded domain errors. Services construct these at
// the boundary where a business rule fails; transport maps codes to HTTP
// statuses. Infrastructure facts (not found, conflict) use pkg/platform/sentinel
// instead and are translated here by the service layer.
package derrors

import (
	"errors"
	"fmt"
)

// Code identifies the class of domain failure.
type Code string

const (
	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal_error"

	// Snapshot validation codes. Each one names the rule an applicant record
	// or a day evolution violated; the offending applicant travels in the
	// error message and, for engine errors, in the wrapped RuleViolation.
	CodeMalformedRecord          Code = "malformed_record"
	CodeUnknownProgram           Code = "unknown_program"
	CodeInvalidConsentTransition Code = "invalid_consent_transition"
	CodeApplicantDisappeared     Code = "applicant_disappeared"
	CodeScoreMutated             Code = "score_mutated"
)

// Error carries a code, a human-readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping the cause chain.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, or empty when err is not a domain
// error. Internal details never leak through this accessor.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return ""
}
