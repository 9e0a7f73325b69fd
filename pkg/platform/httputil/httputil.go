// Package httputil centralizes JSON response envelopes so every handler
// returns the same error shape.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "abitur/pkg/domain-errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ApplicantID      int64  `json:"applicant_id,omitempty"`
	Rule             string `json:"rule,omitempty"`
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeMalformedRecord, dErrors.CodeUnknownProgram:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict,
		dErrors.CodeInvalidConsentTransition,
		dErrors.CodeApplicantDisappeared,
		dErrors.CodeScoreMutated:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates err into the JSON error envelope. Internal errors
// omit the description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{
		Error:            string(code),
		ErrorDescription: dErrors.MessageOf(err),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteViolation is WriteError plus the offending applicant and rule, used
// when a day snapshot is rejected.
func WriteViolation(w http.ResponseWriter, err error, applicantID int64, rule string) {
	code := dErrors.CodeOf(err)
	body := errorBody{
		Error:            string(code),
		ErrorDescription: dErrors.MessageOf(err),
		ApplicantID:      applicantID,
		Rule:             rule,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
