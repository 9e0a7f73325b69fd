// Package audit keeps an append-only trail of campaign lifecycle events:
// which days were accepted or rejected and when the campaign was reset. The
// trail is the operator's answer to "why does the history look like this".
package audit

import (
	"time"

	"abitur/internal/admission/models"
)

// Action labels what happened.
type Action string

const (
	ActionDayAccepted   Action = "day_accepted"
	ActionDayRejected   Action = "day_rejected"
	ActionCampaignReset Action = "campaign_reset"
)

// Event is one audit record. Rule and ApplicantID are set for rejections.
type Event struct {
	ID          string             `json:"id"`
	Action      Action             `json:"action"`
	Day         models.Day         `json:"day,omitempty"`
	Rule        string             `json:"rule,omitempty"`
	ApplicantID models.ApplicantID `json:"applicant_id,omitempty"`
	Detail      string             `json:"detail,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}
