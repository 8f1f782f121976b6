package domain

import (
	"time"
)

// Report statuses.
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
	ReportStatusResolved = "resolved"
)

// ValidReportStatus reports whether s is a known report status.
func ValidReportStatus(s string) bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusResolved:
		return true
	}
	return false
}

// Report is a user complaint about another user or a specific endorsement.
// Exactly one of ReportedUserID / ReportedEndorsementID is expected to be
// set. Admins work reports through the pending -> reviewed -> resolved
// lifecycle and may hide the reported endorsement as a side effect.
type Report struct {
	ID                    string    `json:"id"`
	ReporterID            string    `json:"reporter_id"`
	ReportedUserID        *string   `json:"reported_user_id,omitempty"`
	ReportedEndorsementID *string   `json:"reported_endorsement_id,omitempty"`
	Reason                string    `json:"reason"`
	Description           string    `json:"description,omitempty"`
	Status                string    `json:"status"`
	AdminNotes            string    `json:"admin_notes,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
