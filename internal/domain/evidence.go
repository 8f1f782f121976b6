package domain

import (
	"time"
)

// Evidence visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Evidence is a user-supplied artifact (certificate, document, link) backing
// their standing in a pillar. The file itself lives wherever FileURI points;
// this service only stores the reference. Evidence may optionally be linked
// to the endorsement it supported.
type Evidence struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Pillar        Pillar    `json:"pillar"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	FileURI       string    `json:"file_uri,omitempty"`
	FileType      string    `json:"file_type,omitempty"`
	Visibility    string    `json:"visibility"`
	EndorsementID *string   `json:"endorsement_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VisibleTo reports whether the evidence may be shown to the given requester.
// Private evidence is only visible to its owner.
func (e *Evidence) VisibleTo(requesterID string) bool {
	return e.Visibility == VisibilityPublic || e.UserID == requesterID
}
