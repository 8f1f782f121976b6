package domain

import (
	"time"
)

// Feed item types.
const (
	FeedItemEndorsement = "endorsement"
	FeedItemEvidence    = "evidence"
)

// FeedItem is one entry in the public activity feed: either a fresh
// endorsement or a newly published piece of public evidence. Fields not
// relevant to the item type are omitted from the JSON payload.
type FeedItem struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Pillar    Pillar    `json:"pillar"`

	// Endorsement fields.
	Rater   *UserSummary `json:"rater,omitempty"`
	Ratee   *UserSummary `json:"ratee,omitempty"`
	Stars   int          `json:"stars,omitempty"`
	Comment string       `json:"comment,omitempty"`

	// Evidence fields.
	User        *UserSummary `json:"user,omitempty"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	FileType    string       `json:"file_type,omitempty"`
}
