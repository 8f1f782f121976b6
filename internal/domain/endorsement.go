package domain

import (
	"time"
)

// Endorsement is a 1-5 star rating given by one user (the rater) to another
// (the ratee) within a single pillar. Endorsements are immutable once created
// except for the IsHidden moderation flag; hidden rows stay stored but are
// excluded from scoring and from the endorsement cooldown lookback.
type Endorsement struct {
	ID        string    `json:"id"`
	RaterID   string    `json:"rater_id"`
	RateeID   string    `json:"ratee_id"`
	Pillar    Pillar    `json:"pillar"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	IsHidden  bool      `json:"is_hidden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EndorsementWithRater pairs an endorsement with the public profile of the
// user who gave it, for received-endorsement listings.
type EndorsementWithRater struct {
	Endorsement
	Rater UserSummary `json:"rater"`
}

// EndorsementWithRatee pairs an endorsement with the public profile of the
// user who received it, for given-endorsement listings.
type EndorsementWithRatee struct {
	Endorsement
	Ratee UserSummary `json:"ratee"`
}

// EndorsementWithParties pairs an endorsement with both party profiles, for
// the activity feed.
type EndorsementWithParties struct {
	Endorsement
	Rater UserSummary `json:"rater"`
	Ratee UserSummary `json:"ratee"`
}

// PillarAverage is the per-pillar aggregate of a user's received stars,
// consumed by the rater-credibility estimator.
type PillarAverage struct {
	Pillar       Pillar  `json:"pillar"`
	AverageStars float64 `json:"average_stars"`
	Count        int     `json:"count"`
}
