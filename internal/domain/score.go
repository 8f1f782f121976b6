package domain

// PillarScore is the derived trust score for one user within one pillar.
// Score is trust-weighted and scaled to 0-100; AverageStars is the raw,
// unweighted star mean reported alongside it for transparency. Scores are
// recomputed from the endorsement history on every read and never stored.
type PillarScore struct {
	Pillar           Pillar  `json:"pillar"`
	Score            float64 `json:"score"`
	EndorsementCount int     `json:"endorsement_count"`
	AverageStars     float64 `json:"average_stars"`
}

// UserScore rolls the five pillar scores up into one overall score. Pillars
// with no endorsements appear as zero entries in PillarScores but do not
// drag down the overall average.
type UserScore struct {
	OverallScore float64       `json:"overall_score"`
	PillarScores []PillarScore `json:"pillar_scores"`
}

// Eligibility is the gate decision for a prospective endorsement. Ineligible
// is an expected outcome, not an error; Reason explains it to the caller.
type Eligibility struct {
	Can    bool   `json:"can"`
	Reason string `json:"reason,omitempty"`
}
