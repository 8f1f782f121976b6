// Package scoring implements the trust-score engine: rater credibility
// estimation, per-pillar and overall score aggregation, and the endorsement
// eligibility gate. The engine is a pure computation layer over a narrow
// read-only view of the endorsement history; it holds no state and performs
// no writes.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/maturehumanity/levela/internal/domain"
)

const (
	// neutralWeight is assigned to raters with no received endorsements, so
	// new users can participate without being ignored or over-trusted.
	neutralWeight = 0.5

	// minWeight keeps a poorly-rated user's endorsements from being zeroed
	// out entirely; maxWeight caps amplification.
	minWeight = 0.1
	maxWeight = 1.0

	// CooldownWindow is the minimum interval between two endorsements from
	// the same rater to the same ratee within the same pillar.
	CooldownWindow = 30 * 24 * time.Hour
)

// EndorsementSource is the read-only slice of the endorsement store the
// engine consumes. Hidden endorsements must be excluded from every method;
// moderation removes an endorsement's effect entirely, including its gating
// side effect.
type EndorsementSource interface {
	// ListVisibleByRatee returns all non-hidden endorsements received by
	// rateeID within the pillar, newest first. The ordering is not
	// load-bearing for the arithmetic; it is kept for future tie-breaking.
	ListVisibleByRatee(ctx context.Context, rateeID string, pillar domain.Pillar) ([]domain.Endorsement, error)

	// VisiblePillarAverages returns the per-pillar mean stars and count of
	// rateeID's non-hidden received endorsements, one entry per pillar that
	// has at least one endorsement.
	VisiblePillarAverages(ctx context.Context, rateeID string) ([]domain.PillarAverage, error)

	// LatestVisible returns the most recent non-hidden endorsement matching
	// the exact (rater, ratee, pillar) triple, or nil if none exists.
	LatestVisible(ctx context.Context, raterID, rateeID string, pillar domain.Pillar) (*domain.Endorsement, error)
}

// Engine computes scores and eligibility decisions from endorsement history.
type Engine struct {
	source EndorsementSource
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by tests to pin the
// cooldown arithmetic.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a scoring engine over the given endorsement source.
func NewEngine(source EndorsementSource, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RaterWeight derives the credibility weight of a user acting as a rater
// from their own received reputation: the per-pillar means of their received
// stars are converted to percentages, averaged unweighted across pillars,
// and clamped to [0.1, 1.0]. Users with no history weigh 0.5.
func (e *Engine) RaterWeight(ctx context.Context, raterID string) (float64, error) {
	averages, err := e.source.VisiblePillarAverages(ctx, raterID)
	if err != nil {
		return 0, fmt.Errorf("pillar averages for rater %s: %w", raterID, err)
	}

	if len(averages) == 0 {
		return neutralWeight, nil
	}

	var sum float64
	for _, avg := range averages {
		sum += avg.AverageStars / 5 * 100
	}
	pct := sum / float64(len(averages))

	return clamp(pct/100, minWeight, maxWeight), nil
}

// PillarScore aggregates all non-hidden endorsements received by userID in
// the pillar into a trust-weighted 0-100 score. A user with no endorsements
// in the pillar scores zero; unknown identifiers are not an error.
func (e *Engine) PillarScore(ctx context.Context, userID string, pillar domain.Pillar) (domain.PillarScore, error) {
	return e.pillarScore(ctx, userID, pillar, map[string]float64{})
}

// pillarScore is PillarScore with a caller-supplied weight cache, so a full
// UserScore computation asks for each distinct rater's weight only once.
func (e *Engine) pillarScore(ctx context.Context, userID string, pillar domain.Pillar, weights map[string]float64) (domain.PillarScore, error) {
	endorsements, err := e.source.ListVisibleByRatee(ctx, userID, pillar)
	if err != nil {
		return domain.PillarScore{}, fmt.Errorf("list endorsements for %s/%s: %w", userID, pillar, err)
	}

	if len(endorsements) == 0 {
		return domain.PillarScore{Pillar: pillar}, nil
	}

	var (
		weightedStars float64
		totalWeight   float64
		totalStars    int
	)

	for _, end := range endorsements {
		weight, ok := weights[end.RaterID]
		if !ok {
			weight, err = e.RaterWeight(ctx, end.RaterID)
			if err != nil {
				return domain.PillarScore{}, err
			}
			weights[end.RaterID] = weight
		}

		weightedStars += float64(end.Stars) * weight
		totalWeight += weight
		totalStars += end.Stars
	}

	weightedMean := 0.0
	if totalWeight > 0 {
		weightedMean = weightedStars / totalWeight
	}

	return domain.PillarScore{
		Pillar:           pillar,
		Score:            round1(weightedMean / 5 * 100),
		EndorsementCount: len(endorsements),
		AverageStars:     round1(float64(totalStars) / float64(len(endorsements))),
	}, nil
}

// UserScore computes all five pillar scores in canonical order and rolls
// them up into an overall score. Pillars without endorsements contribute a
// zero entry to the list but are excluded from the overall average; when
// every pillar is empty the overall score is zero.
func (e *Engine) UserScore(ctx context.Context, userID string) (domain.UserScore, error) {
	weights := map[string]float64{}
	pillarScores := make([]domain.PillarScore, 0, len(domain.Pillars))

	var (
		sum   float64
		rated int
	)

	for _, pillar := range domain.Pillars {
		ps, err := e.pillarScore(ctx, userID, pillar, weights)
		if err != nil {
			return domain.UserScore{}, err
		}
		pillarScores = append(pillarScores, ps)

		if ps.EndorsementCount > 0 {
			sum += ps.Score
			rated++
		}
	}

	overall := 0.0
	if rated > 0 {
		overall = round1(sum / float64(rated))
	}

	return domain.UserScore{
		OverallScore: overall,
		PillarScores: pillarScores,
	}, nil
}

// CanEndorse decides whether raterID may endorse rateeID in the pillar right
// now. Self-endorsement is always refused. Otherwise the latest non-hidden
// endorsement for the exact triple gates a 30-day cooldown; a hidden prior
// endorsement does not block. Ineligibility is a decision, never an error.
func (e *Engine) CanEndorse(ctx context.Context, raterID, rateeID string, pillar domain.Pillar) (domain.Eligibility, error) {
	if raterID == rateeID {
		return domain.Eligibility{Can: false, Reason: "cannot endorse yourself"}, nil
	}

	last, err := e.source.LatestVisible(ctx, raterID, rateeID, pillar)
	if err != nil {
		return domain.Eligibility{}, fmt.Errorf("latest endorsement for %s->%s/%s: %w", raterID, rateeID, pillar, err)
	}

	if last == nil {
		return domain.Eligibility{Can: true}, nil
	}

	now := e.now()
	expiresAt := last.CreatedAt.Add(CooldownWindow)
	if !expiresAt.After(now) {
		return domain.Eligibility{Can: true}, nil
	}

	daysLeft := int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
	return domain.Eligibility{
		Can:    false,
		Reason: fmt.Sprintf("you can endorse this user for %s again in %d days", pillar, daysLeft),
	}, nil
}

// round1 rounds to one decimal place, half away from zero.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
