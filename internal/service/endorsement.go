package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/internal/event"
	"github.com/maturehumanity/levela/internal/repository"
	"github.com/maturehumanity/levela/internal/scoring"
	apperrors "github.com/maturehumanity/levela/pkg/errors"
)

// maxCommentLength caps endorsement comments.
const maxCommentLength = 1000

// EndorsementService implements the business logic for giving and listing
// endorsements and for trust score queries.
type EndorsementService struct {
	endorsementRepo repository.EndorsementRepository
	userRepo        repository.UserRepository
	engine          *scoring.Engine
	producer        *event.Producer
	logger          *slog.Logger
}

// NewEndorsementService creates a new endorsement service.
func NewEndorsementService(
	endorsementRepo repository.EndorsementRepository,
	userRepo repository.UserRepository,
	engine *scoring.Engine,
	producer *event.Producer,
	logger *slog.Logger,
) *EndorsementService {
	return &EndorsementService{
		endorsementRepo: endorsementRepo,
		userRepo:        userRepo,
		engine:          engine,
		producer:        producer,
		logger:          logger,
	}
}

// CreateEndorsementInput holds the parameters for creating an endorsement.
type CreateEndorsementInput struct {
	RateeID string
	Pillar  string
	Stars   int
	Comment string
}

// Create records a new endorsement from raterID. The eligibility gate is
// checked up front for a friendly refusal message; the store enforces the
// cooldown window again inside its own transaction, so concurrent duplicates
// resolve to a conflict rather than a double insert.
func (s *EndorsementService) Create(ctx context.Context, raterID string, input CreateEndorsementInput) (*domain.Endorsement, error) {
	pillar := domain.Pillar(input.Pillar)
	if !pillar.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown pillar %q", input.Pillar))
	}
	if input.Stars < 1 || input.Stars > 5 {
		return nil, apperrors.InvalidInput("stars must be between 1 and 5")
	}
	if len(input.Comment) > maxCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", maxCommentLength))
	}

	if _, err := s.userRepo.GetByID(ctx, input.RateeID); err != nil {
		return nil, apperrors.NotFound("user", input.RateeID)
	}

	eligibility, err := s.engine.CanEndorse(ctx, raterID, input.RateeID, pillar)
	if err != nil {
		return nil, fmt.Errorf("check eligibility: %w", err)
	}
	if !eligibility.Can {
		return nil, apperrors.Conflict(eligibility.Reason)
	}

	now := time.Now().UTC()
	endorsement := &domain.Endorsement{
		ID:        uuid.New().String(),
		RaterID:   raterID,
		RateeID:   input.RateeID,
		Pillar:    pillar,
		Stars:     input.Stars,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.endorsementRepo.Create(ctx, endorsement); err != nil {
		return nil, fmt.Errorf("create endorsement: %w", err)
	}

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishEndorsementCreated(ctx, endorsement); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish endorsement.created event",
			slog.String("endorsement_id", endorsement.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "endorsement created",
		slog.String("endorsement_id", endorsement.ID),
		slog.String("rater_id", raterID),
		slog.String("ratee_id", input.RateeID),
		slog.String("pillar", string(pillar)),
		slog.Int("stars", input.Stars),
	)

	return endorsement, nil
}

// CanEndorse reports whether raterID may endorse rateeID in the pillar right
// now. The result is advisory: it can go stale between the check and a
// subsequent Create.
func (s *EndorsementService) CanEndorse(ctx context.Context, raterID, rateeID, pillar string) (domain.Eligibility, error) {
	p := domain.Pillar(pillar)
	if !p.Valid() {
		return domain.Eligibility{}, apperrors.InvalidInput(fmt.Sprintf("unknown pillar %q", pillar))
	}

	if _, err := s.userRepo.GetByID(ctx, rateeID); err != nil {
		return domain.Eligibility{}, apperrors.NotFound("user", rateeID)
	}

	eligibility, err := s.engine.CanEndorse(ctx, raterID, rateeID, p)
	if err != nil {
		return domain.Eligibility{}, fmt.Errorf("check eligibility: %w", err)
	}

	return eligibility, nil
}

// ListReceived returns the endorsements a user has received, optionally
// filtered by pillar, paginated, newest first.
func (s *EndorsementService) ListReceived(ctx context.Context, rateeID, pillar string, page, perPage int) ([]domain.EndorsementWithRater, int, error) {
	var pillarFilter *domain.Pillar
	if pillar != "" {
		p := domain.Pillar(pillar)
		if !p.Valid() {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown pillar %q", pillar))
		}
		pillarFilter = &p
	}

	items, total, err := s.endorsementRepo.ListReceived(ctx, rateeID, pillarFilter, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list received endorsements: %w", err)
	}

	return items, total, nil
}

// ListGiven returns the endorsements a user has authored, paginated, newest first.
func (s *EndorsementService) ListGiven(ctx context.Context, raterID string, page, perPage int) ([]domain.EndorsementWithRatee, int, error) {
	items, total, err := s.endorsementRepo.ListGiven(ctx, raterID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list given endorsements: %w", err)
	}

	return items, total, nil
}

// GetScore computes a user's full trust score from the live endorsement store.
func (s *EndorsementService) GetScore(ctx context.Context, userID string) (domain.UserScore, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return domain.UserScore{}, apperrors.NotFound("user", userID)
	}

	score, err := s.engine.UserScore(ctx, userID)
	if err != nil {
		return domain.UserScore{}, fmt.Errorf("compute user score: %w", err)
	}

	return score, nil
}

// GetPillarScore computes a user's score within a single pillar.
func (s *EndorsementService) GetPillarScore(ctx context.Context, userID, pillar string) (domain.PillarScore, error) {
	p := domain.Pillar(pillar)
	if !p.Valid() {
		return domain.PillarScore{}, apperrors.InvalidInput(fmt.Sprintf("unknown pillar %q", pillar))
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return domain.PillarScore{}, apperrors.NotFound("user", userID)
	}

	score, err := s.engine.PillarScore(ctx, userID, p)
	if err != nil {
		return domain.PillarScore{}, fmt.Errorf("compute pillar score: %w", err)
	}

	return score, nil
}
