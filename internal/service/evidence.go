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
	apperrors "github.com/maturehumanity/levela/pkg/errors"
)

// EvidenceService implements the business logic for evidence records.
type EvidenceService struct {
	evidenceRepo    repository.EvidenceRepository
	endorsementRepo repository.EndorsementRepository
	producer        *event.Producer
	logger          *slog.Logger
}

// NewEvidenceService creates a new evidence service.
func NewEvidenceService(
	evidenceRepo repository.EvidenceRepository,
	endorsementRepo repository.EndorsementRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *EvidenceService {
	return &EvidenceService{
		evidenceRepo:    evidenceRepo,
		endorsementRepo: endorsementRepo,
		producer:        producer,
		logger:          logger,
	}
}

// CreateEvidenceInput holds the parameters for creating an evidence record.
type CreateEvidenceInput struct {
	Pillar        string
	Title         string
	Description   string
	FileURI       string
	FileType      string
	Visibility    string
	EndorsementID *string
}

// UpdateEvidenceInput holds the parameters for updating an evidence record.
type UpdateEvidenceInput struct {
	Title       *string
	Description *string
	Visibility  *string
}

// Create records a new piece of evidence for the user. When an endorsement ID
// is supplied the endorsement must exist; the link is informational only and
// has no effect on scoring.
func (s *EvidenceService) Create(ctx context.Context, userID string, input CreateEvidenceInput) (*domain.Evidence, error) {
	pillar := domain.Pillar(input.Pillar)
	if !pillar.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown pillar %q", input.Pillar))
	}
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	if visibility != domain.VisibilityPublic && visibility != domain.VisibilityPrivate {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown visibility %q", visibility))
	}

	if input.EndorsementID != nil {
		if _, err := s.endorsementRepo.GetByID(ctx, *input.EndorsementID); err != nil {
			return nil, apperrors.NotFound("endorsement", *input.EndorsementID)
		}
	}

	now := time.Now().UTC()
	evidence := &domain.Evidence{
		ID:            uuid.New().String(),
		UserID:        userID,
		Pillar:        pillar,
		Title:         input.Title,
		Description:   input.Description,
		FileURI:       input.FileURI,
		FileType:      input.FileType,
		Visibility:    visibility,
		EndorsementID: input.EndorsementID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.evidenceRepo.Create(ctx, evidence); err != nil {
		return nil, fmt.Errorf("create evidence: %w", err)
	}

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishEvidenceCreated(ctx, evidence); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish evidence.created event",
			slog.String("evidence_id", evidence.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "evidence created",
		slog.String("evidence_id", evidence.ID),
		slog.String("user_id", userID),
		slog.String("pillar", string(pillar)),
	)

	return evidence, nil
}

// Get retrieves a single evidence record, enforcing visibility: private
// evidence is only returned to its owner.
func (s *EvidenceService) Get(ctx context.Context, requesterID, evidenceID string) (*domain.Evidence, error) {
	evidence, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}

	if !evidence.VisibleTo(requesterID) {
		return nil, apperrors.NotFound("evidence", evidenceID)
	}

	return evidence, nil
}

// ListByUser returns a user's evidence, optionally filtered by pillar. A
// requester other than the owner only sees public records.
func (s *EvidenceService) ListByUser(ctx context.Context, requesterID, userID, pillar string) ([]domain.Evidence, error) {
	var pillarFilter *domain.Pillar
	if pillar != "" {
		p := domain.Pillar(pillar)
		if !p.Valid() {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown pillar %q", pillar))
		}
		pillarFilter = &p
	}

	publicOnly := requesterID != userID

	records, err := s.evidenceRepo.ListByUser(ctx, userID, pillarFilter, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}

	return records, nil
}

// Update modifies an evidence record owned by the user.
func (s *EvidenceService) Update(ctx context.Context, userID, evidenceID string, input UpdateEvidenceInput) (*domain.Evidence, error) {
	evidence, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("get evidence for update: %w", err)
	}

	if evidence.UserID != userID {
		return nil, apperrors.NotFound("evidence", evidenceID)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		evidence.Title = *input.Title
	}

	if input.Description != nil {
		evidence.Description = *input.Description
	}

	if input.Visibility != nil {
		if *input.Visibility != domain.VisibilityPublic && *input.Visibility != domain.VisibilityPrivate {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown visibility %q", *input.Visibility))
		}
		evidence.Visibility = *input.Visibility
	}

	if err := s.evidenceRepo.Update(ctx, evidence); err != nil {
		return nil, fmt.Errorf("update evidence: %w", err)
	}

	s.logger.InfoContext(ctx, "evidence updated",
		slog.String("evidence_id", evidenceID),
		slog.String("user_id", userID),
	)

	return evidence, nil
}

// Delete removes an evidence record owned by the user.
func (s *EvidenceService) Delete(ctx context.Context, userID, evidenceID string) error {
	evidence, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return fmt.Errorf("get evidence for delete: %w", err)
	}

	if evidence.UserID != userID {
		return apperrors.NotFound("evidence", evidenceID)
	}

	if err := s.evidenceRepo.Delete(ctx, evidenceID); err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}

	s.logger.InfoContext(ctx, "evidence deleted",
		slog.String("evidence_id", evidenceID),
		slog.String("user_id", userID),
	)

	return nil
}
