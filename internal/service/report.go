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

// ReportService implements the business logic for moderation reports. Hiding
// a reported endorsement removes it from scoring and from the endorsement
// cooldown lookback immediately, since scores are recomputed on read.
type ReportService struct {
	reportRepo      repository.ReportRepository
	endorsementRepo repository.EndorsementRepository
	userRepo        repository.UserRepository
	producer        *event.Producer
	logger          *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	reportRepo repository.ReportRepository,
	endorsementRepo repository.EndorsementRepository,
	userRepo repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reportRepo:      reportRepo,
		endorsementRepo: endorsementRepo,
		userRepo:        userRepo,
		producer:        producer,
		logger:          logger,
	}
}

// CreateReportInput holds the parameters for filing a report.
type CreateReportInput struct {
	ReportedUserID        *string
	ReportedEndorsementID *string
	Reason                string
	Description           string
}

// ResolveReportInput holds the parameters for an admin report decision.
type ResolveReportInput struct {
	Status          string
	AdminNotes      string
	HideEndorsement bool
}

// Create files a new report against a user or an endorsement.
func (s *ReportService) Create(ctx context.Context, reporterID string, input CreateReportInput) (*domain.Report, error) {
	if input.Reason == "" {
		return nil, apperrors.InvalidInput("reason is required")
	}
	if (input.ReportedUserID == nil) == (input.ReportedEndorsementID == nil) {
		return nil, apperrors.InvalidInput("exactly one of reported_user_id or reported_endorsement_id is required")
	}

	if input.ReportedUserID != nil {
		if *input.ReportedUserID == reporterID {
			return nil, apperrors.InvalidInput("cannot report yourself")
		}
		if _, err := s.userRepo.GetByID(ctx, *input.ReportedUserID); err != nil {
			return nil, apperrors.NotFound("user", *input.ReportedUserID)
		}
	}

	if input.ReportedEndorsementID != nil {
		if _, err := s.endorsementRepo.GetByID(ctx, *input.ReportedEndorsementID); err != nil {
			return nil, apperrors.NotFound("endorsement", *input.ReportedEndorsementID)
		}
	}

	now := time.Now().UTC()
	report := &domain.Report{
		ID:                    uuid.New().String(),
		ReporterID:            reporterID,
		ReportedUserID:        input.ReportedUserID,
		ReportedEndorsementID: input.ReportedEndorsementID,
		Reason:                input.Reason,
		Description:           input.Description,
		Status:                domain.ReportStatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	// Publish creation event (non-blocking on failure).
	if err := s.producer.PublishReportCreated(ctx, report); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish report.created event",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "report created",
		slog.String("report_id", report.ID),
		slog.String("reporter_id", reporterID),
	)

	return report, nil
}

// Get retrieves a single report. Only admins and the original reporter may
// see it.
func (s *ReportService) Get(ctx context.Context, requester *domain.User, reportID string) (*domain.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	if !requester.IsAdmin() && report.ReporterID != requester.ID {
		return nil, apperrors.NotFound("report", reportID)
	}

	return report, nil
}

// List returns paginated reports for admin review, optionally filtered by
// status.
func (s *ReportService) List(ctx context.Context, status string, page, perPage int) ([]domain.Report, int, error) {
	if status != "" && !domain.ValidReportStatus(status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown report status %q", status))
	}

	reports, total, err := s.reportRepo.List(ctx, status, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	return reports, total, nil
}

// Resolve applies an admin decision to a report, optionally hiding the
// reported endorsement as a side effect.
func (s *ReportService) Resolve(ctx context.Context, adminID, reportID string, input ResolveReportInput) (*domain.Report, error) {
	if !domain.ValidReportStatus(input.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown report status %q", input.Status))
	}

	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("get report for resolve: %w", err)
	}

	// Reject an impossible side effect before anything is persisted.
	if input.HideEndorsement && report.ReportedEndorsementID == nil {
		return nil, apperrors.InvalidInput("report does not target an endorsement")
	}

	report.Status = input.Status
	report.AdminNotes = input.AdminNotes

	if err := s.reportRepo.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}

	if input.HideEndorsement {
		if err := s.HideEndorsement(ctx, adminID, *report.ReportedEndorsementID, true); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "report resolved",
		slog.String("report_id", reportID),
		slog.String("admin_id", adminID),
		slog.String("status", input.Status),
	)

	return report, nil
}

// HideEndorsement flips the moderation visibility flag on an endorsement.
// Effective immediately: the next score or eligibility read excludes it.
func (s *ReportService) HideEndorsement(ctx context.Context, adminID, endorsementID string, hidden bool) error {
	endorsement, err := s.endorsementRepo.GetByID(ctx, endorsementID)
	if err != nil {
		return fmt.Errorf("get endorsement for moderation: %w", err)
	}

	if err := s.endorsementRepo.SetHidden(ctx, endorsementID, hidden); err != nil {
		return fmt.Errorf("set endorsement hidden: %w", err)
	}

	// Publish moderation event (non-blocking on failure).
	if err := s.producer.PublishEndorsementHidden(ctx, endorsement, hidden); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish endorsement.hidden event",
			slog.String("endorsement_id", endorsementID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "endorsement moderation flag changed",
		slog.String("endorsement_id", endorsementID),
		slog.String("admin_id", adminID),
		slog.Bool("hidden", hidden),
	)

	return nil
}
