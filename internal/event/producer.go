// Package event publishes platform domain events to Kafka. Publishing is
// best-effort: callers log failures and carry on, since a missed event must
// never fail the originating request.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maturehumanity/levela/internal/domain"
	pkgkafka "github.com/maturehumanity/levela/pkg/kafka"
)

// Kafka topic constants for platform domain events.
const (
	TopicUserRegistered     = "levela.user.registered"
	TopicEndorsementCreated = "levela.endorsement.created"
	TopicEndorsementHidden  = "levela.endorsement.hidden"
	TopicEvidenceCreated    = "levela.evidence.created"
	TopicReportCreated      = "levela.report.created"
)

// Aggregate type constants.
const (
	AggregateTypeUser        = "user"
	AggregateTypeEndorsement = "endorsement"
	AggregateTypeEvidence    = "evidence"
	AggregateTypeReport      = "report"
)

// Source identifier for events originating from this service.
const Source = "levela-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// EndorsementCreatedData is the payload for an endorsement.created event.
type EndorsementCreatedData struct {
	ID      string `json:"id"`
	RaterID string `json:"rater_id"`
	RateeID string `json:"ratee_id"`
	Pillar  string `json:"pillar"`
	Stars   int    `json:"stars"`
}

// EndorsementHiddenData is the payload for an endorsement.hidden event.
type EndorsementHiddenData struct {
	ID      string `json:"id"`
	RateeID string `json:"ratee_id"`
	Hidden  bool   `json:"hidden"`
}

// EvidenceCreatedData is the payload for an evidence.created event.
type EvidenceCreatedData struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Pillar     string `json:"pillar"`
	Visibility string `json:"visibility"`
}

// ReportCreatedData is the payload for a report.created event.
type ReportCreatedData struct {
	ID                    string  `json:"id"`
	ReporterID            string  `json:"reporter_id"`
	ReportedUserID        *string `json:"reported_user_id,omitempty"`
	ReportedEndorsementID *string `json:"reported_endorsement_id,omitempty"`
	Reason                string  `json:"reason"`
}

// Producer publishes platform domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishEndorsementCreated publishes an endorsement.created event.
func (p *Producer) PublishEndorsementCreated(ctx context.Context, e *domain.Endorsement) error {
	data := EndorsementCreatedData{
		ID:      e.ID,
		RaterID: e.RaterID,
		RateeID: e.RateeID,
		Pillar:  string(e.Pillar),
		Stars:   e.Stars,
	}

	event, err := pkgkafka.NewEvent(TopicEndorsementCreated, e.ID, AggregateTypeEndorsement, Source, data)
	if err != nil {
		return fmt.Errorf("create endorsement.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEndorsementCreated, event); err != nil {
		return fmt.Errorf("publish endorsement.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published endorsement.created event",
		slog.String("endorsement_id", e.ID),
		slog.String("pillar", string(e.Pillar)),
	)

	return nil
}

// PublishEndorsementHidden publishes an endorsement.hidden event.
func (p *Producer) PublishEndorsementHidden(ctx context.Context, e *domain.Endorsement, hidden bool) error {
	data := EndorsementHiddenData{
		ID:      e.ID,
		RateeID: e.RateeID,
		Hidden:  hidden,
	}

	event, err := pkgkafka.NewEvent(TopicEndorsementHidden, e.ID, AggregateTypeEndorsement, Source, data)
	if err != nil {
		return fmt.Errorf("create endorsement.hidden event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEndorsementHidden, event); err != nil {
		return fmt.Errorf("publish endorsement.hidden event: %w", err)
	}

	p.logger.DebugContext(ctx, "published endorsement.hidden event",
		slog.String("endorsement_id", e.ID),
		slog.Bool("hidden", hidden),
	)

	return nil
}

// PublishEvidenceCreated publishes an evidence.created event.
func (p *Producer) PublishEvidenceCreated(ctx context.Context, ev *domain.Evidence) error {
	data := EvidenceCreatedData{
		ID:         ev.ID,
		UserID:     ev.UserID,
		Pillar:     string(ev.Pillar),
		Visibility: ev.Visibility,
	}

	event, err := pkgkafka.NewEvent(TopicEvidenceCreated, ev.ID, AggregateTypeEvidence, Source, data)
	if err != nil {
		return fmt.Errorf("create evidence.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEvidenceCreated, event); err != nil {
		return fmt.Errorf("publish evidence.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published evidence.created event",
		slog.String("evidence_id", ev.ID),
	)

	return nil
}

// PublishReportCreated publishes a report.created event.
func (p *Producer) PublishReportCreated(ctx context.Context, r *domain.Report) error {
	data := ReportCreatedData{
		ID:                    r.ID,
		ReporterID:            r.ReporterID,
		ReportedUserID:        r.ReportedUserID,
		ReportedEndorsementID: r.ReportedEndorsementID,
		Reason:                r.Reason,
	}

	event, err := pkgkafka.NewEvent(TopicReportCreated, r.ID, AggregateTypeReport, Source, data)
	if err != nil {
		return fmt.Errorf("create report.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReportCreated, event); err != nil {
		return fmt.Errorf("publish report.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published report.created event",
		slog.String("report_id", r.ID),
	)

	return nil
}
