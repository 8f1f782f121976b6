package repository

import (
	"context"
	"time"

	"github.com/maturehumanity/levela/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error

	// Search returns users whose name or email matches the query,
	// paginated, along with the total match count.
	Search(ctx context.Context, query string, page, perPage int) ([]domain.User, int, error)
}

// EndorsementRepository defines the interface for endorsement persistence
// operations. Listing methods that feed scoring exclude hidden rows.
type EndorsementRepository interface {
	// Create inserts a new endorsement, enforcing the per-triple cooldown
	// window at the write path. A conflicting recent endorsement yields a
	// conflict error rather than a duplicate row.
	Create(ctx context.Context, endorsement *domain.Endorsement) error

	// GetByID retrieves an endorsement by its unique identifier,
	// hidden or not.
	GetByID(ctx context.Context, id string) (*domain.Endorsement, error)

	// ListVisibleByRatee returns all non-hidden endorsements received by
	// the user within the pillar, newest first.
	ListVisibleByRatee(ctx context.Context, rateeID string, pillar domain.Pillar) ([]domain.Endorsement, error)

	// VisiblePillarAverages returns per-pillar mean stars and counts over
	// the user's non-hidden received endorsements.
	VisiblePillarAverages(ctx context.Context, rateeID string) ([]domain.PillarAverage, error)

	// LatestVisible returns the most recent non-hidden endorsement for the
	// exact (rater, ratee, pillar) triple, or nil when none exists.
	LatestVisible(ctx context.Context, raterID, rateeID string, pillar domain.Pillar) (*domain.Endorsement, error)

	// ListReceived returns paginated non-hidden endorsements received by
	// the user with rater summaries attached, plus the total count.
	ListReceived(ctx context.Context, rateeID string, pillar *domain.Pillar, page, perPage int) ([]domain.EndorsementWithRater, int, error)

	// ListGiven returns paginated non-hidden endorsements authored by the
	// user with ratee summaries attached, plus the total count.
	ListGiven(ctx context.Context, raterID string, page, perPage int) ([]domain.EndorsementWithRatee, int, error)

	// ListRecentVisible returns the newest non-hidden endorsements across
	// all users with both party summaries attached, for the activity feed.
	ListRecentVisible(ctx context.Context, limit int) ([]domain.EndorsementWithParties, error)

	// SetHidden flips the moderation visibility flag on an endorsement.
	SetHidden(ctx context.Context, id string, hidden bool) error
}

// EvidenceRepository defines the interface for evidence persistence operations.
type EvidenceRepository interface {
	// Create inserts a new evidence record into the store.
	Create(ctx context.Context, evidence *domain.Evidence) error

	// GetByID retrieves an evidence record by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Evidence, error)

	// ListByUser returns the user's evidence, optionally filtered by
	// pillar. When publicOnly is set, private records are excluded.
	ListByUser(ctx context.Context, userID string, pillar *domain.Pillar, publicOnly bool) ([]domain.Evidence, error)

	// Update modifies an existing evidence record in the store.
	Update(ctx context.Context, evidence *domain.Evidence) error

	// Delete removes an evidence record from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// ListRecentPublic returns the newest public evidence records with
	// owner summaries attached, for the activity feed.
	ListRecentPublic(ctx context.Context, limit int) ([]domain.Evidence, []domain.UserSummary, error)
}

// ReportRepository defines the interface for moderation report persistence
// operations.
type ReportRepository interface {
	// Create inserts a new report into the store.
	Create(ctx context.Context, report *domain.Report) error

	// GetByID retrieves a report by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Report, error)

	// List returns paginated reports, optionally filtered by status,
	// newest first, along with the total count.
	List(ctx context.Context, status string, page, perPage int) ([]domain.Report, int, error)

	// Update modifies a report's status and admin notes.
	Update(ctx context.Context, report *domain.Report) error
}

// RefreshTokenRepository defines the interface for refresh token persistence
// operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeByUserID revokes all refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error
}
