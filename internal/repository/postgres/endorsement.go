package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/pkg/database"
	apperrors "github.com/maturehumanity/levela/pkg/errors"
)

// EndorsementRepository implements repository.EndorsementRepository using PostgreSQL.
type EndorsementRepository struct {
	pool database.DBTX
}

// NewEndorsementRepository creates a new PostgreSQL-backed endorsement repository.
func NewEndorsementRepository(pool database.DBTX) *EndorsementRepository {
	return &EndorsementRepository{pool: pool}
}

// Create inserts a new endorsement. The per-triple 30-day cooldown is
// enforced inside a transaction holding an advisory lock on the
// (rater, ratee, pillar) triple, so two concurrent requests that both passed
// the eligibility pre-check cannot insert duplicate rows: the second one
// blocks on the lock, re-checks the window, and gets a conflict.
func (r *EndorsementRepository) Create(ctx context.Context, e *domain.Endorsement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tripleKey := e.RaterID + ":" + e.RateeID + ":" + string(e.Pillar)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tripleKey); err != nil {
		return fmt.Errorf("acquire endorsement lock: %w", err)
	}

	var blocked bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM endorsements
			WHERE rater_id = $1 AND ratee_id = $2 AND pillar = $3
			  AND is_hidden = false
			  AND created_at > now() - interval '30 days'
		)`,
		e.RaterID, e.RateeID, e.Pillar,
	).Scan(&blocked)
	if err != nil {
		return fmt.Errorf("check endorsement window: %w", err)
	}

	if blocked {
		return apperrors.Conflict("this user was already endorsed for this pillar within the last 30 days")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO endorsements (id, rater_id, ratee_id, pillar, stars, comment, is_hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID,
		e.RaterID,
		e.RateeID,
		e.Pillar,
		e.Stars,
		e.Comment,
		e.IsHidden,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert endorsement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves an endorsement by its ID, hidden or not.
func (r *EndorsementRepository) GetByID(ctx context.Context, id string) (*domain.Endorsement, error) {
	query := `
		SELECT id, rater_id, ratee_id, pillar, stars, comment, is_hidden, created_at, updated_at
		FROM endorsements
		WHERE id = $1`

	var e domain.Endorsement
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.RaterID,
		&e.RateeID,
		&e.Pillar,
		&e.Stars,
		&e.Comment,
		&e.IsHidden,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan endorsement: %w", err)
	}

	return &e, nil
}

// ListVisibleByRatee returns all non-hidden endorsements received by the user
// within the pillar, newest first.
func (r *EndorsementRepository) ListVisibleByRatee(ctx context.Context, rateeID string, pillar domain.Pillar) (_ []domain.Endorsement, err error) {
	query := `
		SELECT id, rater_id, ratee_id, pillar, stars, comment, is_hidden, created_at, updated_at
		FROM endorsements
		WHERE ratee_id = $1 AND pillar = $2 AND is_hidden = false
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListVisibleByRatee", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, rateeID, pillar)
	if err != nil {
		return nil, fmt.Errorf("list endorsements: %w", err)
	}
	defer rows.Close()

	var endorsements []domain.Endorsement
	for rows.Next() {
		var e domain.Endorsement
		if err := rows.Scan(
			&e.ID,
			&e.RaterID,
			&e.RateeID,
			&e.Pillar,
			&e.Stars,
			&e.Comment,
			&e.IsHidden,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan endorsement row: %w", err)
		}
		endorsements = append(endorsements, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endorsement rows: %w", err)
	}

	return endorsements, nil
}

// VisiblePillarAverages returns per-pillar mean stars and counts over the
// user's non-hidden received endorsements.
func (r *EndorsementRepository) VisiblePillarAverages(ctx context.Context, rateeID string) (_ []domain.PillarAverage, err error) {
	query := `
		SELECT pillar, AVG(stars), COUNT(*)
		FROM endorsements
		WHERE ratee_id = $1 AND is_hidden = false
		GROUP BY pillar`

	ctx, end := database.TraceQuery(ctx, "VisiblePillarAverages", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, rateeID)
	if err != nil {
		return nil, fmt.Errorf("pillar averages: %w", err)
	}
	defer rows.Close()

	var averages []domain.PillarAverage
	for rows.Next() {
		var a domain.PillarAverage
		if err := rows.Scan(&a.Pillar, &a.AverageStars, &a.Count); err != nil {
			return nil, fmt.Errorf("scan pillar average row: %w", err)
		}
		averages = append(averages, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pillar average rows: %w", err)
	}

	return averages, nil
}

// LatestVisible returns the most recent non-hidden endorsement for the exact
// (rater, ratee, pillar) triple, or nil when none exists.
func (r *EndorsementRepository) LatestVisible(ctx context.Context, raterID, rateeID string, pillar domain.Pillar) (*domain.Endorsement, error) {
	query := `
		SELECT id, rater_id, ratee_id, pillar, stars, comment, is_hidden, created_at, updated_at
		FROM endorsements
		WHERE rater_id = $1 AND ratee_id = $2 AND pillar = $3 AND is_hidden = false
		ORDER BY created_at DESC
		LIMIT 1`

	ctx, end := database.TraceQuery(ctx, "LatestVisible", query)

	var e domain.Endorsement
	err := r.pool.QueryRow(ctx, query, raterID, rateeID, pillar).Scan(
		&e.ID,
		&e.RaterID,
		&e.RateeID,
		&e.Pillar,
		&e.Stars,
		&e.Comment,
		&e.IsHidden,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No prior endorsement is a normal outcome, not an error.
			end(nil)
			return nil, nil
		}
		end(err)
		return nil, fmt.Errorf("scan latest endorsement: %w", err)
	}

	end(nil)
	return &e, nil
}

// ListReceived returns paginated non-hidden endorsements received by the user
// with rater summaries attached, newest first, plus the total count.
func (r *EndorsementRepository) ListReceived(ctx context.Context, rateeID string, pillar *domain.Pillar, page, perPage int) ([]domain.EndorsementWithRater, int, error) {
	limit, offset := pageBounds(page, perPage)

	query := `
		SELECT e.id, e.rater_id, e.ratee_id, e.pillar, e.stars, e.comment, e.is_hidden, e.created_at, e.updated_at,
		       u.id, u.name, u.avatar_url, u.is_verified,
		       count(*) OVER() AS total_count
		FROM endorsements e
		JOIN users u ON u.id = e.rater_id
		WHERE e.ratee_id = $1 AND e.is_hidden = false
		  AND ($2::text IS NULL OR e.pillar = $2)
		ORDER BY e.created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, rateeID, pillar, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list received endorsements: %w", err)
	}
	defer rows.Close()

	var (
		items      []domain.EndorsementWithRater
		totalCount int
	)

	for rows.Next() {
		var item domain.EndorsementWithRater
		if err := rows.Scan(
			&item.ID,
			&item.RaterID,
			&item.RateeID,
			&item.Pillar,
			&item.Stars,
			&item.Comment,
			&item.IsHidden,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Rater.ID,
			&item.Rater.Name,
			&item.Rater.AvatarURL,
			&item.Rater.IsVerified,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan received endorsement row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate received endorsement rows: %w", err)
	}

	if items == nil {
		items = []domain.EndorsementWithRater{}
	}

	return items, totalCount, nil
}

// ListGiven returns paginated non-hidden endorsements authored by the user
// with ratee summaries attached, newest first, plus the total count.
func (r *EndorsementRepository) ListGiven(ctx context.Context, raterID string, page, perPage int) ([]domain.EndorsementWithRatee, int, error) {
	limit, offset := pageBounds(page, perPage)

	query := `
		SELECT e.id, e.rater_id, e.ratee_id, e.pillar, e.stars, e.comment, e.is_hidden, e.created_at, e.updated_at,
		       u.id, u.name, u.avatar_url, u.is_verified,
		       count(*) OVER() AS total_count
		FROM endorsements e
		JOIN users u ON u.id = e.ratee_id
		WHERE e.rater_id = $1 AND e.is_hidden = false
		ORDER BY e.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, raterID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list given endorsements: %w", err)
	}
	defer rows.Close()

	var (
		items      []domain.EndorsementWithRatee
		totalCount int
	)

	for rows.Next() {
		var item domain.EndorsementWithRatee
		if err := rows.Scan(
			&item.ID,
			&item.RaterID,
			&item.RateeID,
			&item.Pillar,
			&item.Stars,
			&item.Comment,
			&item.IsHidden,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Ratee.ID,
			&item.Ratee.Name,
			&item.Ratee.AvatarURL,
			&item.Ratee.IsVerified,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan given endorsement row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate given endorsement rows: %w", err)
	}

	if items == nil {
		items = []domain.EndorsementWithRatee{}
	}

	return items, totalCount, nil
}

// ListRecentVisible returns the newest non-hidden endorsements across all
// users with both party summaries attached, for the activity feed.
func (r *EndorsementRepository) ListRecentVisible(ctx context.Context, limit int) ([]domain.EndorsementWithParties, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT e.id, e.rater_id, e.ratee_id, e.pillar, e.stars, e.comment, e.is_hidden, e.created_at, e.updated_at,
		       rater.id, rater.name, rater.avatar_url, rater.is_verified,
		       ratee.id, ratee.name, ratee.avatar_url, ratee.is_verified
		FROM endorsements e
		JOIN users rater ON rater.id = e.rater_id
		JOIN users ratee ON ratee.id = e.ratee_id
		WHERE e.is_hidden = false
		ORDER BY e.created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent endorsements: %w", err)
	}
	defer rows.Close()

	var items []domain.EndorsementWithParties
	for rows.Next() {
		var item domain.EndorsementWithParties
		if err := rows.Scan(
			&item.ID,
			&item.RaterID,
			&item.RateeID,
			&item.Pillar,
			&item.Stars,
			&item.Comment,
			&item.IsHidden,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Rater.ID,
			&item.Rater.Name,
			&item.Rater.AvatarURL,
			&item.Rater.IsVerified,
			&item.Ratee.ID,
			&item.Ratee.Name,
			&item.Ratee.AvatarURL,
			&item.Ratee.IsVerified,
		); err != nil {
			return nil, fmt.Errorf("scan recent endorsement row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent endorsement rows: %w", err)
	}

	return items, nil
}

// SetHidden flips the moderation visibility flag on an endorsement.
func (r *EndorsementRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	query := `UPDATE endorsements SET is_hidden = $1, updated_at = now() WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, hidden, id)
	if err != nil {
		return fmt.Errorf("set endorsement hidden: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("endorsement", id)
	}

	return nil
}
