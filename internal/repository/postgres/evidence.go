package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/pkg/database"
	apperrors "github.com/maturehumanity/levela/pkg/errors"
)

// EvidenceRepository implements repository.EvidenceRepository using PostgreSQL.
type EvidenceRepository struct {
	pool database.DBTX
}

// NewEvidenceRepository creates a new PostgreSQL-backed evidence repository.
func NewEvidenceRepository(pool database.DBTX) *EvidenceRepository {
	return &EvidenceRepository{pool: pool}
}

// Create inserts a new evidence record into the database.
func (r *EvidenceRepository) Create(ctx context.Context, e *domain.Evidence) error {
	query := `
		INSERT INTO evidence (id, user_id, pillar, title, description, file_uri, file_type, visibility, endorsement_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Pillar,
		e.Title,
		e.Description,
		e.FileURI,
		e.FileType,
		e.Visibility,
		e.EndorsementID,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence: %w", err)
	}

	return nil
}

// GetByID retrieves an evidence record by its ID.
func (r *EvidenceRepository) GetByID(ctx context.Context, id string) (*domain.Evidence, error) {
	query := `
		SELECT id, user_id, pillar, title, description, file_uri, file_type, visibility, endorsement_id, created_at, updated_at
		FROM evidence
		WHERE id = $1`

	var e domain.Evidence
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.UserID,
		&e.Pillar,
		&e.Title,
		&e.Description,
		&e.FileURI,
		&e.FileType,
		&e.Visibility,
		&e.EndorsementID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan evidence: %w", err)
	}

	return &e, nil
}

// ListByUser returns the user's evidence, newest first, optionally filtered
// by pillar. When publicOnly is set, private records are excluded.
func (r *EvidenceRepository) ListByUser(ctx context.Context, userID string, pillar *domain.Pillar, publicOnly bool) ([]domain.Evidence, error) {
	query := `
		SELECT id, user_id, pillar, title, description, file_uri, file_type, visibility, endorsement_id, created_at, updated_at
		FROM evidence
		WHERE user_id = $1
		  AND ($2::text IS NULL OR pillar = $2)
		  AND ($3 = false OR visibility = 'public')
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, pillar, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var records []domain.Evidence
	for rows.Next() {
		var e domain.Evidence
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Pillar,
			&e.Title,
			&e.Description,
			&e.FileURI,
			&e.FileType,
			&e.Visibility,
			&e.EndorsementID,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan evidence row: %w", err)
		}
		records = append(records, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence rows: %w", err)
	}

	if records == nil {
		records = []domain.Evidence{}
	}

	return records, nil
}

// Update modifies an existing evidence record in the database.
func (r *EvidenceRepository) Update(ctx context.Context, e *domain.Evidence) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE evidence
		SET pillar = $1, title = $2, description = $3, file_uri = $4, file_type = $5,
		    visibility = $6, endorsement_id = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.pool.Exec(ctx, query,
		e.Pillar,
		e.Title,
		e.Description,
		e.FileURI,
		e.FileType,
		e.Visibility,
		e.EndorsementID,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("evidence", e.ID)
	}

	return nil
}

// Delete removes an evidence record from the database by its ID.
func (r *EvidenceRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM evidence WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("evidence", id)
	}

	return nil
}

// ListRecentPublic returns the newest public evidence records with owner
// summaries attached, for the activity feed. The summaries slice is parallel
// to the evidence slice.
func (r *EvidenceRepository) ListRecentPublic(ctx context.Context, limit int) ([]domain.Evidence, []domain.UserSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT e.id, e.user_id, e.pillar, e.title, e.description, e.file_uri, e.file_type, e.visibility, e.endorsement_id, e.created_at, e.updated_at,
		       u.id, u.name, u.avatar_url, u.is_verified
		FROM evidence e
		JOIN users u ON u.id = e.user_id
		WHERE e.visibility = 'public'
		ORDER BY e.created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("list recent evidence: %w", err)
	}
	defer rows.Close()

	var (
		records []domain.Evidence
		owners  []domain.UserSummary
	)

	for rows.Next() {
		var (
			e domain.Evidence
			u domain.UserSummary
		)
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Pillar,
			&e.Title,
			&e.Description,
			&e.FileURI,
			&e.FileType,
			&e.Visibility,
			&e.EndorsementID,
			&e.CreatedAt,
			&e.UpdatedAt,
			&u.ID,
			&u.Name,
			&u.AvatarURL,
			&u.IsVerified,
		); err != nil {
			return nil, nil, fmt.Errorf("scan recent evidence row: %w", err)
		}
		records = append(records, e)
		owners = append(owners, u)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate recent evidence rows: %w", err)
	}

	return records, owners, nil
}
