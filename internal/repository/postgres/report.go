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

// ReportRepository implements repository.ReportRepository using PostgreSQL.
type ReportRepository struct {
	pool database.DBTX
}

// NewReportRepository creates a new PostgreSQL-backed report repository.
func NewReportRepository(pool database.DBTX) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create inserts a new report into the database.
func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	query := `
		INSERT INTO reports (id, reporter_id, reported_user_id, reported_endorsement_id, reason, description, status, admin_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		rep.ID,
		rep.ReporterID,
		rep.ReportedUserID,
		rep.ReportedEndorsementID,
		rep.Reason,
		rep.Description,
		rep.Status,
		rep.AdminNotes,
		rep.CreatedAt,
		rep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by its ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	query := `
		SELECT id, reporter_id, reported_user_id, reported_endorsement_id, reason, description, status, admin_notes, created_at, updated_at
		FROM reports
		WHERE id = $1`

	var rep domain.Report
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID,
		&rep.ReporterID,
		&rep.ReportedUserID,
		&rep.ReportedEndorsementID,
		&rep.Reason,
		&rep.Description,
		&rep.Status,
		&rep.AdminNotes,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	return &rep, nil
}

// List returns paginated reports, optionally filtered by status, newest
// first, along with the total count.
func (r *ReportRepository) List(ctx context.Context, status string, page, perPage int) ([]domain.Report, int, error) {
	limit, offset := pageBounds(page, perPage)

	query := `
		SELECT id, reporter_id, reported_user_id, reported_endorsement_id, reason, description, status, admin_notes, created_at, updated_at,
		       count(*) OVER() AS total_count
		FROM reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var (
		reports    []domain.Report
		totalCount int
	)

	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(
			&rep.ID,
			&rep.ReporterID,
			&rep.ReportedUserID,
			&rep.ReportedEndorsementID,
			&rep.Reason,
			&rep.Description,
			&rep.Status,
			&rep.AdminNotes,
			&rep.CreatedAt,
			&rep.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate report rows: %w", err)
	}

	if reports == nil {
		reports = []domain.Report{}
	}

	return reports, totalCount, nil
}

// Update modifies a report's status and admin notes.
func (r *ReportRepository) Update(ctx context.Context, rep *domain.Report) error {
	rep.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reports
		SET status = $1, admin_notes = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query,
		rep.Status,
		rep.AdminNotes,
		rep.UpdatedAt,
		rep.ID,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("report", rep.ID)
	}

	return nil
}
