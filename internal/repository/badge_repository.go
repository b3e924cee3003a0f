package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

// BadgeRepository persists draft-status badges in the local SQL store.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs the repository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// List returns every stored badge.
func (r *BadgeRepository) List(ctx context.Context) ([]models.DraftStatusBadge, error) {
	const query = `SELECT course_id, status, updated_at FROM draft_status_badges ORDER BY course_id ASC`
	var badges []models.DraftStatusBadge
	if err := r.db.SelectContext(ctx, &badges, query); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// Upsert writes the badge for a course.
func (r *BadgeRepository) Upsert(ctx context.Context, badge models.DraftStatusBadge) error {
	query := r.db.Rebind(`INSERT INTO draft_status_badges (course_id, status, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (course_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`)
	if badge.UpdatedAt.IsZero() {
		badge.UpdatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, badge.CourseID, string(badge.Status), badge.UpdatedAt); err != nil {
		return fmt.Errorf("upsert badge %d: %w", badge.CourseID, err)
	}
	return nil
}

// Delete removes one course's badge.
func (r *BadgeRepository) Delete(ctx context.Context, courseID int64) error {
	query := r.db.Rebind(`DELETE FROM draft_status_badges WHERE course_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("delete badge %d: %w", courseID, err)
	}
	return nil
}

// DeleteAll removes every badge.
func (r *BadgeRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM draft_status_badges`); err != nil {
		return fmt.Errorf("delete all badges: %w", err)
	}
	return nil
}
