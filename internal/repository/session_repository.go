package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

// SessionRepository persists the signed-in session in the local SQL store.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts or replaces a session row.
func (r *SessionRepository) Save(ctx context.Context, record models.SessionRecord) error {
	query := r.db.Rebind(`INSERT INTO desk_sessions (id, user_payload, sealed_tokens, expires_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET user_payload = excluded.user_payload, sealed_tokens = excluded.sealed_tokens,
    expires_at = excluded.expires_at, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, record.ID, record.UserPayload, record.SealedTokens, record.ExpiresAt, record.UpdatedAt); err != nil {
		return fmt.Errorf("save session %s: %w", record.ID, err)
	}
	return nil
}

// Latest returns the most recently updated session.
func (r *SessionRepository) Latest(ctx context.Context) (*models.SessionRecord, error) {
	const query = `SELECT id, user_payload, sealed_tokens, expires_at, updated_at FROM desk_sessions ORDER BY updated_at DESC LIMIT 1`
	var record models.SessionRecord
	if err := r.db.GetContext(ctx, &record, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no stored session")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &record, nil
}

// Delete removes a session row.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM desk_sessions WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
