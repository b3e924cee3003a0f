package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

func TestSessionRepositorySave(t *testing.T) {
	db, mock, cleanup := newLocalStoreMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO desk_sessions").
		WithArgs("sess-1", `{"id":1}`, "sealed", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), models.SessionRecord{
		ID:           "sess-1",
		UserPayload:  `{"id":1}`,
		SealedTokens: "sealed",
		ExpiresAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLatestMissing(t *testing.T) {
	db, mock, cleanup := newLocalStoreMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	mock.ExpectQuery("SELECT id, user_payload").WillReturnError(sql.ErrNoRows)

	_, err := repo.Latest(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newLocalStoreMock(t)
	defer cleanup()

	repo := NewSessionRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_payload", "sealed_tokens", "expires_at", "updated_at"}).
		AddRow("sess-1", `{"id":1}`, "sealed", now, now)
	mock.ExpectQuery("SELECT id, user_payload").WillReturnRows(rows)

	record, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", record.ID)
	assert.Equal(t, "sealed", record.SealedTokens)
}
