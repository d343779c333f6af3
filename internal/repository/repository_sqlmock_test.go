package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlite3"), mock
}

func TestAccessRequestRepository_DriverErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("query failure is wrapped, not reported as missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM access_requests WHERE uid").
			WithArgs("u1").
			WillReturnError(errors.New("connection reset"))

		_, err := repository.NewAccessRequestRepository(db).GetAccessRequest(ctx, "u1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, approval.ErrNotFound)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update failure surfaces", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE access_requests").
			WillReturnError(errors.New("database is locked"))

		err := repository.NewAccessRequestRepository(db).UpdateAccessRequest(ctx, "u1", approval.Decision{
			Status: approval.StatusApproved, DecidedAt: time.Now(),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("claims write failure surfaces", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO user_claims").
			WillReturnError(errors.New("disk full"))

		err := repository.NewClaimsRepository(db).SetClaims(ctx, "u1", approval.Claims{Approved: true})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
