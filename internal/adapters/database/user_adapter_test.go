package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/adapters/database"
	"github.com/tastefull/backend/internal/domain/entities"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

var userRowColumns = []string{"id", "email", "display_name", "is_private", "created_at", "updated_at"}

func TestUserAdapter_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	user := &entities.User{ID: "u1", Email: "ana@example.com", DisplayName: "Ana", CreatedAt: now, UpdatedAt: now}

	t.Run("inserts the user", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

		err := database.NewUserAdapter(client).Create(ctx, user)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(&pq.Error{Code: "23505"})

		err := database.NewUserAdapter(client).Create(ctx, user)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))
	})
}

func TestUserAdapter_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectQuery(`SELECT .* FROM "users" WHERE \("id" = 'u1'\)`).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "ana@example.com", "Ana", true, now, now))

		user, err := database.NewUserAdapter(client).GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ana", user.DisplayName)
		assert.True(t, user.IsPrivate)
	})

	t.Run("not found", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectQuery(`SELECT .* FROM "users"`).WillReturnRows(sqlmock.NewRows(userRowColumns))

		_, err := database.NewUserAdapter(client).GetByID(ctx, "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestUserAdapter_GetByIDs(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("empty input skips the query", func(t *testing.T) {
		client, mock := newMockClient(t)
		users, err := database.NewUserAdapter(client).GetByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, users)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads matching users", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectQuery(`SELECT .* FROM "users" WHERE \("id" IN \('u1', 'u2'\)\)`).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "a@example.com", "A", false, now, now).
				AddRow("u2", "b@example.com", "B", false, now, now))

		users, err := database.NewUserAdapter(client).GetByIDs(ctx, []string{"u1", "u2"})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestUserAdapter_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("missing user", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := database.NewUserAdapter(client).Update(ctx, &entities.User{ID: "ghost"})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("updates privacy", func(t *testing.T) {
		client, mock := newMockClient(t)
		mock.ExpectExec(`UPDATE "users" SET .*"is_private"=TRUE`).WillReturnResult(sqlmock.NewResult(0, 1))

		user := &entities.User{ID: "u1", DisplayName: "Ana", IsPrivate: true}
		require.NoError(t, database.NewUserAdapter(client).Update(ctx, user))
		assert.False(t, user.UpdatedAt.IsZero())
	})
}
