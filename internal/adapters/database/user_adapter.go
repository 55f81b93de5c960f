package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

var userColumns = []interface{}{"id", "email", "display_name", "is_private", "created_at", "updated_at"}

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new user
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"is_private":   user.IsPrivate,
		"created_at":   user.CreatedAt,
		"updated_at":   user.UpdatedAt,
	}

	query, args, err := a.db.Insert("users").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return writeError("failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getByField(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getByField(ctx, "email", email)
}

// GetByIDs retrieves multiple users by their IDs
func (a *UserAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	query, args, err := a.db.Select(userColumns...).From("users").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.query(ctx, query, args...)
}

// List retrieves every user
func (a *UserAdapter) List(ctx context.Context) ([]*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).From("users").
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.query(ctx, query, args...)
}

// Update updates a user's display name and privacy flag
func (a *UserAdapter) Update(ctx context.Context, user *entities.User) error {
	user.UpdatedAt = time.Now()

	query, args, err := a.db.Update("users").
		Set(goqu.Record{
			"display_name": user.DisplayName,
			"is_private":   user.IsPrivate,
			"updated_at":   user.UpdatedAt,
		}).
		Where(goqu.Ex{"id": user.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build user update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", user.ID))
	}
	return nil
}

func (a *UserAdapter) getByField(ctx context.Context, field, value string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).From("users").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user := &entities.User{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.IsPrivate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}

	return user, nil
}

func (a *UserAdapter) query(ctx context.Context, query string, args ...interface{}) ([]*entities.User, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query users", err)
	}
	defer rows.Close()

	users := []*entities.User{}
	for rows.Next() {
		user := &entities.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.DisplayName,
			&user.IsPrivate,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate users", err)
	}

	return users, nil
}
