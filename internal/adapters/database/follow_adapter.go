package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const (
	followsTable        = "follows"
	followRequestsTable = "follow_requests"
)

// FollowAdapter implements the FollowRepository interface
type FollowAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFollowAdapter creates a new follow adapter
func NewFollowAdapter(client *postgres.Client) repositories.FollowRepository {
	return &FollowAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListFollows retrieves every follow
func (a *FollowAdapter) ListFollows(ctx context.Context) ([]entities.Follow, error) {
	query, args, err := a.db.Select("follower_id", "following_id", "created_at").
		From(followsTable).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryFollows(ctx, query, args...)
}

// ListRequests retrieves every pending request
func (a *FollowAdapter) ListRequests(ctx context.Context) ([]entities.FollowRequest, error) {
	query, args, err := a.db.Select("id", "requester_id", "target_id", "created_at").
		From(followRequestsTable).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryRequests(ctx, query, args...)
}

// ListForPair retrieves the rows linking two users in either direction
func (a *FollowAdapter) ListForPair(ctx context.Context, x, y string) ([]entities.Follow, []entities.FollowRequest, error) {
	followsQuery, followsArgs, err := a.db.Select("follower_id", "following_id", "created_at").
		From(followsTable).
		Where(goqu.Or(
			goqu.Ex{"follower_id": x, "following_id": y},
			goqu.Ex{"follower_id": y, "following_id": x},
		)).
		ToSQL()
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to build query", err)
	}

	requestsQuery, requestsArgs, err := a.db.Select("id", "requester_id", "target_id", "created_at").
		From(followRequestsTable).
		Where(goqu.Or(
			goqu.Ex{"requester_id": x, "target_id": y},
			goqu.Ex{"requester_id": y, "target_id": x},
		)).
		ToSQL()
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to build query", err)
	}

	follows, err := a.queryFollows(ctx, followsQuery, followsArgs...)
	if err != nil {
		return nil, nil, err
	}
	requests, err := a.queryRequests(ctx, requestsQuery, requestsArgs...)
	if err != nil {
		return nil, nil, err
	}
	return follows, requests, nil
}

// CreateFollow inserts a follow, ignoring an existing one
func (a *FollowAdapter) CreateFollow(ctx context.Context, follow *entities.Follow) error {
	query, args, err := a.insertFollow(follow)
	if err != nil {
		return err
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return writeError("failed to create follow", err)
	}
	return nil
}

// DeleteFollow removes a follow
func (a *FollowAdapter) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	query, args, err := a.db.Delete(followsTable).
		Where(goqu.Ex{"follower_id": followerID, "following_id": followingID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build follow delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete follow", err)
	}
	return nil
}

// CreateRequest inserts a follow request
func (a *FollowAdapter) CreateRequest(ctx context.Context, request *entities.FollowRequest) error {
	query, args, err := a.db.Insert(followRequestsTable).Rows(goqu.Record{
		"id":           request.ID,
		"requester_id": request.RequesterID,
		"target_id":    request.TargetID,
		"created_at":   request.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build follow request insert query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return writeError("failed to create follow request", err)
	}
	return nil
}

// GetRequest retrieves a follow request by ID
func (a *FollowAdapter) GetRequest(ctx context.Context, id string) (*entities.FollowRequest, error) {
	query, args, err := a.db.Select("id", "requester_id", "target_id", "created_at").
		From(followRequestsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	request := &entities.FollowRequest{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&request.ID, &request.RequesterID, &request.TargetID, &request.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("follow request with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get follow request", err)
	}
	return request, nil
}

// DeleteRequest removes a follow request
func (a *FollowAdapter) DeleteRequest(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(followRequestsTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build follow request delete query", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete follow request", err)
	}
	return nil
}

// AcceptRequest deletes the request and inserts the follow atomically. A request that
// has already been consumed yields a not found error and nothing is written.
func (a *FollowAdapter) AcceptRequest(ctx context.Context, requestID string, follow *entities.Follow) error {
	deleteQuery, deleteArgs, err := a.db.Delete(followRequestsTable).Where(goqu.Ex{"id": requestID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build follow request delete query", err)
	}

	var insertQuery string
	var insertArgs []interface{}
	if follow != nil {
		if insertQuery, insertArgs, err = a.insertFollow(follow); err != nil {
			return err
		}
	}

	err = a.client.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return apperrors.NewInternalError("failed to delete follow request", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if rows == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("follow request with id %s not found", requestID))
		}

		if insertQuery == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return writeError("failed to create follow", err)
		}
		return nil
	})
	return err
}

// ListIncomingRequests retrieves the requests addressed to a user, newest first
func (a *FollowAdapter) ListIncomingRequests(ctx context.Context, targetID string) ([]entities.FollowRequest, error) {
	query, args, err := a.db.Select("id", "requester_id", "target_id", "created_at").
		From(followRequestsTable).
		Where(goqu.Ex{"target_id": targetID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryRequests(ctx, query, args...)
}

func (a *FollowAdapter) insertFollow(follow *entities.Follow) (string, []interface{}, error) {
	query, args, err := a.db.Insert(followsTable).Rows(goqu.Record{
		"follower_id":  follow.FollowerID,
		"following_id": follow.FollowingID,
		"created_at":   follow.CreatedAt,
	}).OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to build follow insert query", err)
	}
	return query, args, nil
}

func (a *FollowAdapter) queryFollows(ctx context.Context, query string, args ...interface{}) ([]entities.Follow, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query follows", err)
	}
	defer rows.Close()

	follows := []entities.Follow{}
	for rows.Next() {
		var f entities.Follow
		if err := rows.Scan(&f.FollowerID, &f.FollowingID, &f.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan follow", err)
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate follows", err)
	}
	return follows, nil
}

func (a *FollowAdapter) queryRequests(ctx context.Context, query string, args ...interface{}) ([]entities.FollowRequest, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query follow requests", err)
	}
	defer rows.Close()

	requests := []entities.FollowRequest{}
	for rows.Next() {
		var r entities.FollowRequest
		if err := rows.Scan(&r.ID, &r.RequesterID, &r.TargetID, &r.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan follow request", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate follow requests", err)
	}
	return requests, nil
}
