package repositories

import (
	"context"

	"github.com/tastefull/backend/internal/domain/entities"
)

// FollowRepository defines the interface for follows and follow requests
type FollowRepository interface {
	// ListFollows retrieves every follow
	ListFollows(ctx context.Context) ([]entities.Follow, error)

	// ListRequests retrieves every pending follow request
	ListRequests(ctx context.Context) ([]entities.FollowRequest, error)

	// ListForPair retrieves the follows and requests between two users in either direction
	ListForPair(ctx context.Context, a, b string) ([]entities.Follow, []entities.FollowRequest, error)

	// CreateFollow inserts a follow; an existing follow is left untouched
	CreateFollow(ctx context.Context, follow *entities.Follow) error

	// DeleteFollow removes a follow; removing an absent follow is not an error
	DeleteFollow(ctx context.Context, followerID, followingID string) error

	// CreateRequest inserts a follow request
	CreateRequest(ctx context.Context, request *entities.FollowRequest) error

	// GetRequest retrieves a follow request by ID
	GetRequest(ctx context.Context, id string) (*entities.FollowRequest, error)

	// DeleteRequest removes a follow request; removing an absent request is not an error
	DeleteRequest(ctx context.Context, id string) error

	// AcceptRequest removes the request and, when follow is non-nil, inserts it in one transaction
	AcceptRequest(ctx context.Context, requestID string, follow *entities.Follow) error

	// ListIncomingRequests retrieves the requests addressed to a user, newest first
	ListIncomingRequests(ctx context.Context, targetID string) ([]entities.FollowRequest, error)
}
