package entities

import "time"

// Follow is an established follow relationship
type Follow struct {
	FollowerID  string    `json:"follower_id" db:"follower_id"`
	FollowingID string    `json:"following_id" db:"following_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// FollowRequest is a pending follow awaiting approval by a private user
type FollowRequest struct {
	ID          string    `json:"id" db:"id"`
	RequesterID string    `json:"requester_id" db:"requester_id"`
	TargetID    string    `json:"target_id" db:"target_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// FollowState is the relationship state of a (follower, target) pair
type FollowState string

const (
	FollowStateNone      FollowState = "none"
	FollowStateRequested FollowState = "requested"
	FollowStateFollowing FollowState = "following"
)
