// Package social holds the follow/request state machine.
//
// Each (follower, target) pair moves none -> requested -> following when the target is
// private, and none -> following when the target is public. Transitions are pure: they take
// a Graph value and return a new Graph plus the exact delta, leaving the input untouched.
package social

import (
	"time"

	"github.com/tastefull/backend/internal/domain/entities"
)

// Graph is a materialized slice of the follow graph
type Graph struct {
	Follows  []entities.Follow
	Requests []entities.FollowRequest
}

// TransitionKind names the outcome of a transition
type TransitionKind string

const (
	TransitionNone       TransitionKind = "none"
	TransitionFollowed   TransitionKind = "followed"
	TransitionRequested  TransitionKind = "requested"
	TransitionAccepted   TransitionKind = "accepted"
	TransitionDeclined   TransitionKind = "declined"
	TransitionCancelled  TransitionKind = "cancelled"
	TransitionUnfollowed TransitionKind = "unfollowed"
)

// Transition is the delta produced by a state change
type Transition struct {
	Kind           TransitionKind
	AddedFollow    *entities.Follow
	RemovedFollow  *entities.Follow
	AddedRequest   *entities.FollowRequest
	RemovedRequest *entities.FollowRequest
}

// Changed reports whether the transition modified the graph
func (t Transition) Changed() bool {
	return t.Kind != TransitionNone
}

var noChange = Transition{Kind: TransitionNone}

// FollowUser follows a public target directly. Self-follows, private targets and existing
// follows leave the graph unchanged. A request left over from when the target was private
// is consumed by the follow and reported in RemovedRequest.
func FollowUser(g Graph, followerID string, target *entities.User, now time.Time) (Graph, Transition) {
	if target == nil || followerID == "" || followerID == target.ID || target.IsPrivate {
		return g, noChange
	}
	if g.isFollowing(followerID, target.ID) {
		return g, noChange
	}

	follow := entities.Follow{FollowerID: followerID, FollowingID: target.ID, CreatedAt: now}
	next := g.clone()
	next.Follows = append(next.Follows, follow)
	transition := Transition{Kind: TransitionFollowed, AddedFollow: &follow}

	if idx := g.pendingIndex(followerID, target.ID); idx >= 0 {
		request := g.Requests[idx]
		next.Requests = append(next.Requests[:idx], next.Requests[idx+1:]...)
		transition.RemovedRequest = &request
	}
	return next, transition
}

// RequestToFollow records a pending request against a private target. Public targets,
// self-requests, existing follows and existing requests leave the graph unchanged.
func RequestToFollow(g Graph, requesterID string, target *entities.User, requestID string, now time.Time) (Graph, Transition) {
	if target == nil || requesterID == "" || requestID == "" || requesterID == target.ID || !target.IsPrivate {
		return g, noChange
	}
	if g.isFollowing(requesterID, target.ID) || g.pendingRequest(requesterID, target.ID) != nil {
		return g, noChange
	}

	request := entities.FollowRequest{ID: requestID, RequesterID: requesterID, TargetID: target.ID, CreatedAt: now}
	next := g.clone()
	next.Requests = append(next.Requests, request)
	return next, Transition{Kind: TransitionRequested, AddedRequest: &request}
}

// Follow routes to FollowUser or RequestToFollow depending on the target's privacy
func Follow(g Graph, followerID string, target *entities.User, requestID string, now time.Time) (Graph, Transition) {
	if target != nil && target.IsPrivate {
		return RequestToFollow(g, followerID, target, requestID, now)
	}
	return FollowUser(g, followerID, target, now)
}

// AcceptFollowRequest turns a request into a follow. Unknown request IDs are a no-op.
func AcceptFollowRequest(g Graph, requestID string, now time.Time) (Graph, Transition) {
	idx := g.requestIndex(requestID)
	if idx < 0 {
		return g, noChange
	}

	request := g.Requests[idx]
	next := g.clone()
	next.Requests = append(next.Requests[:idx], next.Requests[idx+1:]...)
	transition := Transition{Kind: TransitionAccepted, RemovedRequest: &request}

	if request.RequesterID != request.TargetID && !g.isFollowing(request.RequesterID, request.TargetID) {
		follow := entities.Follow{FollowerID: request.RequesterID, FollowingID: request.TargetID, CreatedAt: now}
		next.Follows = append(next.Follows, follow)
		transition.AddedFollow = &follow
	}

	return next, transition
}

// DeclineFollowRequest removes a request. Removing an absent request is not an error.
func DeclineFollowRequest(g Graph, requestID string) (Graph, Transition) {
	idx := g.requestIndex(requestID)
	if idx < 0 {
		return g, noChange
	}

	request := g.Requests[idx]
	next := g.clone()
	next.Requests = append(next.Requests[:idx], next.Requests[idx+1:]...)
	return next, Transition{Kind: TransitionDeclined, RemovedRequest: &request}
}

// CancelFollowRequest withdraws the requester's pending request to targetID, if any
func CancelFollowRequest(g Graph, requesterID, targetID string) (Graph, Transition) {
	for i, r := range g.Requests {
		if r.RequesterID == requesterID && r.TargetID == targetID {
			removed := r
			next := g.clone()
			next.Requests = append(next.Requests[:i], next.Requests[i+1:]...)
			return next, Transition{Kind: TransitionCancelled, RemovedRequest: &removed}
		}
	}
	return g, noChange
}

// UnfollowUser removes a follow. Removing an absent follow is not an error.
func UnfollowUser(g Graph, followerID, targetID string) (Graph, Transition) {
	for i, f := range g.Follows {
		if f.FollowerID == followerID && f.FollowingID == targetID {
			removed := f
			next := g.clone()
			next.Follows = append(next.Follows[:i], next.Follows[i+1:]...)
			return next, Transition{Kind: TransitionUnfollowed, RemovedFollow: &removed}
		}
	}
	return g, noChange
}

// State returns the relationship state of a (follower, target) pair
func State(g Graph, followerID, targetID string) entities.FollowState {
	if g.isFollowing(followerID, targetID) {
		return entities.FollowStateFollowing
	}
	if g.pendingRequest(followerID, targetID) != nil {
		return entities.FollowStateRequested
	}
	return entities.FollowStateNone
}

// PendingRequest returns the pending request from requesterID to targetID, if any
func (g Graph) PendingRequest(requesterID, targetID string) *entities.FollowRequest {
	return g.pendingRequest(requesterID, targetID)
}

func (g Graph) isFollowing(followerID, targetID string) bool {
	for _, f := range g.Follows {
		if f.FollowerID == followerID && f.FollowingID == targetID {
			return true
		}
	}
	return false
}

func (g Graph) pendingRequest(requesterID, targetID string) *entities.FollowRequest {
	if i := g.pendingIndex(requesterID, targetID); i >= 0 {
		r := g.Requests[i]
		return &r
	}
	return nil
}

func (g Graph) pendingIndex(requesterID, targetID string) int {
	for i, r := range g.Requests {
		if r.RequesterID == requesterID && r.TargetID == targetID {
			return i
		}
	}
	return -1
}

func (g Graph) requestIndex(requestID string) int {
	if requestID == "" {
		return -1
	}
	for i, r := range g.Requests {
		if r.ID == requestID {
			return i
		}
	}
	return -1
}

func (g Graph) clone() Graph {
	follows := make([]entities.Follow, len(g.Follows), len(g.Follows)+1)
	copy(follows, g.Follows)
	requests := make([]entities.FollowRequest, len(g.Requests), len(g.Requests)+1)
	copy(requests, g.Requests)
	return Graph{Follows: follows, Requests: requests}
}
