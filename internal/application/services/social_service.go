package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/application/loaders"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/domain/social"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// IncomingRequest is a pending follow request with the requester's public profile
type IncomingRequest struct {
	Request   entities.FollowRequest  `json:"request"`
	Requester *entities.PublicProfile `json:"requester,omitempty"`
}

// SocialService applies follow graph transitions and persists their deltas
type SocialService struct {
	followRepo     repositories.FollowRepository
	userRepo       repositories.UserRepository
	restaurantRepo repositories.RestaurantRepository
	eventBus       providers.EventBus
	metrics        *observability.DomainMetrics
	now            func() time.Time
}

// NewSocialService creates a new social service. eventBus may be nil.
func NewSocialService(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	restaurantRepo repositories.RestaurantRepository,
	eventBus providers.EventBus,
	metrics *observability.DomainMetrics,
) *SocialService {
	return &SocialService{
		followRepo:     followRepo,
		userRepo:       userRepo,
		restaurantRepo: restaurantRepo,
		eventBus:       eventBus,
		metrics:        metrics,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Follow follows a public user or requests to follow a private one and returns the new state
func (s *SocialService) Follow(ctx context.Context, viewerID, targetID string) (entities.FollowState, error) {
	target, g, err := s.loadPair(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}

	next, tr := social.Follow(g, viewerID, target, uuid.New().String(), s.now())
	if err := s.apply(ctx, tr, viewerID, targetID); err != nil {
		return "", err
	}
	return social.State(next, viewerID, targetID), nil
}

// Unfollow removes the viewer's follow of targetID, or withdraws a pending request
func (s *SocialService) Unfollow(ctx context.Context, viewerID, targetID string) (entities.FollowState, error) {
	_, g, err := s.loadPair(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}

	next, tr := social.UnfollowUser(g, viewerID, targetID)
	if !tr.Changed() {
		next, tr = social.CancelFollowRequest(g, viewerID, targetID)
	}
	if err := s.apply(ctx, tr, viewerID, targetID); err != nil {
		return "", err
	}
	return social.State(next, viewerID, targetID), nil
}

// State returns the relationship between the viewer and targetID
func (s *SocialService) State(ctx context.Context, viewerID, targetID string) (entities.FollowState, error) {
	if viewerID == "" {
		return entities.FollowStateNone, nil
	}
	follows, requests, err := s.followRepo.ListForPair(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	return social.State(social.Graph{Follows: follows, Requests: requests}, viewerID, targetID), nil
}

// Accept approves a request addressed to the viewer
func (s *SocialService) Accept(ctx context.Context, viewerID, requestID string) error {
	request, g, err := s.loadRequest(ctx, viewerID, requestID)
	if err != nil {
		return err
	}

	_, tr := social.AcceptFollowRequest(g, requestID, s.now())
	return s.apply(ctx, tr, viewerID, request.RequesterID)
}

// Decline rejects a request addressed to the viewer
func (s *SocialService) Decline(ctx context.Context, viewerID, requestID string) error {
	request, g, err := s.loadRequest(ctx, viewerID, requestID)
	if err != nil {
		return err
	}

	_, tr := social.DeclineFollowRequest(g, requestID)
	return s.apply(ctx, tr, viewerID, request.RequesterID)
}

// IncomingRequests lists the requests addressed to the viewer with requester profiles
func (s *SocialService) IncomingRequests(ctx context.Context, viewerID string) ([]IncomingRequest, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to see follow requests")
	}

	requests, err := s.followRepo.ListIncomingRequests(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(requests))
	for i, r := range requests {
		ids[i] = r.RequesterID
	}
	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.userRepo, s.restaurantRepo)
	}
	users := l.LoadUsers(ctx, ids)

	out := make([]IncomingRequest, len(requests))
	for i, r := range requests {
		out[i] = IncomingRequest{Request: r}
		if u := users[r.RequesterID]; u != nil {
			profile := u.Profile()
			out[i].Requester = &profile
		}
	}
	return out, nil
}

func (s *SocialService) loadPair(ctx context.Context, viewerID, targetID string) (*entities.User, social.Graph, error) {
	if viewerID == "" {
		return nil, social.Graph{}, apperrors.NewUnauthorizedError("sign in to follow users")
	}
	if viewerID == targetID {
		return nil, social.Graph{}, apperrors.NewValidationError("you cannot follow yourself")
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, social.Graph{}, err
	}
	follows, requests, err := s.followRepo.ListForPair(ctx, viewerID, targetID)
	if err != nil {
		return nil, social.Graph{}, err
	}
	return target, social.Graph{Follows: follows, Requests: requests}, nil
}

func (s *SocialService) loadRequest(ctx context.Context, viewerID, requestID string) (*entities.FollowRequest, social.Graph, error) {
	if viewerID == "" {
		return nil, social.Graph{}, apperrors.NewUnauthorizedError("sign in to answer follow requests")
	}

	request, err := s.followRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, social.Graph{}, err
	}
	if request.TargetID != viewerID {
		return nil, social.Graph{}, apperrors.NewForbiddenError("only the requested user can answer a follow request")
	}

	follows, requests, err := s.followRepo.ListForPair(ctx, request.RequesterID, request.TargetID)
	if err != nil {
		return nil, social.Graph{}, err
	}
	return request, social.Graph{Follows: follows, Requests: requests}, nil
}

// apply persists a transition's delta, then publishes and counts it
func (s *SocialService) apply(ctx context.Context, tr social.Transition, actorID, otherID string) error {
	if !tr.Changed() {
		return nil
	}

	var err error
	switch tr.Kind {
	case social.TransitionFollowed:
		if tr.RemovedRequest != nil {
			// consume the leftover request in the same transaction
			err = s.followRepo.AcceptRequest(ctx, tr.RemovedRequest.ID, tr.AddedFollow)
		} else {
			err = s.followRepo.CreateFollow(ctx, tr.AddedFollow)
		}
	case social.TransitionRequested:
		err = s.followRepo.CreateRequest(ctx, tr.AddedRequest)
	case social.TransitionAccepted:
		err = s.followRepo.AcceptRequest(ctx, tr.RemovedRequest.ID, tr.AddedFollow)
	case social.TransitionDeclined, social.TransitionCancelled:
		err = s.followRepo.DeleteRequest(ctx, tr.RemovedRequest.ID)
	case social.TransitionUnfollowed:
		err = s.followRepo.DeleteFollow(ctx, tr.RemovedFollow.FollowerID, tr.RemovedFollow.FollowingID)
	}
	if err != nil {
		return err
	}

	s.metrics.IncFollowTransition(string(tr.Kind))
	s.publish(ctx, tr, actorID, otherID)
	return nil
}

var socialEventTypes = map[social.TransitionKind]entities.SocialEventType{
	social.TransitionFollowed:   entities.SocialEventTypeFollowed,
	social.TransitionRequested:  entities.SocialEventTypeFollowRequested,
	social.TransitionAccepted:   entities.SocialEventTypeFollowAccepted,
	social.TransitionDeclined:   entities.SocialEventTypeFollowDeclined,
	social.TransitionCancelled:  entities.SocialEventTypeFollowCancelled,
	social.TransitionUnfollowed: entities.SocialEventTypeUnfollowed,
}

// publish notifies the other party of the change
func (s *SocialService) publish(ctx context.Context, tr social.Transition, actorID, otherID string) {
	if s.eventBus == nil {
		return
	}
	eventType, ok := socialEventTypes[tr.Kind]
	if !ok {
		return
	}

	channel := providers.GetSocialChannel(otherID)
	if err := s.eventBus.PublishSocial(ctx, channel, entities.NewSocialEvent(eventType, actorID, otherID)); err != nil {
		log.Warn().Err(err).Str("channel", channel).Str("kind", string(tr.Kind)).Msg("Failed to publish social event")
	}
}
