package handlers

import (
	"context"
	"net/http"

	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
)

// SocialService defines the follow graph operations used by the handler
type SocialService interface {
	Follow(ctx context.Context, viewerID, targetID string) (entities.FollowState, error)
	Unfollow(ctx context.Context, viewerID, targetID string) (entities.FollowState, error)
	State(ctx context.Context, viewerID, targetID string) (entities.FollowState, error)
	Accept(ctx context.Context, viewerID, requestID string) error
	Decline(ctx context.Context, viewerID, requestID string) error
	IncomingRequests(ctx context.Context, viewerID string) ([]services.IncomingRequest, error)
}

// SocialHandler handles follow and follow request HTTP requests
type SocialHandler struct {
	service SocialService
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(service SocialService) *SocialHandler {
	return &SocialHandler{service: service}
}

type followStateResponse struct {
	UserID string               `json:"user_id"`
	State  entities.FollowState `json:"state"`
}

// GetFollowState handles GET /api/users/{id}/follow
func (h *SocialHandler) GetFollowState(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	state, err := h.service.State(r.Context(), middleware.ViewerID(r.Context()), targetID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, followStateResponse{UserID: targetID, State: state})
}

// Follow handles POST /api/users/{id}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	state, err := h.service.Follow(r.Context(), middleware.ViewerID(r.Context()), targetID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, followStateResponse{UserID: targetID, State: state})
}

// Unfollow handles DELETE /api/users/{id}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	state, err := h.service.Unfollow(r.Context(), middleware.ViewerID(r.Context()), targetID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, followStateResponse{UserID: targetID, State: state})
}

// ListRequests handles GET /api/follow-requests
func (h *SocialHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.IncomingRequests(r.Context(), middleware.ViewerID(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

// AcceptRequest handles POST /api/follow-requests/{id}/accept
func (h *SocialHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Accept(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeclineRequest handles POST /api/follow-requests/{id}/decline
func (h *SocialHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Decline(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
