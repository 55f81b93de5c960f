package handlers

import (
	"context"
	"net/http"

	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// UserService defines the account operations used by the handler
type UserService interface {
	Me(ctx context.Context, viewerID, email, displayName string) (*entities.User, error)
	UpdateProfile(ctx context.Context, viewerID string, update services.ProfileUpdate) (*entities.User, error)
}

// UserHandler handles the signed-in user's account
type UserHandler struct {
	users UserService
	orgs  OrganisationService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserService, orgs OrganisationService) *UserHandler {
	return &UserHandler{users: users, orgs: orgs}
}

type meResponse struct {
	*entities.User
	Organisations []*entities.Organisation `json:"organisations"`
}

// GetMe handles GET /api/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ViewerFromContext(r.Context())
	if claims == nil {
		respondWithAppError(w, r, apperrors.NewUnauthorizedError("not signed in"))
		return
	}

	user, err := h.users.Me(r.Context(), claims.Subject, claims.Email, claims.Name)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	orgs, err := h.orgs.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, meResponse{User: user, Organisations: orgs})
}

// UpdateMe handles PATCH /api/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var update services.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), middleware.ViewerID(r.Context()), update)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
