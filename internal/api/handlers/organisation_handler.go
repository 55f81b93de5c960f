package handlers

import (
	"context"
	"net/http"

	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
)

// OrganisationService defines the organisation operations used by the handlers
type OrganisationService interface {
	Create(ctx context.Context, viewerID, name, slug string) (*entities.Organisation, error)
	List(ctx context.Context) ([]*entities.Organisation, error)
	ListForUser(ctx context.Context, userID string) ([]*entities.Organisation, error)
	GetBySlug(ctx context.Context, slug string) (*entities.Organisation, error)
	Members(ctx context.Context, slug string) ([]services.Member, error)
	AddMember(ctx context.Context, viewerID, slug, userID string, role entities.MembershipRole) (*entities.OrganisationMembership, error)
	RemoveMember(ctx context.Context, viewerID, slug, userID string) error
}

// OrganisationHandler handles organisation HTTP requests
type OrganisationHandler struct {
	orgs OrganisationService
	feed FeedReader
}

// NewOrganisationHandler creates a new organisation handler
func NewOrganisationHandler(orgs OrganisationService, feed FeedReader) *OrganisationHandler {
	return &OrganisationHandler{orgs: orgs, feed: feed}
}

type createOrganisationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type addMemberRequest struct {
	UserID string                  `json:"user_id"`
	Role   entities.MembershipRole `json:"role"`
}

// ListOrganisations handles GET /api/organisations
func (h *OrganisationHandler) ListOrganisations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"organisations": orgs,
		"count":         len(orgs),
	})
}

// CreateOrganisation handles POST /api/organisations
func (h *OrganisationHandler) CreateOrganisation(w http.ResponseWriter, r *http.Request) {
	var req createOrganisationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	org, err := h.orgs.Create(r.Context(), middleware.ViewerID(r.Context()), req.Name, req.Slug)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, org)
}

// GetOrganisation handles GET /api/organisations/{slug}
func (h *OrganisationHandler) GetOrganisation(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, org)
}

// ListMembers handles GET /api/organisations/{slug}/members
func (h *OrganisationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.orgs.Members(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// AddMember handles POST /api/organisations/{slug}/members
func (h *OrganisationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	membership, err := h.orgs.AddMember(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("slug"), req.UserID, req.Role)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, membership)
}

// RemoveMember handles DELETE /api/organisations/{slug}/members/{userId}
func (h *OrganisationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.orgs.RemoveMember(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("slug"), r.PathValue("userId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReviews handles GET /api/organisations/{slug}/reviews
func (h *OrganisationHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	reviews, err := h.feed.OrganisationFeed(r.Context(), viewerOf(r), r.PathValue("slug"), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}
