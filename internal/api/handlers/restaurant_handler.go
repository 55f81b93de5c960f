package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/filtering"
	"github.com/tastefull/backend/internal/domain/visibility"
)

// FeedReader runs the visibility and filter engine
type FeedReader interface {
	ListRestaurants(ctx context.Context, viewer visibility.Viewer, state filtering.FilterState) ([]filtering.RestaurantSummary, error)
	RestaurantReviews(ctx context.Context, viewer visibility.Viewer, restaurantID string) ([]visibility.VisibleReview, error)
	Feed(ctx context.Context, viewer visibility.Viewer, state filtering.FilterState, limit int) ([]visibility.VisibleReview, error)
	OrganisationFeed(ctx context.Context, viewer visibility.Viewer, slug string, limit int) ([]visibility.VisibleReview, error)
}

// RestaurantService defines the restaurant operations used by the handler
type RestaurantService interface {
	Create(ctx context.Context, viewerID string, in services.RestaurantInput) (*entities.Restaurant, error)
	GetByID(ctx context.Context, id string) (*entities.Restaurant, error)
	Search(ctx context.Context, query string, categories []entities.Category, limit int) ([]*entities.Restaurant, error)
}

// ReviewService defines the review write operations used by the handlers
type ReviewService interface {
	Create(ctx context.Context, viewerID, restaurantID string, in services.ReviewInput) (*entities.Review, error)
	Update(ctx context.Context, viewerID, reviewID string, in services.ReviewInput) (*entities.Review, error)
	Delete(ctx context.Context, viewerID, reviewID string) error
}

// RestaurantHandler handles restaurant HTTP requests
type RestaurantHandler struct {
	feed        FeedReader
	restaurants RestaurantService
	reviews     ReviewService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(feed FeedReader, restaurants RestaurantService, reviews ReviewService) *RestaurantHandler {
	return &RestaurantHandler{feed: feed, restaurants: restaurants, reviews: reviews}
}

// ListRestaurants handles GET /api/restaurants
func (h *RestaurantHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	state, err := filtering.ParseFilterState(r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	summaries, err := h.feed.ListRestaurants(r.Context(), viewerOf(r), state)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": summaries,
		"count":       len(summaries),
		"filters":     state,
	})
}

// CreateRestaurant handles POST /api/restaurants
func (h *RestaurantHandler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in services.RestaurantInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	restaurant, err := h.restaurants.Create(r.Context(), middleware.ViewerID(r.Context()), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, restaurant)
}

// SearchRestaurants handles GET /api/restaurants/search?q=
func (h *RestaurantHandler) SearchRestaurants(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	state, err := filtering.ParseFilterState(r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	restaurants, err := h.restaurants.Search(r.Context(), query, state.Categories, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"restaurants": restaurants,
		"count":       len(restaurants),
		"query":       query,
	})
}

// GetRestaurant handles GET /api/restaurants/{id}
func (h *RestaurantHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.restaurants.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, restaurant)
}

// ListReviews handles GET /api/restaurants/{id}/reviews
func (h *RestaurantHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.feed.RestaurantReviews(r.Context(), viewerOf(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// CreateReview handles POST /api/restaurants/{id}/reviews
func (h *RestaurantHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var in services.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review, err := h.reviews.Create(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}

// UpdateReview handles PUT /api/reviews/{id}
func (h *RestaurantHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var in services.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review, err := h.reviews.Update(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *RestaurantHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.Delete(r.Context(), middleware.ViewerID(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed handles GET /api/feed
func (h *RestaurantHandler) Feed(w http.ResponseWriter, r *http.Request) {
	state, err := filtering.ParseFilterState(r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	reviews, err := h.feed.Feed(r.Context(), viewerOf(r), state, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
		"filters": state,
	})
}
