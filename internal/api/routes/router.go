package routes

import (
	"net/http"

	"github.com/tastefull/backend/internal/api/handlers"
	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	restaurantHandler   *handlers.RestaurantHandler
	socialHandler       *handlers.SocialHandler
	organisationHandler *handlers.OrganisationHandler
	userHandler         *handlers.UserHandler
	sseHandler          *handlers.SSEHandler

	authenticator   *middleware.Authenticator
	cacheMiddleware *middleware.CacheMiddleware
	reviewLimiter   *middleware.RateLimiter

	userRepo       repositories.UserRepository
	restaurantRepo repositories.RestaurantRepository

	corsOrigins   string
	metrics       *observability.Metrics
	domainMetrics *observability.DomainMetrics
}

// Options carries the optional pieces of the router
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	ReviewLimiter   *middleware.RateLimiter
	SSEHandler      *handlers.SSEHandler
	CORSOrigins     string
	Metrics         *observability.Metrics
	DomainMetrics   *observability.DomainMetrics
}

// NewRouter creates a new router
func NewRouter(
	restaurantHandler *handlers.RestaurantHandler,
	socialHandler *handlers.SocialHandler,
	organisationHandler *handlers.OrganisationHandler,
	userHandler *handlers.UserHandler,
	authenticator *middleware.Authenticator,
	userRepo repositories.UserRepository,
	restaurantRepo repositories.RestaurantRepository,
	opts Options,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		restaurantHandler:   restaurantHandler,
		socialHandler:       socialHandler,
		organisationHandler: organisationHandler,
		userHandler:         userHandler,
		sseHandler:          opts.SSEHandler,

		authenticator:   authenticator,
		cacheMiddleware: opts.CacheMiddleware,
		reviewLimiter:   opts.ReviewLimiter,

		userRepo:       userRepo,
		restaurantRepo: restaurantRepo,

		corsOrigins:   opts.CORSOrigins,
		metrics:       opts.Metrics,
		domainMetrics: opts.DomainMetrics,
	}
}

func authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	if r.domainMetrics != nil {
		r.mux.Handle("GET /metrics", r.domainMetrics.Handler())
	}

	// Restaurant endpoints
	r.mux.HandleFunc("GET /api/restaurants", r.restaurantHandler.ListRestaurants)
	r.mux.Handle("POST /api/restaurants", authed(r.restaurantHandler.CreateRestaurant))
	r.mux.HandleFunc("GET /api/restaurants/search", r.restaurantHandler.SearchRestaurants)
	r.mux.HandleFunc("GET /api/restaurants/{id}", r.restaurantHandler.GetRestaurant)
	r.mux.HandleFunc("GET /api/restaurants/{id}/reviews", r.restaurantHandler.ListReviews)

	// Review writes
	r.mux.Handle("POST /api/restaurants/{id}/reviews", r.limitReviews(r.restaurantHandler.CreateReview))
	r.mux.Handle("PUT /api/reviews/{id}", r.limitReviews(r.restaurantHandler.UpdateReview))
	r.mux.Handle("DELETE /api/reviews/{id}", r.limitReviews(r.restaurantHandler.DeleteReview))

	// Feed
	r.mux.HandleFunc("GET /api/feed", r.restaurantHandler.Feed)

	// Account
	r.mux.Handle("GET /api/me", authed(r.userHandler.GetMe))
	r.mux.Handle("PATCH /api/me", authed(r.userHandler.UpdateMe))

	// Follow graph
	r.mux.Handle("GET /api/users/{id}/follow", authed(r.socialHandler.GetFollowState))
	r.mux.Handle("POST /api/users/{id}/follow", authed(r.socialHandler.Follow))
	r.mux.Handle("DELETE /api/users/{id}/follow", authed(r.socialHandler.Unfollow))
	r.mux.Handle("GET /api/follow-requests", authed(r.socialHandler.ListRequests))
	r.mux.Handle("POST /api/follow-requests/{id}/accept", authed(r.socialHandler.AcceptRequest))
	r.mux.Handle("POST /api/follow-requests/{id}/decline", authed(r.socialHandler.DeclineRequest))

	// Organisations
	r.mux.HandleFunc("GET /api/organisations", r.organisationHandler.ListOrganisations)
	r.mux.Handle("POST /api/organisations", authed(r.organisationHandler.CreateOrganisation))
	r.mux.HandleFunc("GET /api/organisations/{slug}", r.organisationHandler.GetOrganisation)
	r.mux.HandleFunc("GET /api/organisations/{slug}/members", r.organisationHandler.ListMembers)
	r.mux.Handle("POST /api/organisations/{slug}/members", authed(r.organisationHandler.AddMember))
	r.mux.Handle("DELETE /api/organisations/{slug}/members/{userId}", authed(r.organisationHandler.RemoveMember))
	r.mux.HandleFunc("GET /api/organisations/{slug}/reviews", r.organisationHandler.ListReviews)

	// Real-time streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/restaurants/{id}", r.sseHandler.StreamRestaurantUpdates)
		r.mux.HandleFunc("GET /api/stream/reviews", r.sseHandler.StreamReviewUpdates)
		r.mux.HandleFunc("GET /api/stream/stats", r.sseHandler.Stats)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// Auth runs before the response cache so invalid tokens never see a cached body.
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.LoadersMiddleware(r.userRepo, r.restaurantRepo)(handler)
	handler = r.authenticator.Middleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.mux)(handler)

	// compression, ETag, cache headers
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.corsOrigins)(handler)

	return handler
}

func (r *Router) limitReviews(h http.HandlerFunc) http.Handler {
	var next http.Handler = h
	if r.reviewLimiter != nil {
		next = r.reviewLimiter.Middleware(next)
	}
	return middleware.RequireAuth(next)
}
