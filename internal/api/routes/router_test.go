package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tastefull/backend/internal/api/handlers"
	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/api/routes"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	"github.com/tastefull/backend/pkg/config"
)

func newTestRouter() http.Handler {
	auth := middleware.NewAuthenticator(config.AuthConfig{JWTSecret: "test-secret"})
	router := routes.NewRouter(
		handlers.NewRestaurantHandler(nil, nil, nil),
		handlers.NewSocialHandler(nil),
		handlers.NewOrganisationHandler(nil, nil),
		handlers.NewUserHandler(nil, nil),
		auth,
		nil,
		nil,
		routes.Options{CORSOrigins: "https://app.example.com", DomainMetrics: observability.NewDomainMetrics()},
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tastefull_")
}

func TestRouter_WritesRequireAuth(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/restaurants"},
		{http.MethodPost, "/api/restaurants/r1/reviews"},
		{http.MethodPut, "/api/reviews/rev-1"},
		{http.MethodDelete, "/api/reviews/rev-1"},
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/users/u2/follow"},
		{http.MethodGet, "/api/follow-requests"},
		{http.MethodPost, "/api/organisations"},
		{http.MethodDelete, "/api/organisations/acme/members/u2"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/restaurants", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "private, no-cache, must-revalidate", w.Header().Get("Cache-Control"))
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
