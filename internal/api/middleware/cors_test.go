package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware_ListedOrigins(t *testing.T) {
	calls := 0
	handler := CORSMiddleware("https://a.example, https://b.example")(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set("Origin", "https://b.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://b.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/api/feed", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 2, calls)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	calls := 0
	handler := CORSMiddleware("")(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodOptions, "/api/restaurants/r1/reviews", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Zero(t, calls)
}
