package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	"github.com/tastefull/backend/pkg/config"
)

type viewerCtxKey struct{}

// Claims are the bearer token claims the API understands. The subject is the user ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ViewerFromContext returns the verified claims of the request, or nil for signed-out requests
func ViewerFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(viewerCtxKey{}).(*Claims)
	return claims
}

// ViewerID returns the signed-in user's ID, or "" when signed out
func ViewerID(ctx context.Context) string {
	if claims := ViewerFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

// WithViewer attaches claims to ctx
func WithViewer(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, claims)
}

// Authenticator verifies HS256 bearer tokens
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator creates an authenticator. With an empty secret every token is rejected.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Authenticator{secret: []byte(cfg.JWTSecret), parser: jwt.NewParser(opts...)}
}

// Verify parses and validates a raw token
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Middleware attaches the viewer to the request context. Requests without a token pass
// through signed out; requests with an invalid token are rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeUnauthorized(w, "malformed authorization header")
			return
		}

		claims, err := a.Verify(strings.TrimSpace(raw))
		if err != nil {
			writeUnauthorized(w, "invalid token")
			return
		}

		observability.AnnotateViewer(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), claims)))
	})
}

// RequireAuth rejects signed-out requests
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerID(r.Context()) == "" {
			writeUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tastefull"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
