package middleware

import (
	"net/http"

	"github.com/tastefull/backend/internal/application/loaders"
	"github.com/tastefull/backend/internal/domain/repositories"
)

// LoadersMiddleware attaches fresh request-scoped dataloaders to every request
func LoadersMiddleware(userRepo repositories.UserRepository, restaurantRepo repositories.RestaurantRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(userRepo, restaurantRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
