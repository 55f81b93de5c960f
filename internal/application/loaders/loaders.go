package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders contains the request-scoped dataloaders
type Loaders struct {
	UserLoader       *dataloader.Loader[string, *entities.User]
	RestaurantLoader *dataloader.Loader[string, *entities.Restaurant]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(userRepo repositories.UserRepository, restaurantRepo repositories.RestaurantRepository) *Loaders {
	return &Loaders{
		UserLoader: dataloader.NewBatchedLoader(
			batchByID("user", userRepo.GetByIDs, func(u *entities.User) string { return u.ID }),
		),
		RestaurantLoader: dataloader.NewBatchedLoader(
			batchByID("restaurant", restaurantRepo.GetByIDs, func(r *entities.Restaurant) string { return r.ID }),
		),
	}
}

// batchByID adapts a GetByIDs repository call to a dataloader batch function. Results are
// matched to keys by ID; keys the repository does not return resolve to an error.
func batchByID[V any](
	kind string,
	fetch func(ctx context.Context, ids []string) ([]V, error),
	idOf func(V) string,
) dataloader.BatchFunc[string, V] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[V] {
		results := make([]*dataloader.Result[V], len(keys))
		items, err := fetch(ctx, keys)

		byID := make(map[string]V, len(items))
		if err == nil {
			for _, item := range items {
				byID[idOf(item)] = item
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[V]{Error: err}
			} else if item, ok := byID[key]; ok {
				results[i] = &dataloader.Result[V]{Data: item}
			} else {
				results[i] = &dataloader.Result[V]{Error: fmt.Errorf("%s %s not found", kind, key)}
			}
		}
		return results
	}
}

// For returns the loaders attached to ctx, or nil when none are attached
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// LoadRestaurants resolves restaurants by ID, skipping IDs that fail to load
func (l *Loaders) LoadRestaurants(ctx context.Context, ids []string) map[string]*entities.Restaurant {
	out := make(map[string]*entities.Restaurant, len(ids))
	if len(ids) == 0 {
		return out
	}
	restaurants, errs := l.RestaurantLoader.LoadMany(ctx, ids)()
	for i, r := range restaurants {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if r != nil {
			out[ids[i]] = r
		}
	}
	return out
}

// LoadUsers resolves users by ID, skipping IDs that fail to load
func (l *Loaders) LoadUsers(ctx context.Context, ids []string) map[string]*entities.User {
	out := make(map[string]*entities.User, len(ids))
	if len(ids) == 0 {
		return out
	}
	users, errs := l.UserLoader.LoadMany(ctx, ids)()
	for i, u := range users {
		if i < len(errs) && errs[i] != nil {
			continue
		}
		if u != nil {
			out[ids[i]] = u
		}
	}
	return out
}
