package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
)

// CachedRestaurantAdapter wraps a RestaurantRepository with caching
type CachedRestaurantAdapter struct {
	adapter repositories.RestaurantRepository
	cache   providers.CacheProvider
}

// NewCachedRestaurantAdapter creates a new cached restaurant adapter
func NewCachedRestaurantAdapter(adapter repositories.RestaurantRepository, cache providers.CacheProvider) repositories.RestaurantRepository {
	return &CachedRestaurantAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTLs (in seconds)
const (
	restaurantByIDTTL   = 300
	restaurantsListTTL  = 120
	restaurantsListGlob = "restaurants:list:*"
)

// RestaurantCacheKey returns the cache key of a single restaurant
func RestaurantCacheKey(id string) string {
	return fmt.Sprintf("restaurant:%s", id)
}

func restaurantsListCacheKey(filter repositories.RestaurantFilter) string {
	return fmt.Sprintf("restaurants:list:%s:%d:%d",
		strings.Join(categoryStrings(filter.Categories), ","), filter.Limit, filter.Offset)
}

// GetByID retrieves a restaurant by ID with caching
func (a *CachedRestaurantAdapter) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	cacheKey := RestaurantCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var restaurant entities.Restaurant
		if err := json.Unmarshal(cached, &restaurant); err == nil {
			return &restaurant, nil
		}
		log.Warn().Err(err).Str("restaurant_id", id).Msg("Failed to unmarshal cached restaurant")
	}

	restaurant, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		if data, err := json.Marshal(restaurant); err == nil {
			if err := a.cache.Set(context.Background(), cacheKey, data, restaurantByIDTTL); err != nil {
				log.Warn().Err(err).Str("restaurant_id", id).Msg("Failed to cache restaurant")
			}
		}
	}()

	return restaurant, nil
}

// GetByIDs retrieves multiple restaurants, serving what it can from cache. The result
// follows the order of ids.
func (a *CachedRestaurantAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	if len(ids) == 0 {
		return []*entities.Restaurant{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = RestaurantCacheKey(id)
	}

	cached, _ := a.cache.GetMulti(ctx, cacheKeys)

	found := make(map[string]*entities.Restaurant, len(ids))
	missingIDs := make([]string, 0)
	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var restaurant entities.Restaurant
			if err := json.Unmarshal(data, &restaurant); err == nil {
				found[id] = &restaurant
				continue
			}
		}
		missingIDs = append(missingIDs, id)
	}

	if len(missingIDs) > 0 {
		fetched, err := a.adapter.GetByIDs(ctx, missingIDs)
		if err != nil {
			return nil, err
		}

		items := make(map[string][]byte, len(fetched))
		for _, restaurant := range fetched {
			found[restaurant.ID] = restaurant
			if data, err := json.Marshal(restaurant); err == nil {
				items[RestaurantCacheKey(restaurant.ID)] = data
			}
		}

		if len(items) > 0 {
			go func() {
				if err := a.cache.SetMulti(context.Background(), items, restaurantByIDTTL); err != nil {
					log.Warn().Err(err).Msg("Failed to batch cache restaurants")
				}
			}()
		}
	}

	out := make([]*entities.Restaurant, 0, len(found))
	for _, id := range ids {
		if restaurant, ok := found[id]; ok {
			out = append(out, restaurant)
			delete(found, id)
		}
	}
	return out, nil
}

// List retrieves a list of restaurants with caching
func (a *CachedRestaurantAdapter) List(ctx context.Context, filter repositories.RestaurantFilter) ([]*entities.Restaurant, error) {
	cacheKey := restaurantsListCacheKey(filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var restaurants []*entities.Restaurant
		if err := json.Unmarshal(cached, &restaurants); err == nil {
			return restaurants, nil
		}
		log.Warn().Err(err).Msg("Failed to unmarshal cached restaurants list")
	}

	restaurants, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	go func() {
		if data, err := json.Marshal(restaurants); err == nil {
			if err := a.cache.Set(context.Background(), cacheKey, data, restaurantsListTTL); err != nil {
				log.Warn().Err(err).Msg("Failed to cache restaurants list")
			}
		}
	}()

	return restaurants, nil
}

// Create creates a restaurant and invalidates list caches
func (a *CachedRestaurantAdapter) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	if err := a.adapter.Create(ctx, restaurant); err != nil {
		return err
	}

	if err := a.cache.DeletePattern(ctx, restaurantsListGlob); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate restaurants list cache")
	}
	return nil
}

// Update updates a restaurant and invalidates its cache entries
func (a *CachedRestaurantAdapter) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	if err := a.adapter.Update(ctx, restaurant); err != nil {
		return err
	}

	if err := a.cache.Delete(ctx, RestaurantCacheKey(restaurant.ID)); err != nil {
		log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("Failed to invalidate restaurant cache")
	}
	if err := a.cache.DeletePattern(ctx, restaurantsListGlob); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate restaurants list cache")
	}
	return nil
}
