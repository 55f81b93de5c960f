package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
)

// CacheWarmingService preloads the restaurant catalogue. It reads through the cached
// restaurant repository, which stores what it loads.
type CacheWarmingService struct {
	restaurantRepo repositories.RestaurantRepository
	cache          providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(restaurantRepo repositories.RestaurantRepository, cache providers.CacheProvider) *CacheWarmingService {
	return &CacheWarmingService{
		restaurantRepo: restaurantRepo,
		cache:          cache,
	}
}

// WarmCache loads the unfiltered catalogue, each single-category list, and every
// restaurant by ID. It returns the number of restaurants warmed.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	start := time.Now()

	all, err := s.restaurantRepo.List(ctx, repositories.RestaurantFilter{})
	if err != nil {
		return 0, err
	}

	for _, c := range entities.AllCategories {
		if _, err := s.restaurantRepo.List(ctx, repositories.RestaurantFilter{Categories: []entities.Category{c}}); err != nil {
			log.Warn().Err(err).Str("category", string(c)).Msg("Failed to warm category list")
		}
	}

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	if len(ids) > 0 {
		if _, err := s.restaurantRepo.GetByIDs(ctx, ids); err != nil {
			return 0, err
		}
	}

	log.Info().Int("restaurants", len(all)).Dur("elapsed", time.Since(start)).Msg("Cache warmed")
	return len(all), nil
}

// StartPeriodicWarming warms once, then again every interval until ctx is cancelled
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if _, err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("Periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic cache warming")
}

// InvalidateCache drops every restaurant and HTTP response entry, for use after bulk loads
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	for _, pattern := range []string{"restaurant:*", "restaurants:*", "http:cache:*"} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}
