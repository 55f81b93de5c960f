package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
)

const invalidationTimeout = 5 * time.Second

// Groups of the anonymous response cache. Response keys are hashed, so a write drops the
// whole group it affects.
const (
	ResponseGroupRestaurants   = "restaurants"
	ResponseGroupFeed          = "feed"
	ResponseGroupOrganisations = "organisations"
)

// Groups embedding review aggregates or redacted reviews
var reviewDerivedGroups = []string{ResponseGroupRestaurants, ResponseGroupFeed, ResponseGroupOrganisations}

func responseGroupPattern(group string) string {
	return "http:cache:" + group + ":*"
}

// InvalidateResponseGroups drops every cached response in groups, stopping at the first
// failure. A nil cache is a no-op.
func InvalidateResponseGroups(ctx context.Context, cache providers.CacheProvider, groups ...string) error {
	if cache == nil {
		return nil
	}
	for _, group := range groups {
		pattern := responseGroupPattern(group)
		if err := cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("invalidate %s: %w", pattern, err)
		}
	}
	return nil
}

// dropAfterWrite invalidates groups once a write has committed. A failure only leaves
// entries to expire on their TTL, so it is logged rather than returned.
func dropAfterWrite(ctx context.Context, cache providers.CacheProvider, groups ...string) {
	if err := InvalidateResponseGroups(ctx, cache, groups...); err != nil {
		log.Ctx(ctx).Warn().Err(err).Strs("groups", groups).Msg("Failed to invalidate cached responses")
	}
}

// CacheInvalidationService drops review-derived cached responses whenever a review event
// is published, on any instance
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	return &CacheInvalidationService{cache: cache, eventBus: eventBus}
}

// Start subscribes to review updates and handles them in the background until Stop
func (s *CacheInvalidationService) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := s.eventBus.Subscribe(ctx, providers.EventChannelReviewUpdates)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to review updates: %w", err)
	}
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, events)
	}()

	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop cancels the subscription and waits for the handler loop to exit
func (s *CacheInvalidationService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) run(ctx context.Context, events <-chan *entities.ReviewEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event != nil {
				s.onReviewEvent(event)
			}
		}
	}
}

func (s *CacheInvalidationService) onReviewEvent(event *entities.ReviewEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidationTimeout)
	defer cancel()

	logger := log.With().Str("event_id", event.ID).Str("restaurant_id", event.RestaurantID).Logger()
	if err := s.InvalidateReviewCaches(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate review caches")
		return
	}
	logger.Debug().Msg("Invalidated review caches")
}

// InvalidateReviewCaches drops every cached response derived from reviews, stopping at
// the first failure
func (s *CacheInvalidationService) InvalidateReviewCaches(ctx context.Context) error {
	return InvalidateResponseGroups(ctx, s.cache, reviewDerivedGroups...)
}
