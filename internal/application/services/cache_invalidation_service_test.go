package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
)

func TestCacheInvalidationService_InvalidateReviewCaches(t *testing.T) {
	cache := new(MockCacheProvider)
	cache.On("DeletePattern", mock.Anything, "http:cache:restaurants:*").Return(nil).Once()
	cache.On("DeletePattern", mock.Anything, "http:cache:feed:*").Return(nil).Once()
	cache.On("DeletePattern", mock.Anything, "http:cache:organisations:*").Return(nil).Once()

	svc := services.NewCacheInvalidationService(cache, new(MockEventBus))
	require.NoError(t, svc.InvalidateReviewCaches(context.Background()))
	cache.AssertExpectations(t)
}

func TestCacheInvalidationService_StopsOnFirstFailure(t *testing.T) {
	cache := new(MockCacheProvider)
	cache.On("DeletePattern", mock.Anything, "http:cache:restaurants:*").Return(assert.AnError)

	svc := services.NewCacheInvalidationService(cache, new(MockEventBus))
	err := svc.InvalidateReviewCaches(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	cache.AssertNumberOfCalls(t, "DeletePattern", 1)
}

func TestInvalidateResponseGroups_NilCache(t *testing.T) {
	assert.NoError(t, services.InvalidateResponseGroups(context.Background(), nil, services.ResponseGroupFeed))
}

func TestCacheInvalidationService_ProcessesEvents(t *testing.T) {
	events := make(chan *entities.ReviewEvent, 1)
	bus := new(MockEventBus)
	bus.On("Subscribe", mock.Anything, providers.EventChannelReviewUpdates).Return((<-chan *entities.ReviewEvent)(events), nil)

	var deleted atomic.Int32
	cache := new(MockCacheProvider)
	cache.On("DeletePattern", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) { deleted.Add(1) })

	svc := services.NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	events <- entities.NewReviewEvent(entities.ReviewEventTypeCreated, &entities.Review{ID: "rev-1", RestaurantID: "r1", Rating: 5})

	assert.Eventually(t, func() bool {
		return deleted.Load() == 3
	}, time.Second, 10*time.Millisecond)
}

func TestCacheInvalidationService_StartFailsWithoutSubscription(t *testing.T) {
	bus := new(MockEventBus)
	bus.On("Subscribe", mock.Anything, providers.EventChannelReviewUpdates).Return(nil, assert.AnError)

	svc := services.NewCacheInvalidationService(new(MockCacheProvider), bus)
	assert.ErrorIs(t, svc.Start(), assert.AnError)
	assert.NotPanics(t, svc.Stop)
}

func TestCacheWarmingService_WarmCache(t *testing.T) {
	s := newStore()
	s.addRestaurant("crown", entities.CategoryPub)
	s.addRestaurant("beans", entities.CategoryCoffee)

	svc := services.NewCacheWarmingService(restaurantRepo{s}, new(MockCacheProvider))
	n, err := svc.WarmCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCacheWarmingService_InvalidateCache(t *testing.T) {
	cache := new(MockCacheProvider)
	for _, pattern := range []string{"restaurant:*", "restaurants:*", "http:cache:*"} {
		cache.On("DeletePattern", mock.Anything, pattern).Return(nil).Once()
	}

	svc := services.NewCacheWarmingService(restaurantRepo{newStore()}, cache)
	require.NoError(t, svc.InvalidateCache(context.Background()))
	cache.AssertExpectations(t)
}
