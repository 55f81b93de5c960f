package events

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/domain/entities"
)

// idleTopic returns a topic whose subscription never connects
func idleTopic(t *testing.T) *topic {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })
	return &topic{
		pubsub:    rdb.Subscribe(context.Background()),
		listeners: make(map[chan *entities.ReviewEvent]struct{}),
	}
}

func newTestBus() *RedisEventBus {
	done, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{topics: make(map[string]*topic), done: done, cancel: cancel}
}

func TestDecodeReviewEvent(t *testing.T) {
	event, err := decodeReviewEvent(`{"id":"e1","type":"review_created","restaurant_id":"r1"}`)
	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)
	assert.Equal(t, "r1", event.RestaurantID)

	_, err = decodeReviewEvent("not json")
	assert.Error(t, err)
}

func TestDeliver_SkipsFullListeners(t *testing.T) {
	bus := newTestBus()
	tp := idleTopic(t)
	roomy := make(chan *entities.ReviewEvent, 1)
	full := make(chan *entities.ReviewEvent)
	tp.listeners[roomy] = struct{}{}
	tp.listeners[full] = struct{}{}

	bus.deliver("review:updates", tp, &entities.ReviewEvent{ID: "e1"})

	got := <-roomy
	assert.Equal(t, "e1", got.ID)
	assert.Empty(t, full)
}

func TestLeave_LastListenerDropsTopic(t *testing.T) {
	bus := newTestBus()
	tp := idleTopic(t)
	a := make(chan *entities.ReviewEvent, 1)
	b := make(chan *entities.ReviewEvent, 1)
	tp.listeners[a] = struct{}{}
	tp.listeners[b] = struct{}{}
	bus.topics["restaurant:r1"] = tp

	bus.leave("restaurant:r1", a)
	_, open := <-a
	assert.False(t, open)
	assert.Contains(t, bus.topics, "restaurant:r1")

	bus.leave("restaurant:r1", a)
	bus.leave("restaurant:r1", b)
	assert.NotContains(t, bus.topics, "restaurant:r1")
}

func TestClose_ClosesListenersAndRejectsSubscribe(t *testing.T) {
	bus := newTestBus()
	tp := idleTopic(t)
	listener := make(chan *entities.ReviewEvent, 1)
	tp.listeners[listener] = struct{}{}
	bus.topics["review:updates"] = tp

	require.NoError(t, bus.Close())

	_, open := <-listener
	assert.False(t, open)
	assert.Empty(t, bus.topics)

	_, err := bus.Subscribe(context.Background(), "review:updates")
	assert.Error(t, err)
}
