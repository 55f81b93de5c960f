package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	redisclient "github.com/tastefull/backend/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 100

// topic is one Redis subscription shared by every local listener of a channel
type topic struct {
	pubsub    *redis.PubSub
	listeners map[chan *entities.ReviewEvent]struct{}
}

// RedisEventBus fans Redis Pub/Sub messages out to in-process listeners. Each channel holds
// at most one Redis subscription; it is dropped when the last listener leaves.
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.RWMutex
	topics map[string]*topic

	done   context.Context
	cancel context.CancelFunc
}

func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	done, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		topics: make(map[string]*topic),
		done:   done,
		cancel: cancel,
	}
}

// Publish sends a review event to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ReviewEvent) error {
	if err := b.publish(ctx, channel, event); err != nil {
		return err
	}
	log.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("Published review event")
	return nil
}

// PublishSocial sends a follow graph change. Nothing in-process listens to these.
func (b *RedisEventBus) PublishSocial(ctx context.Context, channel string, event *entities.SocialEvent) error {
	if err := b.publish(ctx, channel, event); err != nil {
		return err
	}
	log.Debug().Str("channel", channel).Str("type", string(event.Type)).Msg("Published social event")
	return nil
}

func (b *RedisEventBus) publish(ctx context.Context, channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", channel, err)
	}
	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe registers a listener on channel until ctx is done. The returned channel is
// closed when the listener is removed or the bus shuts down.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ReviewEvent, error) {
	if b.done.Err() != nil {
		return nil, errors.New("event bus closed")
	}

	listener := make(chan *entities.ReviewEvent, subscriberBuffer)

	b.mu.Lock()
	t, ok := b.topics[channel]
	if !ok {
		t = &topic{
			pubsub:    b.client.Client().Subscribe(b.done, channel),
			listeners: make(map[chan *entities.ReviewEvent]struct{}),
		}
		b.topics[channel] = t
		go b.pump(channel, t)
	}
	t.listeners[listener] = struct{}{}
	count := len(t.listeners)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", count).Msg("Subscribed to channel")

	go func() {
		<-ctx.Done()
		b.leave(channel, listener)
	}()

	return listener, nil
}

// pump decodes messages from one Redis subscription and hands them to its listeners
func (b *RedisEventBus) pump(channel string, t *topic) {
	defer func() {
		if err := b.drop(channel, t); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("Failed to cleanup channel")
		}
	}()

	messages := t.pubsub.Channel()
	for {
		select {
		case <-b.done.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event, err := decodeReviewEvent(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Dropping undecodable event")
				continue
			}
			b.deliver(channel, t, event)
		}
	}
}

func decodeReviewEvent(payload string) (*entities.ReviewEvent, error) {
	var event entities.ReviewEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// deliver never blocks; a full listener misses the event
func (b *RedisEventBus) deliver(channel string, t *topic, event *entities.ReviewEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for listener := range t.listeners {
		select {
		case listener <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, skipping event")
		}
	}
}

func (b *RedisEventBus) leave(channel string, listener chan *entities.ReviewEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[channel]
	if !ok {
		return
	}
	if _, ok := t.listeners[listener]; !ok {
		return
	}
	delete(t.listeners, listener)
	close(listener)

	if len(t.listeners) == 0 {
		delete(b.topics, channel)
		_ = t.pubsub.Close()
		log.Info().Str("channel", channel).Msg("Closed subscription")
	}
}

// drop closes every listener of t and its Redis subscription, if t is still registered
func (b *RedisEventBus) drop(channel string, t *topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topics[channel] != t {
		return nil
	}
	delete(b.topics, channel)
	for listener := range t.listeners {
		close(listener)
	}
	if err := t.pubsub.Close(); err != nil {
		return fmt.Errorf("close subscription %s: %w", channel, err)
	}
	log.Info().Str("channel", channel).Msg("Closed subscription")
	return nil
}

// Unsubscribe removes every local listener of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.RLock()
	t, ok := b.topics[channel]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return b.drop(channel, t)
}

// Close stops every subscription. Subscribe fails afterwards.
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	open := make(map[string]*topic, len(b.topics))
	for channel, t := range b.topics {
		open[channel] = t
	}
	b.mu.RUnlock()

	var errs []error
	for channel, t := range open {
		errs = append(errs, b.drop(channel, t))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	log.Info().Msg("Event bus closed")
	return nil
}
