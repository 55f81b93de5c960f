package providers

import (
	"context"

	"github.com/tastefull/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes a review event to all subscribers of the channel
	Publish(ctx context.Context, channel string, event *entities.ReviewEvent) error

	// PublishSocial publishes a follow graph event
	PublishSocial(ctx context.Context, channel string, event *entities.SocialEvent) error

	// Subscribe subscribes to review events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReviewEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelReviewUpdates carries every review event
	EventChannelReviewUpdates = "review:updates"

	// EventChannelRestaurantPrefix is the prefix for restaurant-specific channels
	EventChannelRestaurantPrefix = "restaurant:"

	// EventChannelSocialPrefix is the prefix for per-user follow graph channels
	EventChannelSocialPrefix = "social:"
)

// GetRestaurantChannel returns the channel name for a specific restaurant
func GetRestaurantChannel(restaurantID string) string {
	return EventChannelRestaurantPrefix + restaurantID
}

// GetSocialChannel returns the channel on which a user's follow graph changes are published
func GetSocialChannel(userID string) string {
	return EventChannelSocialPrefix + userID
}
