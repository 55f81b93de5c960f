package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEventType represents the type of review event
type ReviewEventType string

const (
	ReviewEventTypeCreated ReviewEventType = "review_created"
	ReviewEventTypeUpdated ReviewEventType = "review_updated"
	ReviewEventTypeDeleted ReviewEventType = "review_deleted"
)

// ReviewEvent is a real-time notification about a review. It only carries fields
// that every viewer may see.
type ReviewEvent struct {
	ID           string          `json:"id"`
	Type         ReviewEventType `json:"type"`
	RestaurantID string          `json:"restaurant_id"`
	ReviewID     string          `json:"review_id"`
	Rating       int             `json:"rating"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewReviewEvent creates a new review event
func NewReviewEvent(eventType ReviewEventType, review *Review) *ReviewEvent {
	return &ReviewEvent{
		ID:           generateEventID(),
		Type:         eventType,
		RestaurantID: review.RestaurantID,
		ReviewID:     review.ID,
		Rating:       review.Rating,
		Timestamp:    time.Now(),
	}
}

// SocialEventType represents the type of follow graph change
type SocialEventType string

const (
	SocialEventTypeFollowed        SocialEventType = "followed"
	SocialEventTypeFollowRequested SocialEventType = "follow_requested"
	SocialEventTypeFollowAccepted  SocialEventType = "follow_accepted"
	SocialEventTypeFollowDeclined  SocialEventType = "follow_declined"
	SocialEventTypeFollowCancelled SocialEventType = "follow_cancelled"
	SocialEventTypeUnfollowed      SocialEventType = "unfollowed"
)

// SocialEvent describes a change in the follow graph
type SocialEvent struct {
	ID        string          `json:"id"`
	Type      SocialEventType `json:"type"`
	ActorID   string          `json:"actor_id"`
	TargetID  string          `json:"target_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSocialEvent creates a new social event
func NewSocialEvent(eventType SocialEventType, actorID, targetID string) *SocialEvent {
	return &SocialEvent{
		ID:        generateEventID(),
		Type:      eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Timestamp: time.Now(),
	}
}

func generateEventID() string {
	return uuid.NewString()
}
