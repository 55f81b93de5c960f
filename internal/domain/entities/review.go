package entities

import (
	"time"
)

const (
	MinRating        = 1
	MaxRating        = 10
	MaxCommentLength = 2000
)

// Review represents a user's rating of a restaurant
type Review struct {
	ID           string  `json:"id" db:"id"`
	RestaurantID string  `json:"restaurant_id" db:"restaurant_id"`
	UserID       string  `json:"user_id" db:"user_id"`
	Rating       int     `json:"rating" db:"rating"` // 1-10
	ValueRating  *int    `json:"value_rating,omitempty" db:"value_rating"`
	TasteRating  *int    `json:"taste_rating,omitempty" db:"taste_rating"`
	Comment      *string `json:"comment,omitempty" db:"comment"`
	// OrganisationID is the legacy per-review visibility tag. It is stored but visibility
	// is derived from current organisation membership.
	OrganisationID *string   `json:"organisation_id,omitempty" db:"organisation_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ValidRating reports whether v is within the accepted rating range
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}
