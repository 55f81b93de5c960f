package entities

import (
	"time"
)

// User represents an account in the system
type User struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	IsPrivate   bool      `json:"is_private" db:"is_private"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PublicProfile is the subset of a user that is safe to show to anyone
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsPrivate   bool   `json:"is_private"`
}

// Profile returns the public profile of the user
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		IsPrivate:   u.IsPrivate,
	}
}
