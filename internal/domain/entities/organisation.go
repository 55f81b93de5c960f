package entities

import (
	"regexp"
	"strings"
	"time"
)

// MembershipRole is the role a user holds within an organisation
type MembershipRole string

const (
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleMember MembershipRole = "member"
)

// Valid reports whether the role is one of the known roles
func (r MembershipRole) Valid() bool {
	return r == MembershipRoleAdmin || r == MembershipRoleMember
}

// Organisation is a team grouping users
type Organisation struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OrganisationMembership links a user to an organisation. At most one row exists per pair.
type OrganisationMembership struct {
	OrganisationID string         `json:"organisation_id" db:"organisation_id"`
	UserID         string         `json:"user_id" db:"user_id"`
	Role           MembershipRole `json:"role" db:"role"`
	JoinedAt       time.Time      `json:"joined_at" db:"joined_at"`
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeSlug lower-cases the value and collapses anything that is not a letter or digit into a dash
func NormalizeSlug(value string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	return strings.Trim(slug, "-")
}
