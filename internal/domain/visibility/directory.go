package visibility

import (
	"github.com/tastefull/backend/internal/domain/entities"
)

// UserSet is a read-only set of user or organisation IDs
type UserSet map[string]struct{}

// Has reports whether id is in the set. A nil set contains nothing.
func (s UserSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members
func (s UserSet) Len() int {
	return len(s)
}

func (s UserSet) add(id string) {
	s[id] = struct{}{}
}

// Directory is an immutable index over users, organisations, memberships and follows.
// All lookups are nil-safe and return empty results for unknown keys.
type Directory struct {
	users        map[string]*entities.User
	orgs         map[string]*entities.Organisation
	orgsBySlug   map[string]*entities.Organisation
	orgsOfUser   map[string]UserSet
	membersOfOrg map[string]UserSet
	following    map[string]UserSet
	followers    map[string]UserSet
}

// NewDirectory builds a directory from already materialized collections
func NewDirectory(
	users []*entities.User,
	organisations []*entities.Organisation,
	memberships []entities.OrganisationMembership,
	follows []entities.Follow,
) *Directory {
	d := &Directory{
		users:        make(map[string]*entities.User, len(users)),
		orgs:         make(map[string]*entities.Organisation, len(organisations)),
		orgsBySlug:   make(map[string]*entities.Organisation, len(organisations)),
		orgsOfUser:   make(map[string]UserSet),
		membersOfOrg: make(map[string]UserSet),
		following:    make(map[string]UserSet),
		followers:    make(map[string]UserSet),
	}

	for _, u := range users {
		if u == nil || u.ID == "" {
			continue
		}
		d.users[u.ID] = u
	}

	for _, o := range organisations {
		if o == nil || o.ID == "" {
			continue
		}
		d.orgs[o.ID] = o
		if o.Slug != "" {
			d.orgsBySlug[o.Slug] = o
		}
	}

	for _, m := range memberships {
		if m.OrganisationID == "" || m.UserID == "" {
			continue
		}
		setFor(d.orgsOfUser, m.UserID).add(m.OrganisationID)
		setFor(d.membersOfOrg, m.OrganisationID).add(m.UserID)
	}

	for _, f := range follows {
		if f.FollowerID == "" || f.FollowingID == "" || f.FollowerID == f.FollowingID {
			continue
		}
		setFor(d.following, f.FollowerID).add(f.FollowingID)
		setFor(d.followers, f.FollowingID).add(f.FollowerID)
	}

	return d
}

func setFor(index map[string]UserSet, key string) UserSet {
	s, ok := index[key]
	if !ok {
		s = make(UserSet)
		index[key] = s
	}
	return s
}

// User returns the user with the given ID, or nil
func (d *Directory) User(id string) *entities.User {
	if d == nil {
		return nil
	}
	return d.users[id]
}

// Organisation returns the organisation with the given ID, or nil
func (d *Directory) Organisation(id string) *entities.Organisation {
	if d == nil {
		return nil
	}
	return d.orgs[id]
}

// OrganisationBySlug returns the organisation with the given slug, or nil
func (d *Directory) OrganisationBySlug(slug string) *entities.Organisation {
	if d == nil {
		return nil
	}
	return d.orgsBySlug[slug]
}

// OrganisationsOf returns the IDs of the organisations the user belongs to
func (d *Directory) OrganisationsOf(userID string) UserSet {
	if d == nil {
		return nil
	}
	return d.orgsOfUser[userID]
}

// MembersOf returns the IDs of the members of an organisation
func (d *Directory) MembersOf(orgID string) UserSet {
	if d == nil {
		return nil
	}
	return d.membersOfOrg[orgID]
}

// Following returns the IDs of the users that userID follows
func (d *Directory) Following(userID string) UserSet {
	if d == nil {
		return nil
	}
	return d.following[userID]
}

// Followers returns the IDs of the users following userID
func (d *Directory) Followers(userID string) UserSet {
	if d == nil {
		return nil
	}
	return d.followers[userID]
}

// Follows reports whether followerID follows targetID
func (d *Directory) Follows(followerID, targetID string) bool {
	return d.Following(followerID).Has(targetID)
}

// SharesOrganisation reports whether the two users have at least one organisation in common
func (d *Directory) SharesOrganisation(a, b string) bool {
	left, right := d.OrganisationsOf(a), d.OrganisationsOf(b)
	if left.Len() > right.Len() {
		left, right = right, left
	}
	for orgID := range left {
		if right.Has(orgID) {
			return true
		}
	}
	return false
}
