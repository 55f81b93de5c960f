package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tastefull/backend/internal/application/loaders"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

// Member is a membership with the member's public profile
type Member struct {
	entities.OrganisationMembership
	Profile *entities.PublicProfile `json:"profile,omitempty"`
}

// OrganisationService handles organisations and their memberships
type OrganisationService struct {
	repo           repositories.OrganisationRepository
	userRepo       repositories.UserRepository
	restaurantRepo repositories.RestaurantRepository
	responses      providers.CacheProvider
}

// NewOrganisationService creates a new organisation service
func NewOrganisationService(
	repo repositories.OrganisationRepository,
	userRepo repositories.UserRepository,
	restaurantRepo repositories.RestaurantRepository,
) *OrganisationService {
	return &OrganisationService{repo: repo, userRepo: userRepo, restaurantRepo: restaurantRepo}
}

// WithResponseCache drops cached anonymous responses after organisation writes
func (s *OrganisationService) WithResponseCache(cache providers.CacheProvider) *OrganisationService {
	s.responses = cache
	return s
}

// Create creates an organisation with the viewer as its first admin. The slug defaults to
// the normalized name.
func (s *OrganisationService) Create(ctx context.Context, viewerID, name, slug string) (*entities.Organisation, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to create organisations")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if strings.TrimSpace(slug) == "" {
		slug = name
	}
	slug = entities.NormalizeSlug(slug)
	if slug == "" {
		return nil, apperrors.NewValidationError("slug must contain letters or digits")
	}

	org := &entities.Organisation{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, org, viewerID); err != nil {
		return nil, err
	}
	dropAfterWrite(ctx, s.responses, ResponseGroupOrganisations)
	return org, nil
}

// List lists every organisation
func (s *OrganisationService) List(ctx context.Context) ([]*entities.Organisation, error) {
	return s.repo.List(ctx)
}

// ListForUser lists the organisations userID belongs to
func (s *OrganisationService) ListForUser(ctx context.Context, userID string) ([]*entities.Organisation, error) {
	return s.repo.ListForUser(ctx, userID)
}

// GetBySlug retrieves an organisation by slug
func (s *OrganisationService) GetBySlug(ctx context.Context, slug string) (*entities.Organisation, error) {
	return s.repo.GetBySlug(ctx, entities.NormalizeSlug(slug))
}

// Members lists an organisation's members with their profiles
func (s *OrganisationService) Members(ctx context.Context, slug string) ([]Member, error) {
	org, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	memberships, err := s.repo.ListMembers(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.userRepo, s.restaurantRepo)
	}
	users := l.LoadUsers(ctx, ids)

	out := make([]Member, len(memberships))
	for i, m := range memberships {
		out[i] = Member{OrganisationMembership: m}
		if u := users[m.UserID]; u != nil {
			profile := u.Profile()
			out[i].Profile = &profile
		}
	}
	return out, nil
}

// AddMember adds userID to the organisation. Only admins may add members.
func (s *OrganisationService) AddMember(ctx context.Context, viewerID, slug, userID string, role entities.MembershipRole) (*entities.OrganisationMembership, error) {
	if role == "" {
		role = entities.MembershipRoleMember
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("role must be admin or member")
	}

	org, members, err := s.membership(ctx, viewerID, slug)
	if err != nil {
		return nil, err
	}
	if members[viewerID] != entities.MembershipRoleAdmin {
		return nil, apperrors.NewForbiddenError("only organisation admins can add members")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	membership := &entities.OrganisationMembership{
		OrganisationID: org.ID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now().UTC(),
	}
	if err := s.repo.AddMember(ctx, membership); err != nil {
		return nil, err
	}
	s.membershipChanged(ctx)
	return membership, nil
}

// RemoveMember removes userID from the organisation. Admins may remove anyone and members
// may remove themselves; the last admin cannot be removed.
func (s *OrganisationService) RemoveMember(ctx context.Context, viewerID, slug, userID string) error {
	org, members, err := s.membership(ctx, viewerID, slug)
	if err != nil {
		return err
	}
	if viewerID != userID && members[viewerID] != entities.MembershipRoleAdmin {
		return apperrors.NewForbiddenError("only organisation admins can remove other members")
	}

	role, ok := members[userID]
	if !ok {
		return apperrors.NewNotFoundError("user " + userID + " is not a member of " + org.Slug)
	}
	if role == entities.MembershipRoleAdmin {
		admins, err := s.repo.CountAdmins(ctx, org.ID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return apperrors.NewConflictError("the last admin cannot leave the organisation")
		}
	}

	if err := s.repo.RemoveMember(ctx, org.ID, userID); err != nil {
		return err
	}
	s.membershipChanged(ctx)
	return nil
}

// membershipChanged drops responses computed from member sets: organisation pages and
// restaurant lists and feeds filtered by an organisation
func (s *OrganisationService) membershipChanged(ctx context.Context) {
	dropAfterWrite(ctx, s.responses, ResponseGroupOrganisations, ResponseGroupRestaurants, ResponseGroupFeed)
}

func (s *OrganisationService) membership(ctx context.Context, viewerID, slug string) (*entities.Organisation, map[string]entities.MembershipRole, error) {
	if viewerID == "" {
		return nil, nil, apperrors.NewUnauthorizedError("sign in to manage organisations")
	}
	org, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	memberships, err := s.repo.ListMembers(ctx, org.ID)
	if err != nil {
		return nil, nil, err
	}

	roles := make(map[string]entities.MembershipRole, len(memberships))
	for _, m := range memberships {
		roles[m.UserID] = m.Role
	}
	return org, roles, nil
}
