package repositories

import (
	"context"

	"github.com/tastefull/backend/internal/domain/entities"
)

// OrganisationRepository defines the interface for organisations and their memberships
type OrganisationRepository interface {
	// Create creates an organisation and makes the creator its admin atomically
	Create(ctx context.Context, org *entities.Organisation, creatorID string) error

	// GetByID retrieves an organisation by ID
	GetByID(ctx context.Context, id string) (*entities.Organisation, error)

	// GetBySlug retrieves an organisation by slug
	GetBySlug(ctx context.Context, slug string) (*entities.Organisation, error)

	// List retrieves every organisation
	List(ctx context.Context) ([]*entities.Organisation, error)

	// ListForUser retrieves the organisations a user belongs to
	ListForUser(ctx context.Context, userID string) ([]*entities.Organisation, error)

	// AddMember inserts a membership; an existing (organisation, user) pair is a conflict
	AddMember(ctx context.Context, membership *entities.OrganisationMembership) error

	// RemoveMember deletes a membership
	RemoveMember(ctx context.Context, orgID, userID string) error

	// ListMembers retrieves the memberships of one organisation
	ListMembers(ctx context.Context, orgID string) ([]entities.OrganisationMembership, error)

	// ListAllMemberships retrieves every membership
	ListAllMemberships(ctx context.Context) ([]entities.OrganisationMembership, error)

	// CountAdmins counts the admins of an organisation
	CountAdmins(ctx context.Context, orgID string) (int, error)
}
