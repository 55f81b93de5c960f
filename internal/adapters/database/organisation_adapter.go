package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const (
	organisationsTable = "organisations"
	membersTable       = "organisation_members"
)

// OrganisationAdapter implements the OrganisationRepository interface
type OrganisationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewOrganisationAdapter creates a new organisation adapter
func NewOrganisationAdapter(client *postgres.Client) repositories.OrganisationRepository {
	return &OrganisationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts the organisation and its first admin in one transaction
func (a *OrganisationAdapter) Create(ctx context.Context, org *entities.Organisation, creatorID string) error {
	orgQuery, orgArgs, err := a.db.Insert(organisationsTable).Rows(goqu.Record{
		"id":         org.ID,
		"name":       org.Name,
		"slug":       org.Slug,
		"created_at": org.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build organisation insert query", err)
	}

	memberQuery, memberArgs, err := a.db.Insert(membersTable).Rows(goqu.Record{
		"organisation_id": org.ID,
		"user_id":         creatorID,
		"role":            string(entities.MembershipRoleAdmin),
		"joined_at":       org.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build membership insert query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, orgQuery, orgArgs...); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, memberQuery, memberArgs...)
		return err
	})
	if err != nil {
		return writeError("failed to create organisation", err)
	}
	return nil
}

// GetByID retrieves an organisation by ID
func (a *OrganisationAdapter) GetByID(ctx context.Context, id string) (*entities.Organisation, error) {
	return a.getByField(ctx, "id", id)
}

// GetBySlug retrieves an organisation by slug
func (a *OrganisationAdapter) GetBySlug(ctx context.Context, slug string) (*entities.Organisation, error) {
	return a.getByField(ctx, "slug", slug)
}

// List retrieves every organisation
func (a *OrganisationAdapter) List(ctx context.Context) ([]*entities.Organisation, error) {
	query, args, err := a.db.Select("id", "name", "slug", "created_at").
		From(organisationsTable).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryOrganisations(ctx, query, args...)
}

// ListForUser retrieves the organisations a user belongs to
func (a *OrganisationAdapter) ListForUser(ctx context.Context, userID string) ([]*entities.Organisation, error) {
	query, args, err := a.db.Select("o.id", "o.name", "o.slug", "o.created_at").
		From(goqu.T(organisationsTable).As("o")).
		Join(goqu.T(membersTable).As("m"), goqu.On(goqu.I("m.organisation_id").Eq(goqu.I("o.id")))).
		Where(goqu.I("m.user_id").Eq(userID)).
		Order(goqu.I("o.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryOrganisations(ctx, query, args...)
}

// AddMember inserts a membership
func (a *OrganisationAdapter) AddMember(ctx context.Context, membership *entities.OrganisationMembership) error {
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = time.Now()
	}

	query, args, err := a.db.Insert(membersTable).Rows(goqu.Record{
		"organisation_id": membership.OrganisationID,
		"user_id":         membership.UserID,
		"role":            string(membership.Role),
		"joined_at":       membership.JoinedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build membership insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return writeError("failed to add member", err)
	}
	return nil
}

// RemoveMember deletes a membership
func (a *OrganisationAdapter) RemoveMember(ctx context.Context, orgID, userID string) error {
	query, args, err := a.db.Delete(membersTable).
		Where(goqu.Ex{"organisation_id": orgID, "user_id": userID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build membership delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to remove member", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("user %s is not a member of organisation %s", userID, orgID))
	}
	return nil
}

// ListMembers retrieves the memberships of one organisation
func (a *OrganisationAdapter) ListMembers(ctx context.Context, orgID string) ([]entities.OrganisationMembership, error) {
	query, args, err := a.db.Select("organisation_id", "user_id", "role", "joined_at").
		From(membersTable).
		Where(goqu.Ex{"organisation_id": orgID}).
		Order(goqu.I("joined_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryMemberships(ctx, query, args...)
}

// ListAllMemberships retrieves every membership
func (a *OrganisationAdapter) ListAllMemberships(ctx context.Context) ([]entities.OrganisationMembership, error) {
	query, args, err := a.db.Select("organisation_id", "user_id", "role", "joined_at").
		From(membersTable).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryMemberships(ctx, query, args...)
}

// CountAdmins counts the admins of an organisation
func (a *OrganisationAdapter) CountAdmins(ctx context.Context, orgID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From(membersTable).
		Where(goqu.Ex{"organisation_id": orgID, "role": string(entities.MembershipRoleAdmin)}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count admins", err)
	}
	return count, nil
}

func (a *OrganisationAdapter) getByField(ctx context.Context, field, value string) (*entities.Organisation, error) {
	query, args, err := a.db.Select("id", "name", "slug", "created_at").
		From(organisationsTable).
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	org := &entities.Organisation{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("organisation with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get organisation", err)
	}
	return org, nil
}

func (a *OrganisationAdapter) queryOrganisations(ctx context.Context, query string, args ...interface{}) ([]*entities.Organisation, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query organisations", err)
	}
	defer rows.Close()

	orgs := []*entities.Organisation{}
	for rows.Next() {
		org := &entities.Organisation{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan organisation", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate organisations", err)
	}
	return orgs, nil
}

func (a *OrganisationAdapter) queryMemberships(ctx context.Context, query string, args ...interface{}) ([]entities.OrganisationMembership, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query memberships", err)
	}
	defer rows.Close()

	memberships := []entities.OrganisationMembership{}
	for rows.Next() {
		var m entities.OrganisationMembership
		var role string
		if err := rows.Scan(&m.OrganisationID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan membership", err)
		}
		m.Role = entities.MembershipRole(role)
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate memberships", err)
	}
	return memberships, nil
}
