package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const maxDisplayNameLength = 80

// ProfileUpdate carries the editable profile fields; nil fields are left unchanged
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}

// UserService handles the signed-in user's account
type UserService struct {
	repo      repositories.UserRepository
	responses providers.CacheProvider
}

// NewUserService creates a new user service
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// WithResponseCache drops cached anonymous responses after a profile change, since names
// and privacy are baked into redacted reviews
func (s *UserService) WithResponseCache(cache providers.CacheProvider) *UserService {
	s.responses = cache
	return s
}

// Me returns the viewer's account, creating it on first sight from the token claims
func (s *UserService) Me(ctx context.Context, viewerID, email, displayName string) (*entities.User, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("not signed in")
	}

	user, err := s.repo.GetByID(ctx, viewerID)
	if err == nil {
		return user, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	now := time.Now().UTC()
	user = &entities.User{
		ID:          viewerID,
		Email:       email,
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the viewer's display name and privacy flag
func (s *UserService) UpdateProfile(ctx context.Context, viewerID string, update ProfileUpdate) (*entities.User, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("not signed in")
	}

	user, err := s.repo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if name == "" {
			return nil, apperrors.NewValidationError("display_name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxDisplayNameLength {
			return nil, apperrors.NewValidationError("display_name is too long")
		}
		user.DisplayName = name
	}
	if update.IsPrivate != nil {
		user.IsPrivate = *update.IsPrivate
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	dropAfterWrite(ctx, s.responses, reviewDerivedGroups...)
	return user, nil
}
