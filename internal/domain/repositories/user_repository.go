package repositories

import (
	"context"

	"github.com/tastefull/backend/internal/domain/entities"
)

// UserRepository stores user profiles. Lookups of unknown users return a NotFound error.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	// GetByIDs skips unknown IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	// Update writes the display name and privacy flag
	Update(ctx context.Context, user *entities.User) error
	List(ctx context.Context) ([]*entities.User, error)
}
