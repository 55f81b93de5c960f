package repositories

import (
	"context"

	"github.com/tastefull/backend/internal/domain/entities"
)

// ReviewRepository stores reviews. Every list is ordered newest first.
type ReviewRepository interface {
	Create(ctx context.Context, review *entities.Review) error
	GetByID(ctx context.Context, id string) (*entities.Review, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]*entities.Review, error)
	ListByUser(ctx context.Context, userID string) ([]*entities.Review, error)
	ListAll(ctx context.Context) ([]*entities.Review, error)
	// Update writes the ratings and comment; author and restaurant never change
	Update(ctx context.Context, review *entities.Review) error
	Delete(ctx context.Context, id string) error
}
