package repositories

import (
	"context"

	"github.com/tastefull/backend/internal/domain/entities"
)

// RestaurantRepository defines the interface for restaurant data operations
type RestaurantRepository interface {
	// Create creates a new restaurant
	Create(ctx context.Context, restaurant *entities.Restaurant) error

	// GetByID retrieves a restaurant by ID
	GetByID(ctx context.Context, id string) (*entities.Restaurant, error)

	// GetByIDs retrieves multiple restaurants by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error)

	// List retrieves restaurants ordered by name
	List(ctx context.Context, filter RestaurantFilter) ([]*entities.Restaurant, error)

	// Update updates a restaurant
	Update(ctx context.Context, restaurant *entities.Restaurant) error
}

// RestaurantFilter narrows a restaurant listing at the storage layer
type RestaurantFilter struct {
	Categories []entities.Category
	Limit      int
	Offset     int
}

// RestaurantDocument is a restaurant as stored in the search index
type RestaurantDocument struct {
	Restaurant    *entities.Restaurant
	ReviewCount   int
	AverageRating float64
}

// RestaurantSearchRepository defines full-text restaurant search (e.g. Typesense)
type RestaurantSearchRepository interface {
	// Index upserts a restaurant document
	Index(ctx context.Context, doc RestaurantDocument) error

	// Delete removes a restaurant from the index
	Delete(ctx context.Context, id string) error

	// Search returns the IDs of matching restaurants in relevance order
	Search(ctx context.Context, query string, categories []entities.Category, limit int) ([]string, error)
}
