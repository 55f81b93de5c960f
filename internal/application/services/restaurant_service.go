package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const defaultSearchLimit = 20

// RestaurantInput is the payload for creating a restaurant
type RestaurantInput struct {
	Name       string            `json:"name"`
	Cuisine    string            `json:"cuisine"`
	Categories []string          `json:"categories"`
	Address    entities.Address  `json:"address"`
	Location   entities.Location `json:"location"`
}

// RestaurantService handles business logic for restaurants
type RestaurantService struct {
	repo       repositories.RestaurantRepository
	searchRepo repositories.RestaurantSearchRepository
	responses  providers.CacheProvider
}

// NewRestaurantService creates a new restaurant service. searchRepo may be nil.
func NewRestaurantService(repo repositories.RestaurantRepository, searchRepo repositories.RestaurantSearchRepository) *RestaurantService {
	return &RestaurantService{
		repo:       repo,
		searchRepo: searchRepo,
	}
}

// WithResponseCache drops cached anonymous restaurant lists after a restaurant is added
func (s *RestaurantService) WithResponseCache(cache providers.CacheProvider) *RestaurantService {
	s.responses = cache
	return s
}

// Create creates a new restaurant and indexes it
func (s *RestaurantService) Create(ctx context.Context, viewerID string, in RestaurantInput) (*entities.Restaurant, error) {
	if viewerID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to add restaurants")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if len(in.Categories) == 0 {
		return nil, apperrors.NewValidationError("at least one category is required")
	}

	categories := make([]entities.Category, 0, len(in.Categories))
	seen := map[entities.Category]bool{}
	for _, raw := range in.Categories {
		c, ok := entities.ParseCategory(raw)
		if !ok {
			return nil, apperrors.NewValidationError("unknown category: " + raw)
		}
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}

	now := time.Now().UTC()
	restaurant := &entities.Restaurant{
		ID:         uuid.New().String(),
		Name:       name,
		Cuisine:    strings.TrimSpace(in.Cuisine),
		Categories: categories,
		Address:    in.Address,
		Location:   in.Location,
		CreatedBy:  viewerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, err
	}
	dropAfterWrite(ctx, s.responses, ResponseGroupRestaurants)

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, repositories.RestaurantDocument{Restaurant: restaurant}); err != nil {
			log.Warn().Err(err).Str("restaurant_id", restaurant.ID).Msg("Failed to index restaurant")
		}
	}

	return restaurant, nil
}

// GetByID retrieves a restaurant by ID
func (s *RestaurantService) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	return s.repo.GetByID(ctx, id)
}

// Search finds restaurants by name. Typesense is used when configured; otherwise, or when
// Typesense fails, a case-insensitive substring match runs over the stored restaurants.
func (s *RestaurantService) Search(ctx context.Context, query string, categories []entities.Category, limit int) ([]*entities.Restaurant, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if s.searchRepo != nil {
		ids, err := s.searchRepo.Search(ctx, query, categories, limit)
		if err == nil {
			return s.byIDsInOrder(ctx, ids)
		}
		log.Warn().Err(err).Str("query", query).Msg("Search backend failed, falling back to database")
	}

	restaurants, err := s.repo.List(ctx, repositories.RestaurantFilter{Categories: categories})
	if err != nil {
		return nil, err
	}
	return matchRestaurants(restaurants, query, limit), nil
}

func (s *RestaurantService) byIDsInOrder(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	restaurants, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Restaurant, len(restaurants))
	for _, r := range restaurants {
		if r != nil {
			byID[r.ID] = r
		}
	}
	out := make([]*entities.Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchRestaurants(restaurants []*entities.Restaurant, query string, limit int) []*entities.Restaurant {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*entities.Restaurant, 0, limit)
	for _, r := range restaurants {
		if len(out) == limit {
			break
		}
		if q == "" ||
			strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.Cuisine), q) ||
			strings.Contains(strings.ToLower(r.Address.City), q) {
			out = append(out, r)
		}
	}
	return out
}
