package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const restaurantsTable = "restaurants"

var restaurantColumns = []interface{}{
	"id", "name", "cuisine", "categories", "street", "city", "postcode", "country",
	"latitude", "longitude", "created_by", "created_at", "updated_at",
}

// RestaurantAdapter implements the RestaurantRepository interface
type RestaurantAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRestaurantAdapter creates a new restaurant adapter
func NewRestaurantAdapter(client *postgres.Client) repositories.RestaurantRepository {
	return &RestaurantAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new restaurant
func (a *RestaurantAdapter) Create(ctx context.Context, restaurant *entities.Restaurant) error {
	record := goqu.Record{
		"id":         restaurant.ID,
		"name":       restaurant.Name,
		"cuisine":    restaurant.Cuisine,
		"categories": pq.Array(categoryStrings(restaurant.Categories)),
		"street":     restaurant.Address.Street,
		"city":       restaurant.Address.City,
		"postcode":   restaurant.Address.Postcode,
		"country":    restaurant.Address.Country,
		"latitude":   restaurant.Location.Latitude,
		"longitude":  restaurant.Location.Longitude,
		"created_by": restaurant.CreatedBy,
		"created_at": restaurant.CreatedAt,
		"updated_at": restaurant.UpdatedAt,
	}

	query, args, err := a.db.Insert(restaurantsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build restaurant insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return writeError("failed to create restaurant", err)
	}
	return nil
}

// GetByID retrieves a restaurant by ID
func (a *RestaurantAdapter) GetByID(ctx context.Context, id string) (*entities.Restaurant, error) {
	query, args, err := a.db.Select(restaurantColumns...).From(restaurantsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	restaurant, err := scanRestaurant(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("restaurant with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get restaurant", err)
	}
	return restaurant, nil
}

// GetByIDs retrieves multiple restaurants by their IDs
func (a *RestaurantAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Restaurant, error) {
	if len(ids) == 0 {
		return []*entities.Restaurant{}, nil
	}

	query, args, err := a.db.Select(restaurantColumns...).From(restaurantsTable).
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args...)
}

// List retrieves restaurants ordered by name. A category filter keeps restaurants
// tagged with any of the given categories.
func (a *RestaurantAdapter) List(ctx context.Context, filter repositories.RestaurantFilter) ([]*entities.Restaurant, error) {
	ds := a.db.Select(restaurantColumns...).From(restaurantsTable)

	if len(filter.Categories) > 0 {
		ds = ds.Where(goqu.L("categories && ?", pq.Array(categoryStrings(filter.Categories))))
	}

	ds = ds.Order(goqu.I("name").Asc(), goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.query(ctx, query, args...)
}

// Update updates a restaurant
func (a *RestaurantAdapter) Update(ctx context.Context, restaurant *entities.Restaurant) error {
	restaurant.UpdatedAt = time.Now()

	query, args, err := a.db.Update(restaurantsTable).
		Set(goqu.Record{
			"name":       restaurant.Name,
			"cuisine":    restaurant.Cuisine,
			"categories": pq.Array(categoryStrings(restaurant.Categories)),
			"street":     restaurant.Address.Street,
			"city":       restaurant.Address.City,
			"postcode":   restaurant.Address.Postcode,
			"country":    restaurant.Address.Country,
			"latitude":   restaurant.Location.Latitude,
			"longitude":  restaurant.Location.Longitude,
			"updated_at": restaurant.UpdatedAt,
		}).
		Where(goqu.Ex{"id": restaurant.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build restaurant update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update restaurant", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("restaurant with id %s not found", restaurant.ID))
	}
	return nil
}

func (a *RestaurantAdapter) query(ctx context.Context, query string, args ...interface{}) ([]*entities.Restaurant, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query restaurants", err)
	}
	defer rows.Close()

	restaurants := []*entities.Restaurant{}
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan restaurant", err)
		}
		restaurants = append(restaurants, restaurant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate restaurants", err)
	}
	return restaurants, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRestaurant(row rowScanner) (*entities.Restaurant, error) {
	restaurant := &entities.Restaurant{}
	var categories []string

	err := row.Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.Cuisine,
		pq.Array(&categories),
		&restaurant.Address.Street,
		&restaurant.Address.City,
		&restaurant.Address.Postcode,
		&restaurant.Address.Country,
		&restaurant.Location.Latitude,
		&restaurant.Location.Longitude,
		&restaurant.CreatedBy,
		&restaurant.CreatedAt,
		&restaurant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	restaurant.Categories = make([]entities.Category, 0, len(categories))
	for _, raw := range categories {
		if c, ok := entities.ParseCategory(raw); ok {
			restaurant.Categories = append(restaurant.Categories, c)
		}
	}
	return restaurant, nil
}

func categoryStrings(categories []entities.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
