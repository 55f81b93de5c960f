package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
)

func TestBuildRestaurantDocument(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := buildRestaurantDocument(repositories.RestaurantDocument{
		Restaurant: &entities.Restaurant{
			ID:         "r1",
			Name:       "Kaffebar",
			Cuisine:    "nordic",
			Categories: []entities.Category{entities.CategoryCoffee, entities.CategoryCafe},
			Address:    entities.Address{City: "Oslo"},
			Location:   entities.Location{Latitude: 59.91, Longitude: 10.75},
			CreatedAt:  created,
		},
		ReviewCount:   3,
		AverageRating: 7.5,
	})

	require.NotNil(t, doc)
	assert.Equal(t, "r1", doc["id"])
	assert.Equal(t, []string{"coffee", "cafe"}, doc["categories"])
	assert.Equal(t, "Oslo", doc["city"])
	assert.Equal(t, []float64{59.91, 10.75}, doc["location"])
	assert.Equal(t, 7.5, doc["average_rating"])
	assert.Equal(t, 3, doc["review_count"])
	assert.Equal(t, created.Unix(), doc["created_at"])
}

func TestBuildRestaurantDocument_OptionalFields(t *testing.T) {
	doc := buildRestaurantDocument(repositories.RestaurantDocument{Restaurant: &entities.Restaurant{ID: "r2", Name: "Pop-up"}})

	assert.NotContains(t, doc, "location")
	assert.NotContains(t, doc, "city")
	assert.NotContains(t, doc, "cuisine")
	assert.Equal(t, []string{}, doc["categories"])

	assert.Nil(t, buildRestaurantDocument(repositories.RestaurantDocument{}))
}

func TestCategoryFilter(t *testing.T) {
	assert.Equal(t, "", categoryFilter(nil))
	assert.Equal(t, "categories:=[`coffee`,`pub`]", categoryFilter([]entities.Category{entities.CategoryCoffee, entities.CategoryPub}))
}

func TestHitIDs(t *testing.T) {
	ids := hitIDs([]map[string]interface{}{
		{"id": "r2", "name": "B"},
		{"name": "no id"},
		{"id": "r1"},
	})
	assert.Equal(t, []string{"r2", "r1"}, ids)
}
