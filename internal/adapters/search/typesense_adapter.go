package search

import (
	"context"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/tastefull/backend/internal/domain/entities"
	"github.com/tastefull/backend/internal/domain/repositories"
	tsclient "github.com/tastefull/backend/internal/infrastructure/clients/typesense"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements restaurant search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements RestaurantSearchRepository
var _ repositories.RestaurantSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts a restaurant document
func (a *TypesenseAdapter) Index(ctx context.Context, doc repositories.RestaurantDocument) error {
	document := buildRestaurantDocument(doc)
	if document == nil {
		return apperrors.NewValidationError("cannot index empty restaurant document")
	}

	_, err := a.client.Client().Collection(tsclient.RestaurantsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return apperrors.NewExternalError("failed to index restaurant", err)
	}
	return nil
}

// Delete removes a restaurant from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.RestaurantsCollection).Document(id).Delete(ctx)
	if err != nil {
		return apperrors.NewExternalError("failed to delete restaurant from index", err)
	}
	return nil
}

// Search returns matching restaurant IDs in relevance order
func (a *TypesenseAdapter) Search(ctx context.Context, query string, categories []entities.Category, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,cuisine,city"),
		PerPage: pointer.Int(limit),
	}
	if filter := categoryFilter(categories); filter != "" {
		params.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.RestaurantsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to search restaurants", err)
	}
	if result.Hits == nil {
		return []string{}, nil
	}

	docs := make([]map[string]interface{}, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document != nil {
			docs = append(docs, *hit.Document)
		}
	}
	return hitIDs(docs), nil
}

func buildRestaurantDocument(doc repositories.RestaurantDocument) map[string]interface{} {
	r := doc.Restaurant
	if r == nil {
		return nil
	}

	categories := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		categories = append(categories, string(c))
	}

	document := map[string]interface{}{
		"id":             r.ID,
		"name":           r.Name,
		"categories":     categories,
		"average_rating": doc.AverageRating,
		"review_count":   doc.ReviewCount,
		"created_at":     r.CreatedAt.Unix(),
	}
	if r.Cuisine != "" {
		document["cuisine"] = r.Cuisine
	}
	if r.Address.City != "" {
		document["city"] = r.Address.City
	}
	if r.Location.Latitude != 0 || r.Location.Longitude != 0 {
		document["location"] = []float64{r.Location.Latitude, r.Location.Longitude}
	}
	return document
}

// categoryFilter matches documents tagged with any of the categories
func categoryFilter(categories []entities.Category) string {
	if len(categories) == 0 {
		return ""
	}
	values := make([]string, len(categories))
	for i, c := range categories {
		values[i] = "`" + string(c) + "`"
	}
	return "categories:=[" + strings.Join(values, ",") + "]"
}

func hitIDs(docs []map[string]interface{}) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
