package typesense

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/pkg/config"
	"github.com/tastefull/backend/pkg/retry"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// RestaurantsCollection holds one document per restaurant with its review aggregates
const RestaurantsCollection = "restaurants"

type Client struct {
	ts *typesense.Client
}

// NewClient connects to the search cluster and waits for its health endpoint
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	ts := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	healthy := func(ctx context.Context) error {
		ok, err := ts.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("cluster reports unhealthy")
		}
		return nil
	}
	if err := retry.WaitReady(ctx, retry.DefaultConfig(), "Typesense", 5*time.Second, healthy); err != nil {
		return nil, fmt.Errorf("connect to Typesense at %s: %w", cfg.URL, err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{ts: ts}, nil
}

func (c *Client) Client() *typesense.Client {
	return c.ts
}

// RestaurantSchema is the restaurants collection schema; newest restaurants sort first
// by default
func RestaurantSchema() *api.CollectionSchema {
	facet := pointer.True()
	optional := pointer.True()
	return &api.CollectionSchema{
		Name: RestaurantsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "cuisine", Type: "string", Optional: optional},
			{Name: "categories", Type: "string[]", Facet: facet},
			{Name: "city", Type: "string", Facet: facet, Optional: optional},
			{Name: "location", Type: "geopoint", Optional: optional},
			{Name: "average_rating", Type: "float"},
			{Name: "review_count", Type: "int32"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

// InitSchema creates the restaurants collection unless it already exists
func (c *Client) InitSchema(ctx context.Context) error {
	existing, err := c.ts.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, col := range existing {
		if col.Name == RestaurantsCollection {
			return nil
		}
	}

	if _, err := c.ts.Collections().Create(ctx, RestaurantSchema()); err != nil {
		return fmt.Errorf("create collection %s: %w", RestaurantsCollection, err)
	}
	log.Info().Str("collection", RestaurantsCollection).Msg("Created Typesense collection")
	return nil
}

// DropRestaurants deletes the restaurants collection. A missing collection is not an error.
func (c *Client) DropRestaurants(ctx context.Context) error {
	_, err := c.ts.Collection(RestaurantsCollection).Delete(ctx)
	var httpErr *typesense.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}
