package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/adapters/database"
	"github.com/tastefull/backend/internal/adapters/search"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	"github.com/tastefull/backend/internal/infrastructure/clients/typesense"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	"github.com/tastefull/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	observability.InitLogger("tastefull-indexer", os.Getenv("APP_ENV"))

	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if n, err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		} else {
			log.Info().Int("restaurants", n).Msg("Reindex complete")
		}

		if interval <= 0 {
			break
		}
		reset = false

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return 0, err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return 0, err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.RestaurantsCollection).Msg("Deleting collection before reindex")
		if err := tsClient.DropRestaurants(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return 0, err
	}

	restaurantRepo := database.NewRestaurantAdapter(pgClient)
	reviewRepo := database.NewReviewAdapter(pgClient)

	restaurants, err := restaurantRepo.List(ctx, repositories.RestaurantFilter{})
	if err != nil {
		return 0, err
	}

	log.Info().Int("restaurants", len(restaurants)).Msg("Indexing restaurants")

	indexed := 0
	for _, r := range restaurants {
		if r == nil {
			continue
		}
		if ctx.Err() != nil {
			return indexed, ctx.Err()
		}

		reviews, err := reviewRepo.ListByRestaurant(ctx, r.ID)
		if err != nil {
			log.Warn().Err(err).Str("restaurant_id", r.ID).Msg("Failed to load reviews")
			continue
		}
		if err := adapter.Index(ctx, services.BuildRestaurantDocument(r, reviews)); err != nil {
			log.Warn().Err(err).Str("restaurant_id", r.ID).Msg("Failed to index restaurant")
			continue
		}
		indexed++
	}

	return indexed, nil
}
