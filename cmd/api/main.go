package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tastefull/backend/internal/adapters/cache"
	"github.com/tastefull/backend/internal/adapters/database"
	"github.com/tastefull/backend/internal/adapters/events"
	"github.com/tastefull/backend/internal/adapters/search"
	"github.com/tastefull/backend/internal/api/handlers"
	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/api/routes"
	"github.com/tastefull/backend/internal/application/services"
	"github.com/tastefull/backend/internal/domain/providers"
	"github.com/tastefull/backend/internal/domain/repositories"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	"github.com/tastefull/backend/internal/infrastructure/clients/redis"
	"github.com/tastefull/backend/internal/infrastructure/clients/typesense"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	"github.com/tastefull/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}
	domainMetrics := observability.NewDomainMetrics()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	applied, err := database.Migrate(ctx, pgClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	if len(applied) > 0 {
		log.Info().Strs("versions", applied).Msg("Applied migrations")
	}

	// Redis is optional; without it there is no response cache, no event bus and rate
	// limiting falls back to a process-local window
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without cache and events")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var searchRepo repositories.RestaurantSearchRepository
	if cfg.Typesense.Enabled() {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Typesense client")
		} else {
			adapter := search.NewTypesenseAdapter(tsClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			searchRepo = adapter
		}
	}

	// Adapters
	userRepo := database.NewUserAdapter(pgClient)
	orgRepo := database.NewOrganisationAdapter(pgClient)
	followRepo := database.NewFollowAdapter(pgClient)
	reviewRepo := database.NewReviewAdapter(pgClient)

	restaurantRepo := database.NewRestaurantAdapter(pgClient)
	if cacheProvider != nil {
		restaurantRepo = database.NewCachedRestaurantAdapter(restaurantRepo, cacheProvider)
		log.Info().Msg("Restaurant adapter wrapped with caching layer")
	}

	// Services
	snapshots := services.NewSnapshotService(userRepo, orgRepo, followRepo, restaurantRepo, reviewRepo, metrics)
	feedService := services.NewFeedService(snapshots, userRepo, restaurantRepo, reviewRepo, metrics, domainMetrics)
	restaurantService := services.NewRestaurantService(restaurantRepo, searchRepo).WithResponseCache(cacheProvider)
	reviewService := services.NewReviewService(reviewRepo, restaurantRepo, searchRepo, eventBus, domainMetrics)
	socialService := services.NewSocialService(followRepo, userRepo, restaurantRepo, eventBus, domainMetrics)
	organisationService := services.NewOrganisationService(orgRepo, userRepo, restaurantRepo).WithResponseCache(cacheProvider)
	userService := services.NewUserService(userRepo).WithResponseCache(cacheProvider)

	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			cacheInvalidationService = nil
		}
	}

	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(restaurantRepo, cacheProvider)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
	}

	// Handlers and middleware
	restaurantHandler := handlers.NewRestaurantHandler(feedService, restaurantService, reviewService)
	socialHandler := handlers.NewSocialHandler(socialService)
	organisationHandler := handlers.NewOrganisationHandler(organisationService, feedService)
	userHandler := handlers.NewUserHandler(userService, organisationService)

	opts := routes.Options{
		ReviewLimiter: middleware.NewRateLimiter(cacheProvider, cfg.RateLimit.ReviewWrites, cfg.RateLimit.Window, "ratelimit:reviews:", domainMetrics),
		CORSOrigins:   cfg.Server.AllowedOrigins,
		Metrics:       metrics,
		DomainMetrics: domainMetrics,
	}
	if cacheProvider != nil {
		opts.CacheMiddleware = middleware.NewCacheMiddleware(cacheProvider).WithMetrics(metrics)
	}
	if eventBus != nil {
		opts.SSEHandler = handlers.NewSSEHandler(eventBus)
	}

	router := routes.NewRouter(
		restaurantHandler,
		socialHandler,
		organisationHandler,
		userHandler,
		middleware.NewAuthenticator(cfg.Auth),
		userRepo,
		restaurantRepo,
		opts,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// SSE streams are long lived; the write deadline only applies when no stream is served
		WriteTimeout: writeTimeout(cfg, eventBus != nil),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	// closing the bus ends open streams so Shutdown does not wait on them
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

func writeTimeout(cfg *config.Config, streaming bool) time.Duration {
	if streaming {
		return 0
	}
	return cfg.Server.WriteTimeout
}
