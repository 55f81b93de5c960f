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
	"github.com/tastefull/backend/internal/adapters/events"
	"github.com/tastefull/backend/internal/api/handlers"
	"github.com/tastefull/backend/internal/api/middleware"
	"github.com/tastefull/backend/internal/infrastructure/clients/redis"
	"github.com/tastefull/backend/internal/infrastructure/observability"
	"github.com/tastefull/backend/pkg/config"
)

// sse serves only the review streams, so long-lived connections can be scaled apart
// from the API
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("tastefull-sse", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	bus := events.NewRedisEventBus(redisClient)
	streams := handlers.NewSSEHandler(bus)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/stream/restaurants/{id}", streams.StreamRestaurantUpdates)
	mux.HandleFunc("GET /api/stream/reviews", streams.StreamReviewUpdates)
	mux.HandleFunc("GET /api/stream/stats", streams.Stats)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(middleware.LoggingMiddleware(mux)),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
		// no WriteTimeout: streams stay open indefinitely
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("SSE server starting")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("SSE server failed")
		}
	case <-ctx.Done():
	}

	log.Info().Msg("SSE server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// closing the bus first ends every open stream
	if err := bus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	log.Info().Msg("SSE server stopped")
}
