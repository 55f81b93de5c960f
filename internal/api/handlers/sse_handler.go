package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tastefull/backend/internal/domain/providers"
)

const (
	heartbeatInterval = 30 * time.Second
	// reconnect hint sent to EventSource clients, in milliseconds
	reconnectAfterMillis = 5000
)

// SSEHandler streams review events as Server-Sent Events. Events carry aggregates only, so
// streams are public.
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration

	mu        sync.Mutex
	listeners map[string]int
}

func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: heartbeatInterval,
		listeners: make(map[string]int),
	}
}

// StreamRestaurantUpdates streams events for one restaurant
// GET /api/stream/restaurants/{id}
func (h *SSEHandler) StreamRestaurantUpdates(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("id")
	if restaurantID == "" {
		respondWithError(w, http.StatusBadRequest, "restaurant ID is required")
		return
	}
	h.stream(w, r, providers.GetRestaurantChannel(restaurantID), map[string]interface{}{
		"restaurant_id": restaurantID,
	})
}

// StreamReviewUpdates streams every review event
// GET /api/stream/reviews
func (h *SSEHandler) StreamReviewUpdates(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelReviewUpdates, map[string]interface{}{})
}

// Stats reports open streams
// GET /api/stream/stats
func (h *SSEHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	channels := make(map[string]int, len(h.listeners))
	for channel, n := range h.listeners {
		channels[channel] = n
	}
	h.mu.Unlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"connected_clients": h.GetClientCount(),
		"channels":          channels,
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	logger := zerolog.Ctx(r.Context()).With().Str("channel", channel).Logger()

	events, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to subscribe to channel")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.track(channel, 1)
	defer h.track(channel, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "retry: %d\n\n", reconnectAfterMillis)
	hello["timestamp"] = time.Now()
	writeEvent(w, "", "connected", hello)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("Client disconnected from stream")
			return
		case <-ticker.C:
			writeEvent(w, "", "heartbeat", map[string]interface{}{"timestamp": time.Now()})
		case event, open := <-events:
			if !open {
				return
			}
			if event == nil {
				continue
			}
			writeEvent(w, event.ID, string(event.Type), event)
		}
		flusher.Flush()
	}
}

func (h *SSEHandler) track(channel string, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[channel] += delta
	if h.listeners[channel] <= 0 {
		delete(h.listeners, channel)
	}
}

// writeEvent writes one SSE frame; id is omitted when empty
func writeEvent(w io.Writer, id, name string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
}

// GetClientCount returns the number of open streams
func (h *SSEHandler) GetClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for _, n := range h.listeners {
		total += n
	}
	return total
}
