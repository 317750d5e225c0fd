package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redhope/backend/internal/application/services"
	"github.com/redhope/backend/internal/domain/entities"
	"github.com/redhope/backend/internal/domain/providers"
	"github.com/redhope/backend/internal/infrastructure/observability"
	"github.com/redhope/backend/pkg/wilaya"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler handles Server-Sent Events for real-time donation request updates
type SSEHandler struct {
	eventBus  providers.EventBus
	clients   map[string]map[chan *entities.DonationEvent]bool // channel -> clients
	mu        sync.RWMutex
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		clients:   make(map[string]map[chan *entities.DonationEvent]bool),
		heartbeat: defaultHeartbeat,
	}
}

// SetHeartbeat overrides the keep-alive interval
func (h *SSEHandler) SetHeartbeat(d time.Duration) {
	if d > 0 {
		h.heartbeat = d
	}
}

// StreamDonationRequests handles SSE connections for donation request events.
// GET /api/stream/donation-requests?cityId=NN
// Without cityId every event is streamed.
func (h *SSEHandler) StreamDonationRequests(w http.ResponseWriter, r *http.Request) {
	channel := providers.EventChannelDonationRequests
	cityID := ""
	if raw := r.URL.Query().Get("cityId"); raw != "" {
		code, ok := wilaya.NormalizeCode(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "invalid cityId")
			return
		}
		cityID = code
		channel = providers.GetWilayaChannel(code)
	}

	h.stream(w, r, channel, map[string]interface{}{
		"cityId":    cityID,
		"timestamp": time.Now(),
	}, nil)
}

// StreamRegionalUpdates handles SSE connections for events near a point
// GET /api/stream/donation-requests/region?lat=X&lng=Y&radius=Z
func (h *SSEHandler) StreamRegionalUpdates(w http.ResponseWriter, r *http.Request) {
	lat, ok := queryFloat(r, "lat")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid latitude parameter")
		return
	}
	lng, ok := queryFloat(r, "lng")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid longitude parameter")
		return
	}
	center := entities.Coordinate{Lat: lat, Lng: lng}
	if !center.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}

	radius := 50.0
	if v, ok := queryFloat(r, "radius"); ok && v > 0 {
		radius = v
	}

	within := func(event *entities.DonationEvent) bool {
		if event.Location.IsZero() {
			return false
		}
		return services.DistanceKm(center, event.Location) <= radius
	}

	h.stream(w, r, providers.EventChannelDonationRequests, map[string]interface{}{
		"lat":       lat,
		"lng":       lng,
		"radius_km": radius,
		"timestamp": time.Now(),
	}, within)
}

// stream subscribes to channel and relays events until the client leaves.
// A nil filter forwards everything.
func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}, filter func(*entities.DonationEvent) bool) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.DonationEvent, 50)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(ctx, channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.sendEvent(w, "connected", hello)
	flusher.Flush()

	go h.forwardEvents(ctx, eventChan, clientChan, filter)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("channel", channel).Msg("client disconnected from stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.DonationEvent, clientChan chan<- *entities.DonationEvent, filter func(*entities.DonationEvent) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if filter != nil && !filter(event) {
				continue
			}
			select {
			case clientChan <- event:
			default:
				// slow client, drop
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.DonationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.DonationEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.DonationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes one SSE frame
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
