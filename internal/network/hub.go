package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/engine"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/tuning"
)

// SnapshotInterval is how often the world state is pushed to clients.
const SnapshotInterval = 100 * time.Millisecond

// Envelope wraps every server-to-client message so the frontend can route it.
type Envelope struct {
	Type string      `json:"type"` // "SNAPSHOT", "EVENT", "JOINED", "ERROR"
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	logger     *logger.Logger
	engine     *engine.Engine
	profile    *tuning.Profile
}

// NewHub initializes a new WebSocket Hub.
func NewHub(eng *engine.Engine, log *logger.Logger, profile *tuning.Profile) *Hub {
	if profile == nil {
		profile = tuning.Default()
	}
	return &Hub{
		broadcast:  make(chan []byte, profile.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
		engine:     eng,
		profile:    profile,
	}
}

// ClientCount reports how many sockets are attached.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Get().RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.Get().RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast serializes an envelope and sends it to all connected clients.
func (h *Hub) Broadcast(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("Failed to serialize envelope for WebSocket broadcast: " + err.Error())
		metrics.Get().RecordWSError()
		return
	}
	metrics.Get().RecordWSMessage(false)
	h.broadcast <- payload
}

// StartSnapshotBroadcaster pushes world snapshots to all clients at a fixed
// rate. Clients interpolate between them.
func (h *Hub) StartSnapshotBroadcaster(ctx context.Context) {
	go func() {
		interval := time.NewTicker(SnapshotInterval)
		defer interval.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-interval.C:
				h.mu.Lock()
				empty := len(h.clients) == 0
				h.mu.Unlock()
				if empty {
					continue
				}
				h.Broadcast(Envelope{Type: "SNAPSHOT", Data: h.engine.Snapshot()})
			}
		}
	}()
}

// StartEventPoller spawns a goroutine to poll the EventLog and push new
// events to the Hub. Time ticks are skipped; the snapshot stream covers
// continuous state.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(50 * time.Millisecond)
		defer pollInterval.Stop()

		lastProcessedEvent := 0

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				allEvents := eventLog.Replay()
				if len(allEvents) <= lastProcessedEvent {
					continue
				}

				newEvents := allEvents[lastProcessedEvent:]
				lastProcessedEvent = len(allEvents)
				for _, event := range newEvents {
					if event.Type == events.EventTypeTimeTick {
						continue
					}
					h.Broadcast(Envelope{Type: "EVENT", Data: event})
				}
			}
		}
	}()
}
