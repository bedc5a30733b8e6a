// Kill-cam replay API - JSON export of the run's event history.
//
// Clients use it to render the post-game recap: every shot, kill, and door
// crossed, replayed from the immutable log.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// ReplayHandler provides the replay API.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayEvent is a sanitized event for public viewing.
type ReplayEvent struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Tick      int64       `json:"tick"`
	Depth     int         `json:"depth"`
	Type      string      `json:"type"`
	ActorID   string      `json:"actor_id"`
	TargetID  string      `json:"target_id,omitempty"`
	Summary   string      `json:"summary"`
	Details   interface{} `json:"details,omitempty"`
}

// ReplayResponse is the API response for a replay query.
type ReplayResponse struct {
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns the filtered event history.
// GET /api/replay?depth=N&type=KILL&actor=XXX&since=TICK
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	depthStr := r.URL.Query().Get("depth")
	eventType := r.URL.Query().Get("type")
	actorID := r.URL.Query().Get("actor")
	sinceStr := r.URL.Query().Get("since")

	allEvents := rh.eventLog.Replay()

	var replayEvents []ReplayEvent
	filterDesc := ""

	for _, e := range allEvents {
		// Ticks are pure clock noise in a recap.
		if e.Type == events.EventTypeTimeTick {
			continue
		}

		if depthStr != "" {
			depth, _ := strconv.Atoi(depthStr)
			if e.Depth != depth {
				continue
			}
			filterDesc = "Depth " + depthStr
		}

		if eventType != "" && string(e.Type) != eventType {
			continue
		}

		if actorID != "" && e.ActorID != actorID && e.TargetID != actorID {
			continue
		}

		if sinceStr != "" {
			since, _ := strconv.ParseInt(sinceStr, 10, 64)
			if e.Tick < since {
				continue
			}
		}

		replayEvents = append(replayEvents, rh.convertToReplayEvent(e))
	}

	response := ReplayResponse{
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}

	rh.logger.Event("REPLAY_EXPORT", "API", "Events:"+strconv.Itoa(len(replayEvents)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleEventDetail returns one event with its full payload.
// GET /api/replay/event/{eventID}
func (rh *ReplayHandler) HandleEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["eventID"]

	allEvents := rh.eventLog.Replay()
	for _, e := range allEvents {
		if e.ID == eventID {
			detail := rh.convertToReplayEvent(e)
			detail.Details = e.Payload

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(detail)
			return
		}
	}

	rh.jsonError(w, "Event not found", http.StatusNotFound)
}

// HandleStats returns aggregate statistics for the recap screen.
// GET /api/replay/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":  0,
		"shots_fired":   0,
		"kills":         0,
		"damage_events": 0,
		"levels":        0,
		"pickups":       0,
	}
	maxDepth := 0

	for _, e := range allEvents {
		if e.Type == events.EventTypeTimeTick {
			continue
		}
		stats["total_events"]++
		switch e.Type {
		case events.EventTypeShotFired:
			stats["shots_fired"]++
		case events.EventTypeKill:
			stats["kills"]++
		case events.EventTypeDamageTaken:
			stats["damage_events"]++
		case events.EventTypeLevelStarted:
			stats["levels"]++
		case events.EventTypeWeaponPickedUp:
			stats["pickups"]++
		}
		if e.Depth > maxDepth {
			maxDepth = e.Depth
		}
	}
	stats["max_depth"] = maxDepth

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/replay", rh.HandleReplay).Methods(http.MethodGet)
	router.HandleFunc("/api/replay/event/{eventID}", rh.HandleEventDetail).Methods(http.MethodGet)
	router.HandleFunc("/api/replay/stats", rh.HandleStats).Methods(http.MethodGet)
}

// convertToReplayEvent transforms an internal event to public format.
func (rh *ReplayHandler) convertToReplayEvent(e events.GameEvent) ReplayEvent {
	return ReplayEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format("15:04:05.000"),
		Tick:      e.Tick,
		Depth:     e.Depth,
		Type:      string(e.Type),
		ActorID:   e.ActorID,
		TargetID:  e.TargetID,
		Summary:   summarizeEvent(e),
	}
}

// summarizeEvent creates a human-readable summary.
func summarizeEvent(e events.GameEvent) string {
	switch e.Type {
	case events.EventTypeShotFired:
		return "A shot rang out."
	case events.EventTypeKill:
		return "A fridge met its end."
	case events.EventTypeDamageTaken:
		return "Something took a hit."
	case events.EventTypeWeaponPickedUp:
		return "A weapon changed hands."
	case events.EventTypeWeaponThrown:
		return "A weapon went flying."
	case events.EventTypeLevelSwitched:
		return "The player crossed into the next arena."
	case events.EventTypeGameOver:
		return "The fridges won."
	case events.EventTypeGameWon:
		return "The fridges died."
	default:
		return "Something happened..."
	}
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
