// Package events provides the event log for the game.
// Every authoritative state change flows through here: the engine's systems
// react to events, the hub broadcasts them, and storage persists them.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeTimeTick       EventType = "TIME_TICK"
	EventTypeRunStarted     EventType = "RUN_STARTED"
	EventTypePlayerJoined   EventType = "PLAYER_JOINED"
	EventTypePlayerInput    EventType = "PLAYER_INPUT"
	EventTypeShotFired      EventType = "SHOT_FIRED"
	EventTypeShellEjected   EventType = "SHELL_EJECTED"
	EventTypeProjectileHit  EventType = "PROJECTILE_HIT"
	EventTypeDamageTaken    EventType = "DAMAGE_TAKEN"
	EventTypeKill           EventType = "KILL"
	EventTypeWeaponSpawned  EventType = "WEAPON_SPAWNED"
	EventTypeWeaponPickedUp EventType = "WEAPON_PICKED_UP"
	EventTypeWeaponThrown   EventType = "WEAPON_THROWN"
	EventTypeEnemySpawned   EventType = "ENEMY_SPAWNED"
	EventTypeEnemyDestroyed EventType = "ENEMY_DESTROYED"
	EventTypeFridgeParts    EventType = "FRIDGE_PARTS"
	EventTypeDoorChanged    EventType = "DOOR_CHANGED"
	EventTypeLevelStarted   EventType = "LEVEL_STARTED"
	EventTypeLevelFinished  EventType = "LEVEL_FINISHED"
	EventTypeLevelSwitched  EventType = "LEVEL_SWITCHED"
	EventTypeGamePaused     EventType = "GAME_PAUSED"
	EventTypeGameResumed    EventType = "GAME_RESUMED"
	EventTypeGameOver       EventType = "GAME_OVER"
	EventTypeGameWon        EventType = "GAME_WON"
)

// GameEvent represents an immutable record of something that happened in a run.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // Who performed the action
	TargetID  string      `json:"target_id"` // Who was affected (optional)
	Payload   interface{} `json:"payload"`   // Event-specific data
	Tick      int64       `json:"tick"`      // Simulation tick the event belongs to
	Depth     int         `json:"depth"`     // Level depth at the time of the event
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	persister := el.persister
	el.mu.Unlock()

	if persister != nil {
		// Write through to persistent storage off the hot path.
		go func(e GameEvent) {
			_ = persister.Append(e)
		}(event)
	}
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByDepth returns all events that occurred at a specific level depth.
func (el *EventLog) GetByDepth(depth int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Depth == depth {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events for state reconstruction
// and spectator replays.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
