// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"time"
)

// GameEvent mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	RunID     string                 `json:"run_id" db:"run_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	Tick      int64                  `json:"tick" db:"tick"`
	Depth     int                    `json:"depth" db:"depth"`
}

// EventRepository defines the interface for event persistence.
// The domain uses this interface; the implementation is in infra.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByRunID retrieves all events for a specific run (for replay).
	GetByRunID(ctx context.Context, runID string) ([]GameEvent, error)

	// GetByActorID retrieves all events performed by an actor.
	GetByActorID(ctx context.Context, runID, actorID string) ([]GameEvent, error)

	// GetByDepth retrieves all events from a specific level depth.
	GetByDepth(ctx context.Context, runID string, depth int) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error)
}

// RunSnapshot represents the headline state of a run for quick reads.
type RunSnapshot struct {
	RunID         string    `json:"run_id" db:"run_id"`
	PlayerID      string    `json:"player_id" db:"player_id"`
	PlayerName    string    `json:"player_name" db:"player_name"`
	State         string    `json:"state" db:"state"`
	Seed          int64     `json:"seed" db:"seed"`
	Depth         int       `json:"depth" db:"depth"`
	LevelsCleared int       `json:"levels_cleared" db:"levels_cleared"`
	Kills         int       `json:"kills" db:"kills"`
	Health        int       `json:"health" db:"health"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

// RunRepository defines the interface for run state snapshots.
type RunRepository interface {
	// Upsert updates or inserts a run snapshot.
	Upsert(ctx context.Context, snapshot RunSnapshot) error

	// GetByRunID retrieves a specific run's snapshot.
	GetByRunID(ctx context.Context, runID string) (*RunSnapshot, error)

	// List retrieves all runs, newest first.
	List(ctx context.Context) ([]RunSnapshot, error)
}
