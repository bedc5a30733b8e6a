// Run reconstruction - rebuilds run state from the event log.
// This is the core of Event Sourcing: state = f(events).
package storage

import (
	"context"
	"fmt"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
)

// Reconstructor rebuilds run state from the event log. Used for:
// 1. Restoring the run headline after a restart
// 2. Auditing and debugging
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// RebuildRun reconstructs a run's headline snapshot from its events.
func (r *Reconstructor) RebuildRun(ctx context.Context, runID string) (*RunSnapshot, error) {
	events, err := r.eventRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for run: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	snap := RunSnapshot{
		RunID: runID,
		State: "LOBBY",
	}

	for _, e := range events {
		if e.Depth > snap.Depth {
			snap.Depth = e.Depth
		}

		switch e.EventType {
		case "RUN_STARTED":
			snap.State = "IN_GAME"
			if seed, ok := e.Payload["seed"].(float64); ok {
				snap.Seed = int64(seed)
			}
		case "PLAYER_JOINED":
			snap.PlayerID = e.ActorID
			snap.Health = player.Health
			if name, ok := e.Payload["name"].(string); ok {
				snap.PlayerName = name
			}
		case "DAMAGE_TAKEN":
			if target, ok := e.Payload["target_id"].(string); ok && target == snap.PlayerID {
				if amount, ok := e.Payload["amount"].(float64); ok {
					snap.Health -= int(amount)
					if snap.Health < 0 {
						snap.Health = 0
					}
				}
			}
		case "KILL":
			snap.Kills++
		case "LEVEL_FINISHED":
			snap.LevelsCleared++
		case "GAME_PAUSED":
			snap.State = "PAUSED"
		case "GAME_RESUMED":
			snap.State = "IN_GAME"
		case "GAME_OVER":
			snap.State = "GAME_OVER"
		case "GAME_WON":
			snap.State = "GAME_WON"
		}

		snap.LastUpdated = e.Timestamp
	}

	return &snap, nil
}
