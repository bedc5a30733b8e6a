package engine

import (
	"fmt"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
)

// DamageSystem is the only place hit points change. Everything else emits
// DamageTaken events and lets this system settle the outcome.
type DamageSystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
	parts    int
}

// DamagePayload describes a single application of damage.
type DamagePayload struct {
	TargetID string `json:"target_id"`
	SourceID string `json:"source_id"`
	Amount   int    `json:"amount"`
	Cause    string `json:"cause"` // "PROJECTILE", "CONTACT", "THROWN"
}

// FridgePartsPayload tells clients where to scatter debris.
type FridgePartsPayload struct {
	Position geom.Vec3 `json:"position"`
	Count    int       `json:"count"`
}

// NewDamageSystem creates a new damage resolver. parts is the number of
// debris pieces a destroyed fridge breaks into.
func NewDamageSystem(world *World, eventLog *events.EventLog, log *logger.Logger, parts int) *DamageSystem {
	return &DamageSystem{
		world:    world,
		eventLog: eventLog,
		logger:   log,
		parts:    parts,
	}
}

// OnDamageTaken applies damage and emits the follow-up death events.
func (ds *DamageSystem) OnDamageTaken(event events.GameEvent) {
	payload, ok := event.Payload.(DamagePayload)
	if !ok {
		ds.logger.Error("Failed to parse DamagePayload")
		return
	}
	if !ds.world.Running() {
		return
	}

	p := ds.world.Player
	if p != nil && p.ID == payload.TargetID {
		ds.damagePlayer(payload, event)
		return
	}

	if f, exists := ds.world.Fridges[payload.TargetID]; exists && f.Alive() {
		f.Health -= payload.Amount
		if f.Health > 0 {
			return
		}
		f.Health = 0

		metrics.Get().RecordFridgeDestroyed()
		ds.logger.Event("ENEMY_DESTROYED", payload.SourceID, payload.TargetID)
		ds.emit(events.EventTypeEnemyDestroyed, payload.SourceID, payload.TargetID, nil, event)
		ds.emit(events.EventTypeFridgeParts, payload.TargetID, "", FridgePartsPayload{
			Position: f.Position,
			Count:    ds.parts,
		}, event)

		if p != nil && p.ID == payload.SourceID {
			p.Kills++
			ds.emit(events.EventTypeKill, p.ID, payload.TargetID, map[string]int{"kills": p.Kills}, event)
		}
	}
}

func (ds *DamageSystem) damagePlayer(payload DamagePayload, event events.GameEvent) {
	p := ds.world.Player
	if !p.Alive() {
		return
	}

	p.Health -= payload.Amount
	if p.Health > 0 {
		return
	}
	p.Health = 0

	ds.logger.Warn(fmt.Sprintf("Player %s went down (%s by %s)", p.ID, payload.Cause, payload.SourceID))
	ds.world.State = StateGameOver
	ds.emit(events.EventTypeGameOver, p.ID, "", map[string]int{
		"kills":  p.Kills,
		"levels": ds.world.LevelsCleared,
	}, event)
}

func (ds *DamageSystem) emit(eventType events.EventType, actorID, targetID string, payload interface{}, origin events.GameEvent) {
	ds.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Payload:   payload,
		Tick:      origin.Tick,
		Depth:     origin.Depth,
	})
}
