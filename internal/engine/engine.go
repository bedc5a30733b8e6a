package engine

import (
	"context"
	"sync"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// Engine is the central orchestrator that wires up the Event Sourcing log to
// the game mechanics.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	ticker   *Ticker

	// Sub-systems
	movementSystem   *MovementSystem
	weaponSystem     *WeaponSystem
	projectileSystem *ProjectileSystem
	enemySystem      *EnemySystem
	damageSystem     *DamageSystem
	pickupSystem     *PickupSystem
	levelSystem      *LevelSystem
	director         *Director

	// State
	mu                 sync.RWMutex
	world              *World
	opts               Options
	lastProcessedEvent int
}

// Options tunes a run. Zero values fall back to the built-in balance.
type Options struct {
	RunLevels   int
	Seed        int64
	Tutorial    bool
	WeaponSpecs map[weapon.Type]weapon.Spec
	EnemySpec   enemy.Spec
	LevelParams level.Params
	FridgeParts int
}

// PlayerJoinedPayload announces a new player.
type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// NewEngine initializes the core game systems and dependencies.
func NewEngine(eventLog *events.EventLog, log *logger.Logger, opts Options) *Engine {
	if opts.RunLevels <= 0 {
		opts.RunLevels = 5
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.WeaponSpecs == nil {
		opts.WeaponSpecs = weapon.DefaultSpecs()
	}
	if opts.EnemySpec == (enemy.Spec{}) {
		opts.EnemySpec = enemy.DefaultSpec()
	}
	if opts.LevelParams == (level.Params{}) {
		opts.LevelParams = level.DefaultParams()
	}
	if opts.FridgeParts <= 0 {
		opts.FridgeParts = opts.EnemySpec.PartCount
	}

	world := NewWorld()
	pickupSystem := NewPickupSystem(world, eventLog, log)
	levelSystem := NewLevelSystem(world, eventLog, log, pickupSystem,
		opts.WeaponSpecs, opts.EnemySpec, opts.LevelParams)

	e := &Engine{
		eventLog: eventLog,
		logger:   log,
		ticker:   NewTicker(eventLog, log),

		movementSystem:   NewMovementSystem(world, eventLog, log),
		weaponSystem:     NewWeaponSystem(world, eventLog, log, opts.WeaponSpecs),
		projectileSystem: NewProjectileSystem(world, eventLog, log, opts.EnemySpec),
		enemySystem:      NewEnemySystem(world, eventLog, log, opts.EnemySpec),
		damageSystem:     NewDamageSystem(world, eventLog, log, opts.FridgeParts),
		pickupSystem:     pickupSystem,
		levelSystem:      levelSystem,

		world: world,
		opts:  opts,
	}
	e.director = NewDirector(world, eventLog, log, levelSystem)
	return e
}

// Start spawns the Ticker and the EventProcessor loop.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting core game engine...")

	// Start the main game clock
	go e.ticker.Start(ctx)

	// Start the event processing loop
	go e.processEvents(ctx)
}

// StartRun emits the RunStarted event that boots the first level.
func (e *Engine) StartRun() {
	e.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeRunStarted,
		ActorID:   "SYSTEM_ENGINE",
		Payload: RunStartedPayload{
			Seed:      e.opts.Seed,
			RunLevels: e.opts.RunLevels,
			Tutorial:  e.opts.Tutorial,
		},
	})
}

// TriggerAmbush asks the director for an immediate ambush spawn. Returns
// false when the world cannot take one right now.
func (e *Engine) TriggerAmbush(reason string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	tick := events.GameEvent{Tick: e.ticker.TickNumber()}
	if e.world.Level != nil {
		tick.Depth = e.world.Level.Depth
	}
	return e.director.Trigger(reason, tick)
}

// GetEventLog exposes the event log for the network layer to inject player
// actions.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

// TickNumber exposes the simulation clock for metrics.
func (e *Engine) TickNumber() int64 {
	return e.ticker.TickNumber()
}

// processEvents listens to the EventLog and dispatches items to subsystems.
func (e *Engine) processEvents(ctx context.Context) {
	pollInterval := time.NewTicker(10 * time.Millisecond) // Poll the event log for new events
	defer pollInterval.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("EventProcessor stopped.")
			return
		case <-pollInterval.C:
			allEvents := e.eventLog.Replay()
			newEventsCount := len(allEvents) - e.lastProcessedEvent

			if newEventsCount > 0 {
				newEvents := allEvents[e.lastProcessedEvent:]
				e.lastProcessedEvent = len(allEvents)
				e.mu.Lock()
				for _, event := range newEvents {
					e.dispatch(event)
				}
				e.mu.Unlock()
			}
		}
	}
}

// dispatch routes a standard GameEvent to the appropriate subsystems based
// on its type.
func (e *Engine) dispatch(event events.GameEvent) {
	switch event.Type {
	case events.EventTypeTimeTick:
		if !e.world.Running() {
			return
		}
		e.movementSystem.OnTimeTick(event)
		e.enemySystem.OnTimeTick(event)
		e.weaponSystem.OnTimeTick(event)
		e.projectileSystem.OnTimeTick(event)
		e.pickupSystem.OnTimeTick(event)
		e.levelSystem.OnTimeTick(event)

		// Unmarshal payload if we need it for the Director specifically
		if payload, ok := event.Payload.(TimeTickPayload); ok {
			e.director.OnTimeTick(payload)
		}

		if e.world.Level != nil {
			e.ticker.SetDepth(e.world.Level.Depth)
		}

	case events.EventTypeRunStarted:
		e.levelSystem.OnRunStarted(event)
		if payload, ok := event.Payload.(RunStartedPayload); ok {
			e.director.OnRunStarted(payload)
		}

	case events.EventTypePlayerJoined:
		e.registerPlayer(event)

	case events.EventTypePlayerInput:
		e.movementSystem.OnPlayerInput(event)

	case events.EventTypeWeaponThrown:
		e.weaponSystem.OnWeaponThrown(event)

	case events.EventTypeDamageTaken:
		e.damageSystem.OnDamageTaken(event)

	case events.EventTypeGamePaused:
		if e.world.State == StateInGame {
			e.world.State = StatePaused
			e.logger.Event("GAME_PAUSED", event.ActorID, "")
		}

	case events.EventTypeGameResumed:
		if e.world.State == StatePaused {
			e.world.State = StateInGame
			e.logger.Event("GAME_RESUMED", event.ActorID, "")
		}
	}
}

// registerPlayer creates the run's player. A second join is ignored; the
// game is strictly single player.
func (e *Engine) registerPlayer(event events.GameEvent) {
	payload, ok := event.Payload.(PlayerJoinedPayload)
	if !ok {
		e.logger.Error("Failed to parse PlayerJoinedPayload")
		return
	}
	if e.world.Player != nil {
		e.logger.Warn("Join rejected, player slot taken: " + payload.PlayerID)
		return
	}

	spawn := geom.Vec3{}
	if e.world.Level != nil {
		spawn = e.world.Level.PlayerSpawn()
	}
	e.world.Player = player.New(payload.PlayerID, payload.Name, spawn)
	e.logger.Event("PLAYER_JOINED", payload.PlayerID, payload.Name)
}
