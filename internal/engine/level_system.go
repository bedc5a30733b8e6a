package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
)

// LevelSystem owns the arena lifecycle: generating levels, opening doors on
// a clear, sliding the player into the next arena, and tearing down the one
// left behind.
type LevelSystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
	pickups  *PickupSystem

	specs     map[weapon.Type]weapon.Spec
	enemySpec enemy.Spec
	params    level.Params
	runLevels int
	tutorial  bool
	rng       *rand.Rand
}

// RunStartedPayload seeds a fresh run.
type RunStartedPayload struct {
	Seed      int64 `json:"seed"`
	RunLevels int   `json:"run_levels"`
	Tutorial  bool  `json:"tutorial"`
}

// LevelStartedPayload announces a freshly generated arena.
type LevelStartedPayload struct {
	Depth       int       `json:"depth"`
	Translation geom.Vec3 `json:"translation"`
}

// LevelSwitchedPayload records the player crossing into the next arena.
type LevelSwitchedPayload struct {
	FromDepth int            `json:"from_depth"`
	ToDepth   int            `json:"to_depth"`
	Side      level.DoorSide `json:"side"`
}

// DoorChangedPayload records a door lock transition.
type DoorChangedPayload struct {
	Side  level.DoorSide  `json:"side"`
	State level.DoorState `json:"state"`
	Depth int             `json:"depth"`
}

// EnemySpawnedPayload announces a fridge entering the world.
type EnemySpawnedPayload struct {
	EnemyID  string    `json:"enemy_id"`
	Position geom.Vec3 `json:"position"`
	Depth    int       `json:"depth"`
	Reason   string    `json:"reason"` // "LEVEL" or "AMBUSH"
}

// entryCloseDistance is how far from the entry door the player must be, in
// world units, before it locks behind them.
const entryCloseDistance = 2 * level.ColumnSize

// NewLevelSystem creates a new level lifecycle manager.
func NewLevelSystem(world *World, eventLog *events.EventLog, log *logger.Logger, pickups *PickupSystem,
	specs map[weapon.Type]weapon.Spec, enemySpec enemy.Spec, params level.Params) *LevelSystem {
	return &LevelSystem{
		world:     world,
		eventLog:  eventLog,
		logger:    log,
		pickups:   pickups,
		specs:     specs,
		enemySpec: enemySpec,
		params:    params,
		runLevels: 5,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnRunStarted resets the world and generates the first arena.
func (ls *LevelSystem) OnRunStarted(event events.GameEvent) {
	payload, ok := event.Payload.(RunStartedPayload)
	if !ok {
		ls.logger.Error("Failed to parse RunStartedPayload")
		return
	}

	ls.rng = rand.New(rand.NewSource(payload.Seed))
	if payload.RunLevels > 0 {
		ls.runLevels = payload.RunLevels
	}
	ls.tutorial = payload.Tutorial

	ls.world.Fridges = make(map[string]*enemy.Fridge)
	ls.world.Projectiles = make(map[string]*Projectile)
	ls.world.Pickups = make(map[string]*Pickup)
	ls.world.PrevLevel = nil
	ls.world.LevelsCleared = 0

	grid := level.Generate(ls.rng, nil, ls.params)
	if ls.tutorial {
		grid.Tutorial()
	}
	lvl := level.Place(grid, geom.Vec3{}, 0)
	ls.world.Level = lvl

	if p := ls.world.Player; p != nil {
		p.Position = lvl.PlayerSpawn()
		p.Velocity = geom.Vec3{}
		p.Health = player.Health
		p.Kills = 0
		p.Held = nil
	}

	ls.populate(lvl, event)
	ls.world.State = StateInGame

	ls.logger.Event("LEVEL_STARTED", "LEVEL", fmt.Sprintf("depth 0 seed %d", payload.Seed))
	ls.emit(events.EventTypeLevelStarted, "SYSTEM_LEVEL", LevelStartedPayload{
		Depth:       0,
		Translation: lvl.Translation,
	}, event)
}

// OnTimeTick drives the clear / switch / teardown state of the active arena.
func (ls *LevelSystem) OnTimeTick(event events.GameEvent) {
	if !ls.world.Running() {
		return
	}
	lvl := ls.world.Level
	p := ls.world.Player
	if lvl == nil || p == nil || !p.Alive() {
		return
	}

	if !lvl.Cleared && ls.world.AliveFridges() == 0 {
		ls.clearLevel(lvl, event)
		if ls.world.State != StateInGame {
			return
		}
	}

	if ls.world.PrevLevel != nil {
		ls.maybeCloseEntry(lvl, p, event)
	}

	if lvl.Cleared {
		if exit := lvl.DoorEntered(p.Position.X, p.Position.Y, player.ColliderRadius); exit != nil && exit.State == level.DoorOpen {
			ls.switchLevel(lvl, exit, event)
		}
	}
}

// clearLevel opens the doors and ends the run when enough arenas fell.
func (ls *LevelSystem) clearLevel(lvl *level.Level, event events.GameEvent) {
	lvl.Cleared = true
	ls.world.LevelsCleared++

	for _, d := range lvl.OpenDoors() {
		ls.emit(events.EventTypeDoorChanged, "SYSTEM_LEVEL", DoorChangedPayload{
			Side:  d.Side,
			State: d.State,
			Depth: lvl.Depth,
		}, event)
	}

	ls.logger.Event("LEVEL_FINISHED", "LEVEL", fmt.Sprintf("depth %d", lvl.Depth))
	ls.emit(events.EventTypeLevelFinished, "SYSTEM_LEVEL", map[string]int{"depth": lvl.Depth}, event)

	if ls.world.LevelsCleared >= ls.runLevels {
		ls.world.State = StateGameWon
		ls.logger.Event("GAME_WON", ls.world.Player.ID, fmt.Sprintf("%d levels cleared", ls.world.LevelsCleared))
		ls.emit(events.EventTypeGameWon, ls.world.Player.ID, map[string]int{
			"levels": ls.world.LevelsCleared,
			"kills":  ls.world.Player.Kills,
		}, event)
	}
}

// maybeCloseEntry locks the entry door once the player is far enough inside
// and tears down the arena behind it.
func (ls *LevelSystem) maybeCloseEntry(lvl *level.Level, p *player.Player, event events.GameEvent) {
	var entry *level.Door
	for _, d := range lvl.Grid.Doors {
		if d.State == level.DoorTemporaryOpen {
			entry = d
			break
		}
	}
	if entry == nil {
		ls.teardownPrev()
		return
	}

	gx, gy := entry.GridCell()
	doorCenter := level.CellCenter(gx, gy, lvl.Translation)
	if doorCenter.Sub(p.Position).Planar().Length() < entryCloseDistance {
		return
	}

	lvl.CloseEntryDoor()
	ls.emit(events.EventTypeDoorChanged, "SYSTEM_LEVEL", DoorChangedPayload{
		Side:  entry.Side,
		State: entry.State,
		Depth: lvl.Depth,
	}, event)
	ls.teardownPrev()
}

func (ls *LevelSystem) teardownPrev() {
	prev := ls.world.PrevLevel
	if prev == nil {
		return
	}
	ls.pickups.DropForDepth(prev.Depth)
	for id, f := range ls.world.Fridges {
		if !f.Alive() {
			delete(ls.world.Fridges, id)
		}
	}
	ls.world.PrevLevel = nil
}

// switchLevel generates the next arena beyond the exit door and moves the
// player through.
func (ls *LevelSystem) switchLevel(lvl *level.Level, exit *level.Door, event events.GameEvent) {
	grid := level.Generate(ls.rng, exit, ls.params)
	translation := lvl.Translation.Add(exit.Side.Offset())
	next := level.Place(grid, translation, lvl.Depth+1)

	ls.world.PrevLevel = lvl
	ls.world.Level = next

	var entry *level.Door
	for _, d := range next.Grid.Doors {
		if d.State == level.DoorTemporaryOpen {
			entry = d
		}
	}
	if entry != nil {
		ls.world.Player.Position = next.EntrySpawn(entry)
	}

	ls.populate(next, event)

	ls.logger.Event("LEVEL_SWITCHED", ls.world.Player.ID, fmt.Sprintf("depth %d -> %d", lvl.Depth, next.Depth))
	ls.emit(events.EventTypeLevelSwitched, ls.world.Player.ID, LevelSwitchedPayload{
		FromDepth: lvl.Depth,
		ToDepth:   next.Depth,
		Side:      exit.Side,
	}, event)
	ls.emit(events.EventTypeLevelStarted, "SYSTEM_LEVEL", LevelStartedPayload{
		Depth:       next.Depth,
		Translation: next.Translation,
	}, event)
}

// populate drops the marker-cell content of a fresh arena into the world.
func (ls *LevelSystem) populate(lvl *level.Level, event events.GameEvent) {
	metrics.Get().RecordLevelGenerated()
	types := []weapon.Type{weapon.TypePistol, weapon.TypeShotgun, weapon.TypeMinigun}
	for _, pos := range lvl.Spawns(level.CellWeapon) {
		t := types[ls.rng.Intn(len(types))]
		ls.pickups.SpawnWeapon(weapon.New(t, ls.specs), pos, lvl.Depth, event)
	}
	for _, pos := range lvl.Spawns(level.CellEnemy) {
		ls.SpawnFridge(pos, lvl.Depth, "LEVEL", event)
	}
}

// SpawnFridge adds a fridge to the world and announces it. Also used by the
// director for ambush spawns.
func (ls *LevelSystem) SpawnFridge(pos geom.Vec3, depth int, reason string, event events.GameEvent) *enemy.Fridge {
	f := enemy.New(events.GenerateEventID(), pos, ls.enemySpec)
	ls.world.Fridges[f.ID] = f

	ls.emit(events.EventTypeEnemySpawned, "SYSTEM_LEVEL", EnemySpawnedPayload{
		EnemyID:  f.ID,
		Position: pos,
		Depth:    depth,
		Reason:   reason,
	}, event)
	return f
}

func (ls *LevelSystem) emit(eventType events.EventType, actorID string, payload interface{}, origin events.GameEvent) {
	ls.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		ActorID:   actorID,
		Payload:   payload,
		Tick:      origin.Tick,
		Depth:     origin.Depth,
	})
}
