package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// Director spices a run up with ambush fridge spawns at random intervals.
// It DOES NOT modify world state itself beyond asking the level system to
// spawn; pacing pressure scales with depth.
type Director struct {
	world        *World
	eventLog     *events.EventLog
	logger       *logger.Logger
	levels       *LevelSystem
	ambushChance float64 // Probability per tick (0.0 - 1.0)
	maxAmbush    int     // Live ambush headroom above the level's own fridges

	// Own roll stream; ambush pacing must not perturb level generation.
	rng *rand.Rand
}

// minAmbushDistance keeps ambushes from dropping a fridge on the player's head.
const minAmbushDistance = 25.0

// NewDirector creates a new pacing director.
func NewDirector(world *World, eventLog *events.EventLog, log *logger.Logger, levels *LevelSystem) *Director {
	return &Director{
		world:        world,
		eventLog:     eventLog,
		logger:       log,
		levels:       levels,
		ambushChance: 0.002, // Roughly one ambush per 25 seconds at 20 Hz
		maxAmbush:    3,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnRunStarted reseeds the director's roll stream. The offset keeps it
// distinct from the level generator's stream for the same run seed.
func (d *Director) OnRunStarted(payload RunStartedPayload) {
	d.rng = rand.New(rand.NewSource(payload.Seed + 1))
}

// OnTimeTick rolls for an ambush. Deeper levels roll hotter.
func (d *Director) OnTimeTick(payload TimeTickPayload) {
	if !d.world.Running() {
		return
	}
	lvl := d.world.Level
	p := d.world.Player
	if lvl == nil || lvl.Cleared || p == nil || !p.Alive() {
		return
	}
	if d.world.AliveFridges() >= d.levels.params.Enemies+d.maxAmbush {
		return
	}

	chance := d.ambushChance * (1 + 0.5*float64(lvl.Depth))
	if d.rng.Float64() >= chance {
		return
	}

	tick := events.GameEvent{Tick: payload.TickNumber, Depth: payload.Depth}
	d.Trigger("AMBUSH", tick)
}

// Trigger forces an ambush spawn immediately, skipping the pacing roll.
// Used by the admin API. Callers must hold the engine lock.
func (d *Director) Trigger(reason string, tick events.GameEvent) bool {
	lvl := d.world.Level
	p := d.world.Player
	if !d.world.Running() || lvl == nil || p == nil || !p.Alive() {
		return false
	}

	pos, ok := d.ambushPosition(lvl, p.Position)
	if !ok {
		return false
	}

	f := d.levels.SpawnFridge(pos, lvl.Depth, reason, tick)
	d.logger.Event("AMBUSH", "DIRECTOR", fmt.Sprintf("%s at depth %d", f.ID, lvl.Depth))
	return true
}

// ambushPosition picks an empty cell away from the player.
func (d *Director) ambushPosition(lvl *level.Level, playerPos geom.Vec3) (geom.Vec3, bool) {
	for attempt := 0; attempt < 8; attempt++ {
		x := 1 + d.rng.Intn(level.GridSize-2)
		y := 1 + d.rng.Intn(level.GridSize-2)
		if lvl.Grid.Cells[y][x] != level.CellEmpty {
			continue
		}
		pos := level.CellCenter(x, y, lvl.Translation)
		if pos.Sub(playerPos).Planar().Length() < minAmbushDistance {
			continue
		}
		return pos, true
	}
	return geom.Vec3{}, false
}
