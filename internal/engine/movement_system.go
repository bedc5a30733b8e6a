package engine

import (
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/level"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// MovementSystem integrates player velocity and resolves collisions against
// the level columns and closed doors.
type MovementSystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
}

// PlayerInputPayload carries the control state reported by a client.
type PlayerInputPayload struct {
	PlayerID string  `json:"player_id"`
	Forward  int     `json:"forward"` // -1, 0, 1
	Right    int     `json:"right"`   // -1, 0, 1
	Yaw      float64 `json:"yaw"`
	Fire     bool    `json:"fire"`
}

const slideIterations = 4

// NewMovementSystem creates a new movement manager.
func NewMovementSystem(world *World, eventLog *events.EventLog, log *logger.Logger) *MovementSystem {
	return &MovementSystem{
		world:    world,
		eventLog: eventLog,
		logger:   log,
	}
}

// OnPlayerInput stores the latest control state on the player.
// The actual integration happens on the next tick.
func (ms *MovementSystem) OnPlayerInput(event events.GameEvent) {
	payload, ok := event.Payload.(PlayerInputPayload)
	if !ok {
		ms.logger.Error("Failed to parse PlayerInputPayload")
		return
	}

	p := ms.world.Player
	if p == nil || p.ID != payload.PlayerID {
		return
	}

	p.Input = player.Input{
		Forward: payload.Forward,
		Right:   payload.Right,
		Yaw:     payload.Yaw,
		Fire:    payload.Fire,
	}
	p.Yaw = payload.Yaw
}

// OnTimeTick advances the player by one fixed step.
func (ms *MovementSystem) OnTimeTick(event events.GameEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	if !ms.world.Running() {
		return
	}

	p := ms.world.Player
	if p == nil || !p.Alive() {
		return
	}

	dt := payload.DT

	if p.Input.Active() {
		forward := geom.FromYaw(p.Input.Yaw)
		right := forward.PlanarRight()
		dir := forward.Scale(float64(p.Input.Forward)).Add(right.Scale(float64(p.Input.Right))).Normalized()
		p.Velocity = dir.Scale(player.MaxSpeed)
	} else {
		// Damp towards standstill when no keys are held.
		p.Velocity = p.Velocity.Sub(p.Velocity.Scale(player.SlowDownRate * dt))
		if p.Velocity.LengthSquared() < 0.01 {
			p.Velocity = geom.Vec3{}
		}
	}

	if p.Velocity.LengthSquared() == 0 {
		return
	}

	pos := p.Position.Add(p.Velocity.Scale(dt))
	for i := 0; i < slideIterations; i++ {
		hit, collided := ms.firstOverlap(pos)
		if !collided {
			break
		}
		pos = pos.Add(hit.Normal.Scale(hit.Depth))
		p.Velocity = geom.SlideAlong(p.Velocity, hit.Normal)
	}
	p.Position = pos
}

// firstOverlap checks the player circle against the active level and, during
// a door handover, against the previous one too.
func (ms *MovementSystem) firstOverlap(pos geom.Vec3) (geom.Hit, bool) {
	for _, lvl := range ms.levels() {
		for _, box := range lvl.NearbyObstacles(pos.X, pos.Y, player.ColliderRadius) {
			if hit, ok := geom.CircleOverlap(pos.X, pos.Y, player.ColliderRadius, box); ok {
				return hit, true
			}
		}
	}
	return geom.Hit{}, false
}

func (ms *MovementSystem) levels() []*level.Level {
	levels := []*level.Level{ms.world.Level}
	if ms.world.PrevLevel != nil {
		levels = append(levels, ms.world.PrevLevel)
	}
	return levels
}
