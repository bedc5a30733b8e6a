package engine

import (
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// EnemySystem drives the fridges: chase the player on sight, slam into them
// at close range, and launch volleys from a distance.
type EnemySystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
	spec     enemy.Spec
}

// NewEnemySystem creates a new fridge AI manager.
func NewEnemySystem(world *World, eventLog *events.EventLog, log *logger.Logger, spec enemy.Spec) *EnemySystem {
	return &EnemySystem{
		world:    world,
		eventLog: eventLog,
		logger:   log,
		spec:     spec,
	}
}

// OnTimeTick advances every living fridge by one fixed step.
func (es *EnemySystem) OnTimeTick(event events.GameEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	if !es.world.Running() {
		return
	}

	p := es.world.Player
	if p == nil || !p.Alive() {
		return
	}

	for _, f := range es.world.Fridges {
		if !f.Alive() {
			continue
		}
		es.step(f, p, payload.DT, event)
	}
}

func (es *EnemySystem) step(f *enemy.Fridge, p *player.Player, dt float64, tick events.GameEvent) {
	if f.ContactCooldown > 0 {
		f.ContactCooldown--
	}
	if f.VolleyCooldown > 0 {
		f.VolleyCooldown--
	}

	toPlayer := p.Position.Sub(f.Position).Planar()
	dist := toPlayer.Length()

	if dist > es.spec.AggroRange || !es.seesPlayer(f, p) {
		return
	}

	// Contact slam beats everything else at point-blank range.
	if dist <= es.spec.ColliderRadius+player.ColliderRadius+0.5 {
		if f.ContactCooldown <= 0 {
			es.emitDamage(f.ID, p.ID, es.spec.ContactDamage, "CONTACT", tick)
			f.ContactCooldown = int64(es.spec.ContactPeriod.Seconds() / TickDT)
		}
		return
	}

	if dist <= es.spec.VolleyRange && f.VolleyCooldown <= 0 {
		es.volley(f, toPlayer.Normalized())
		f.VolleyCooldown = int64(es.spec.VolleyPeriod.Seconds() / TickDT)
	}

	es.chase(f, toPlayer.Normalized(), dt)
}

// seesPlayer checks line of sight through the level geometry.
func (es *EnemySystem) seesPlayer(f *enemy.Fridge, p *player.Player) bool {
	_, blocked := es.world.Level.CastSegment(f.Position, p.Position)
	return !blocked
}

func (es *EnemySystem) chase(f *enemy.Fridge, dir geom.Vec3, dt float64) {
	pos := f.Position.Add(dir.Scale(es.spec.ChaseSpeed * dt))
	for i := 0; i < slideIterations; i++ {
		collided := false
		for _, box := range es.world.Level.NearbyObstacles(pos.X, pos.Y, es.spec.ColliderRadius) {
			if hit, ok := geom.CircleOverlap(pos.X, pos.Y, es.spec.ColliderRadius, box); ok {
				pos = pos.Add(hit.Normal.Scale(hit.Depth))
				collided = true
			}
		}
		if !collided {
			break
		}
	}
	f.Position = pos
}

func (es *EnemySystem) volley(f *enemy.Fridge, dir geom.Vec3) {
	origin := f.Position.Add(dir.Scale(es.spec.ColliderRadius + weapon.ProjectileRadius))
	proj := &Projectile{
		ID:       events.GenerateEventID(),
		Position: origin,
		Velocity: dir.Scale(es.spec.ProjectileSpeed),
		Radius:   weapon.ProjectileRadius,
		Damage:   es.spec.VolleyDamage,
		SourceID: f.ID,
		Filter:   geom.LayerPlayer,
		TTL:      ProjectileTTL,
	}
	es.world.Projectiles[proj.ID] = proj
}

func (es *EnemySystem) emitDamage(sourceID, targetID string, amount int, cause string, tick events.GameEvent) {
	es.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeDamageTaken,
		ActorID:   sourceID,
		TargetID:  targetID,
		Payload: DamagePayload{
			TargetID: targetID,
			SourceID: sourceID,
			Amount:   amount,
			Cause:    cause,
		},
		Tick:  tick.Tick,
		Depth: tick.Depth,
	})
}
