package engine

import (
	"math"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/enemy"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
)

// ProjectileSystem steps every round in flight and resolves what it hits.
// Rounds travel fast relative to the tick rate, so each step is a segment
// cast rather than a point check.
type ProjectileSystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
	spec     enemy.Spec
}

// ProjectileHitPayload records an impact.
type ProjectileHitPayload struct {
	ProjectileID string    `json:"projectile_id"`
	TargetID     string    `json:"target_id,omitempty"` // Empty when a wall was hit
	Position     geom.Vec3 `json:"position"`
	Damage       int       `json:"damage"`
}

// NewProjectileSystem creates a new projectile manager.
func NewProjectileSystem(world *World, eventLog *events.EventLog, log *logger.Logger, spec enemy.Spec) *ProjectileSystem {
	return &ProjectileSystem{
		world:    world,
		eventLog: eventLog,
		logger:   log,
		spec:     spec,
	}
}

// OnTimeTick advances all projectiles by one fixed step.
func (ps *ProjectileSystem) OnTimeTick(event events.GameEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	if !ps.world.Running() {
		return
	}

	for id, proj := range ps.world.Projectiles {
		proj.TTL--
		if proj.TTL <= 0 {
			delete(ps.world.Projectiles, id)
			continue
		}

		from := proj.Position
		to := from.Add(proj.Velocity.Scale(payload.DT))

		wallHit, hitWall := ps.world.Level.CastSegment(from, to)
		travel := 1.0
		if hitWall {
			travel = wallHit.T
		}

		targetID, targetT, hitTarget := ps.castEntities(proj, from, to)
		if hitTarget && targetT <= travel {
			impact := from.Add(to.Sub(from).Scale(targetT))
			ps.emitHit(proj, targetID, impact, event)
			ps.emitDamage(proj, targetID, event)
			delete(ps.world.Projectiles, id)
			continue
		}

		if hitWall {
			impact := from.Add(to.Sub(from).Scale(wallHit.T))
			ps.emitHit(proj, "", impact, event)
			delete(ps.world.Projectiles, id)
			continue
		}

		proj.Position = to
	}

	metrics.Get().SetProjectilesLive(int64(len(ps.world.Projectiles)))
}

// castEntities finds the earliest entity the segment touches, respecting the
// projectile's layer filter so fridges never shoot each other.
func (ps *ProjectileSystem) castEntities(proj *Projectile, from, to geom.Vec3) (string, float64, bool) {
	bestID := ""
	bestT := 0.0
	found := false

	if proj.Filter.Contains(geom.LayerEnemy) {
		for id, f := range ps.world.Fridges {
			if !f.Alive() {
				continue
			}
			if t, ok := segmentCircle(from, to, f.Position, ps.spec.ColliderRadius+proj.Radius); ok {
				if !found || t < bestT {
					bestID, bestT, found = id, t, true
				}
			}
		}
	}

	if proj.Filter.Contains(geom.LayerPlayer) {
		p := ps.world.Player
		if p != nil && p.Alive() {
			if t, ok := segmentCircle(from, to, p.Position, player.ColliderRadius+proj.Radius); ok {
				if !found || t < bestT {
					bestID, bestT, found = p.ID, t, true
				}
			}
		}
	}

	return bestID, bestT, found
}

func (ps *ProjectileSystem) emitHit(proj *Projectile, targetID string, impact geom.Vec3, tick events.GameEvent) {
	ps.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeProjectileHit,
		ActorID:   proj.SourceID,
		TargetID:  targetID,
		Payload: ProjectileHitPayload{
			ProjectileID: proj.ID,
			TargetID:     targetID,
			Position:     impact,
			Damage:       proj.Damage,
		},
		Tick:  tick.Tick,
		Depth: tick.Depth,
	})
}

func (ps *ProjectileSystem) emitDamage(proj *Projectile, targetID string, tick events.GameEvent) {
	ps.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeDamageTaken,
		ActorID:   proj.SourceID,
		TargetID:  targetID,
		Payload: DamagePayload{
			TargetID: targetID,
			SourceID: proj.SourceID,
			Amount:   proj.Damage,
			Cause:    "PROJECTILE",
		},
		Tick:  tick.Tick,
		Depth: tick.Depth,
	})
}

// segmentCircle intersects the segment from->to with a circle around center.
// Returns the parametric t of the first contact.
func segmentCircle(from, to, center geom.Vec3, radius float64) (float64, bool) {
	d := to.Sub(from).Planar()
	f := from.Sub(center).Planar()

	a := d.Dot(d)
	if a == 0 {
		return 0, f.LengthSquared() <= radius*radius
	}
	b := 2 * f.Dot(d)
	c := f.Dot(f) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	sqrtDisc := math.Sqrt(disc)
	t := (-b - sqrtDisc) / (2 * a)
	if t < 0 {
		// Segment starts inside the circle.
		t = 0
		if c > 0 {
			return 0, false
		}
	}
	if t > 1 {
		return 0, false
	}
	return t, true
}
