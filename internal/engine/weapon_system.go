package engine

import (
	"math"
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/player"
	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/metrics"
)

// WeaponSystem fires the held weapon while the trigger is down and turns
// thrown weapons into heavy projectiles.
type WeaponSystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
	specs    map[weapon.Type]weapon.Spec
}

// ShotFiredPayload describes one pull of the trigger.
type ShotFiredPayload struct {
	PlayerID   string      `json:"player_id"`
	WeaponType weapon.Type `json:"weapon_type"`
	Origin     geom.Vec3   `json:"origin"`
	Yaw        float64     `json:"yaw"`
	Pellets    int         `json:"pellets"`
	AmmoLeft   int         `json:"ammo_left"`
}

// ShellEjectedPayload is purely cosmetic; clients render the casings.
type ShellEjectedPayload struct {
	WeaponType weapon.Type `json:"weapon_type"`
	Position   geom.Vec3   `json:"position"`
	Count      int         `json:"count"`
}

// WeaponThrownPayload marks a held weapon leaving the player's hands.
type WeaponThrownPayload struct {
	PlayerID   string      `json:"player_id"`
	WeaponType weapon.Type `json:"weapon_type"`
}

// ProjectileTTL bounds bullet lifetime so misses do not accumulate.
const ProjectileTTL = int64(3 / TickDT)

// barrelSpacing is the sideways offset between barrels of multi-barrel guns.
const barrelSpacing = 0.5

// NewWeaponSystem creates a new weapon manager.
func NewWeaponSystem(world *World, eventLog *events.EventLog, log *logger.Logger, specs map[weapon.Type]weapon.Spec) *WeaponSystem {
	return &WeaponSystem{
		world:    world,
		eventLog: eventLog,
		logger:   log,
		specs:    specs,
	}
}

// OnTimeTick cools the held weapon down and fires while the trigger is held.
func (ws *WeaponSystem) OnTimeTick(event events.GameEvent) {
	if !ws.world.Running() {
		return
	}
	p := ws.world.Player
	if p == nil || !p.Alive() || p.Held == nil {
		return
	}

	if p.Held.Cooldown > 0 {
		p.Held.Cooldown--
	}

	if p.Input.Fire && p.Held.Ready() {
		ws.fire(p, event)
	}
}

// OnWeaponThrown launches the held weapon as a heavy projectile.
func (ws *WeaponSystem) OnWeaponThrown(event events.GameEvent) {
	payload, ok := event.Payload.(WeaponThrownPayload)
	if !ok {
		ws.logger.Error("Failed to parse WeaponThrownPayload")
		return
	}
	if !ws.world.Running() {
		return
	}

	p := ws.world.Player
	if p == nil || p.ID != payload.PlayerID || p.Held == nil {
		return
	}

	forward := geom.FromYaw(p.Yaw)
	origin := p.Position.Add(forward.Scale(weapon.ThrowLaunchOffset))
	ws.spawnProjectile(origin, forward.Scale(weapon.ThrowSpeed), 1.0, weapon.ThrowDamage, p.ID)

	ws.logger.Event("WEAPON_THROWN", p.ID, string(p.Held.Type))
	p.Held = nil
}

// fire spawns the pellets of a single shot and the matching cosmetic shells.
func (ws *WeaponSystem) fire(p *player.Player, tick events.GameEvent) {
	spec := ws.specs[p.Held.Type]
	forward := geom.FromYaw(p.Yaw)
	right := forward.PlanarRight()
	muzzle := p.Position.Add(forward.Scale(spec.MuzzleOffset))

	pellets := 0
	for barrel := 0; barrel < spec.Barrels; barrel++ {
		// Barrels sit symmetrically around the aim axis.
		side := float64(barrel) - float64(spec.Barrels-1)/2
		origin := muzzle.Add(right.Scale(side * barrelSpacing))

		for i := 0; i < spec.PelletsPerBarrel; i++ {
			yaw := p.Yaw + pelletSpread(spec.SpreadRad, i, spec.PelletsPerBarrel)
			dir := geom.FromYaw(yaw)
			ws.spawnProjectile(origin, dir.Scale(spec.ProjectileSpeed), weapon.ProjectileRadius, spec.Damage, p.ID)
			pellets++
		}
	}

	p.Held.Ammo--
	p.Held.Cooldown = periodTicks(spec.AttackPeriod)
	metrics.Get().RecordShot()

	ws.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeShotFired,
		ActorID:   p.ID,
		Payload: ShotFiredPayload{
			PlayerID:   p.ID,
			WeaponType: p.Held.Type,
			Origin:     muzzle,
			Yaw:        p.Yaw,
			Pellets:    pellets,
			AmmoLeft:   p.Held.Ammo,
		},
		Tick:  tick.Tick,
		Depth: tick.Depth,
	})

	if spec.ShellsPerShot > 0 {
		ws.eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeShellEjected,
			ActorID:   p.ID,
			Payload: ShellEjectedPayload{
				WeaponType: p.Held.Type,
				Position:   p.Position,
				Count:      spec.ShellsPerShot,
			},
			Tick:  tick.Tick,
			Depth: tick.Depth,
		})
	}

	if p.Held.Ammo <= 0 {
		ws.logger.Event("CLIP_EMPTY", p.ID, string(p.Held.Type))
	}
}

func (ws *WeaponSystem) spawnProjectile(origin, velocity geom.Vec3, radius float64, damage int, sourceID string) {
	proj := &Projectile{
		ID:       events.GenerateEventID(),
		Position: origin,
		Velocity: velocity,
		Radius:   radius,
		Damage:   damage,
		SourceID: sourceID,
		Filter:   geom.LayerEnemy,
		TTL:      ProjectileTTL,
	}
	ws.world.Projectiles[proj.ID] = proj
}

// pelletSpread fans n pellets evenly across [-spread, +spread].
func pelletSpread(spread float64, i, n int) float64 {
	if n <= 1 || spread == 0 {
		return 0
	}
	return -spread + 2*spread*float64(i)/float64(n-1)
}

func periodTicks(period time.Duration) int64 {
	ticks := int64(math.Round(period.Seconds() / TickDT))
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}
