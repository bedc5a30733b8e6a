package engine

import (
	"time"

	"github.com/shadowcurse/fridges-must-die/server/internal/domain/weapon"
	"github.com/shadowcurse/fridges-must-die/server/internal/events"
	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
	"github.com/shadowcurse/fridges-must-die/server/internal/platform/logger"
)

// PickupSystem hands floating weapons to an empty-handed player walking
// over them.
type PickupSystem struct {
	world    *World
	eventLog *events.EventLog
	logger   *logger.Logger
}

// WeaponSpawnedPayload announces a floating weapon.
type WeaponSpawnedPayload struct {
	PickupID   string      `json:"pickup_id"`
	WeaponType weapon.Type `json:"weapon_type"`
	Position   geom.Vec3   `json:"position"`
	Depth      int         `json:"depth"`
}

// WeaponPickedUpPayload records a grab.
type WeaponPickedUpPayload struct {
	PlayerID   string      `json:"player_id"`
	PickupID   string      `json:"pickup_id"`
	WeaponType weapon.Type `json:"weapon_type"`
	Ammo       int         `json:"ammo"`
}

// NewPickupSystem creates a new pickup manager.
func NewPickupSystem(world *World, eventLog *events.EventLog, log *logger.Logger) *PickupSystem {
	return &PickupSystem{
		world:    world,
		eventLog: eventLog,
		logger:   log,
	}
}

// SpawnWeapon drops a floating weapon into the world and announces it.
func (ps *PickupSystem) SpawnWeapon(w *weapon.Weapon, position geom.Vec3, depth int, tick events.GameEvent) *Pickup {
	pickup := &Pickup{
		ID:       events.GenerateEventID(),
		Position: position,
		Weapon:   w,
		Depth:    depth,
	}
	ps.world.Pickups[pickup.ID] = pickup

	ps.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeWeaponSpawned,
		ActorID:   "SYSTEM_LEVEL",
		Payload: WeaponSpawnedPayload{
			PickupID:   pickup.ID,
			WeaponType: w.Type,
			Position:   position,
			Depth:      depth,
		},
		Tick:  tick.Tick,
		Depth: depth,
	})
	return pickup
}

// OnTimeTick grabs the nearest pickup in reach when the hands are free.
func (ps *PickupSystem) OnTimeTick(event events.GameEvent) {
	if !ps.world.Running() {
		return
	}
	p := ps.world.Player
	if p == nil || !p.Alive() || p.Held != nil {
		return
	}

	var best *Pickup
	bestDist := PickupRadius * PickupRadius
	for _, pickup := range ps.world.Pickups {
		d := pickup.Position.Sub(p.Position).Planar().LengthSquared()
		if d <= bestDist {
			best = pickup
			bestDist = d
		}
	}
	if best == nil {
		return
	}

	p.Held = best.Weapon
	delete(ps.world.Pickups, best.ID)

	ps.logger.Event("WEAPON_PICKED_UP", p.ID, string(best.Weapon.Type))
	ps.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeWeaponPickedUp,
		ActorID:   p.ID,
		Payload: WeaponPickedUpPayload{
			PlayerID:   p.ID,
			PickupID:   best.ID,
			WeaponType: best.Weapon.Type,
			Ammo:       best.Weapon.Ammo,
		},
		Tick:  event.Tick,
		Depth: event.Depth,
	})
}

// DropForDepth removes every pickup tied to the given depth. Called when a
// level is torn down behind the player.
func (ps *PickupSystem) DropForDepth(depth int) {
	for id, pickup := range ps.world.Pickups {
		if pickup.Depth == depth {
			delete(ps.world.Pickups, id)
		}
	}
}
