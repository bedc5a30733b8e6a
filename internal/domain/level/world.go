package level

import (
	"math"

	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

// Level is a placed arena: a generated grid at a world translation.
type Level struct {
	Grid        *Grid
	Translation geom.Vec3
	Depth       int
	Cleared     bool
}

// Place positions a generated grid in the world.
func Place(grid *Grid, translation geom.Vec3, depth int) *Level {
	return &Level{Grid: grid, Translation: translation, Depth: depth}
}

// solid reports whether a cell blocks movement and projectiles.
func (l *Level) solid(x, y int) bool {
	switch l.Grid.Cells[y][x] {
	case CellColumn:
		return true
	case CellDoor:
		d := l.doorInCell(x, y)
		return d == nil || d.State == DoorLocked
	default:
		return false
	}
}

func (l *Level) doorInCell(x, y int) *Door {
	for _, d := range l.Grid.Doors {
		dx, dy := d.GridCell()
		if dx == x && dy == y {
			return d
		}
	}
	return nil
}

// cellIndex maps a world position to grid coordinates. The second return is
// false outside the grid.
func (l *Level) cellIndex(wx, wy float64) (int, int, bool) {
	x := int(math.Floor((wx - l.Translation.X + Size/2) / ColumnSize))
	y := int(math.Floor((l.Translation.Y + Size/2 - wy) / ColumnSize))
	if x < 0 || GridSize <= x || y < 0 || GridSize <= y {
		return 0, 0, false
	}
	return x, y, true
}

// cellAABB returns the world-space box of a grid cell.
func (l *Level) cellAABB(x, y int) geom.AABB {
	c := CellCenter(x, y, l.Translation)
	return geom.NewAABB(c.X, c.Y, ColumnSize/2, ColumnSize/2)
}

// NearbyObstacles returns the boxes of solid cells within radius of a point.
// Used for circle collision; the 3x3-or-wider cell neighborhood is enough
// for any collider the game uses.
func (l *Level) NearbyObstacles(wx, wy, radius float64) []geom.AABB {
	span := int(math.Ceil(radius/ColumnSize)) + 1
	cx, cy, ok := l.cellIndex(wx, wy)
	if !ok {
		return nil
	}

	var boxes []geom.AABB
	for y := cy - span; y <= cy+span; y++ {
		for x := cx - span; x <= cx+span; x++ {
			if x < 0 || GridSize <= x || y < 0 || GridSize <= y {
				continue
			}
			if l.solid(x, y) {
				boxes = append(boxes, l.cellAABB(x, y))
			}
		}
	}
	return boxes
}

// CastSegment finds the first solid cell hit along a segment. Returns the
// hit and true, or false when the path is clear.
func (l *Level) CastSegment(from, to geom.Vec3) (geom.Hit, bool) {
	// Walk the cells overlapped by the segment's bounding box. Projectile
	// steps are short, so the box stays small.
	minX := math.Min(from.X, to.X) - ColumnSize
	maxX := math.Max(from.X, to.X) + ColumnSize
	minY := math.Min(from.Y, to.Y) - ColumnSize
	maxY := math.Max(from.Y, to.Y) + ColumnSize

	best := geom.Hit{T: math.MaxFloat64}
	found := false
	for wy := minY; wy <= maxY; wy += ColumnSize {
		for wx := minX; wx <= maxX; wx += ColumnSize {
			x, y, ok := l.cellIndex(wx, wy)
			if !ok || !l.solid(x, y) {
				continue
			}
			hit, ok := geom.SegmentCast(from.X, from.Y, to.X, to.Y, l.cellAABB(x, y))
			if ok && hit.T < best.T {
				best = hit
				found = true
			}
		}
	}
	return best, found
}

// DoorEntered returns the open door whose cell contains the given position,
// or nil. Walking into an open door triggers the level switch.
func (l *Level) DoorEntered(wx, wy, radius float64) *Door {
	for _, d := range l.Grid.Doors {
		if d.State == DoorLocked {
			continue
		}
		gx, gy := d.GridCell()
		box := l.cellAABB(gx, gy)
		if _, overlap := geom.CircleOverlap(wx, wy, radius, box); overlap {
			return d
		}
	}
	return nil
}

// OpenDoors unlocks every locked door. Called when the level is cleared.
// Returns the doors whose state changed.
func (l *Level) OpenDoors() []*Door {
	var changed []*Door
	for _, d := range l.Grid.Doors {
		if d.State == DoorLocked {
			d.State = DoorOpen
			changed = append(changed, d)
		}
	}
	return changed
}

// CloseEntryDoor locks the temporarily open entry door, if any.
// Returns the door when a state change happened.
func (l *Level) CloseEntryDoor() *Door {
	for _, d := range l.Grid.Doors {
		if d.State == DoorTemporaryOpen {
			d.State = DoorLocked
			return d
		}
	}
	return nil
}

// Spawns lists the world positions of a marker cell type.
func (l *Level) Spawns(cell CellType) []geom.Vec3 {
	var out []geom.Vec3
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if l.Grid.Cells[y][x] == cell {
				out = append(out, CellCenter(x, y, l.Translation))
			}
		}
	}
	return out
}

// PlayerSpawn returns the player spawn position, or the level center when
// the grid carries no player marker (levels after the first).
func (l *Level) PlayerSpawn() geom.Vec3 {
	spawns := l.Spawns(CellPlayer)
	if len(spawns) > 0 {
		return spawns[0]
	}
	return l.Translation.Add(geom.Vec3{Z: ColumnHeight / 2})
}

// EntrySpawn returns where the player appears when arriving through a door:
// one cell inward from the entry door.
func (l *Level) EntrySpawn(entry *Door) geom.Vec3 {
	gx, gy := entry.GridCell()
	switch entry.Side {
	case DoorTop:
		gy++
	case DoorBottom:
		gy--
	case DoorLeft:
		gx++
	default:
		gx--
	}
	return CellCenter(gx, gy, l.Translation)
}
