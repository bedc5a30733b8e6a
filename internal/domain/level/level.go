// Package level defines the domain entities for procedurally generated
// arenas: the cell grid, doors, and spawn placement.
// This package is PURE and must NOT import any infrastructure packages.
package level

import (
	"math/rand"

	"github.com/shadowcurse/fridges-must-die/server/internal/geom"
)

// Level geometry constants.
const (
	Size          = 200.0
	ColumnSize    = 5.0
	ColumnHeight  = 10.0
	DoorThickness = 2.0
	GridSize      = int(Size / ColumnSize)
	FillAmount    = 0.02
	StripLength   = 3
)

// CellType describes what occupies a grid cell.
type CellType uint8

const (
	CellEmpty CellType = iota
	CellColumn
	CellDoor
	CellWeapon
	CellEnemy
	CellPlayer
)

// DoorSide identifies which wall a door sits in.
type DoorSide string

const (
	DoorTop    DoorSide = "TOP"
	DoorBottom DoorSide = "BOTTOM"
	DoorLeft   DoorSide = "LEFT"
	DoorRight  DoorSide = "RIGHT"
)

// Mirror returns the opposite wall. The exit door of one level becomes the
// entry door of the next.
func (s DoorSide) Mirror() DoorSide {
	switch s {
	case DoorTop:
		return DoorBottom
	case DoorBottom:
		return DoorTop
	case DoorLeft:
		return DoorRight
	default:
		return DoorLeft
	}
}

// Offset returns the world-space translation from a level to its neighbor
// beyond this door.
func (s DoorSide) Offset() geom.Vec3 {
	switch s {
	case DoorTop:
		return geom.Vec3{X: 0, Y: Size, Z: 0}
	case DoorBottom:
		return geom.Vec3{X: 0, Y: -Size, Z: 0}
	case DoorLeft:
		return geom.Vec3{X: -Size, Y: 0, Z: 0}
	default:
		return geom.Vec3{X: Size, Y: 0, Z: 0}
	}
}

// DoorState is the door lock state.
type DoorState string

const (
	// DoorLocked doors open only once the level is cleared.
	DoorLocked DoorState = "LOCKED"
	// DoorOpen doors let the player through to the next level.
	DoorOpen DoorState = "OPEN"
	// DoorTemporaryOpen marks the entry door; it closes once the player
	// is inside and the previous level is torn down.
	DoorTemporaryOpen DoorState = "TEMPORARY_OPEN"
)

// Door is a passage in the arena border.
type Door struct {
	Side    DoorSide  `json:"side"`
	State   DoorState `json:"state"`
	GridPos int       `json:"grid_pos"`
}

// Params controls level content density.
type Params struct {
	WeaponSpawns int
	Enemies      int
}

// DefaultParams matches the reference balance.
func DefaultParams() Params {
	return Params{WeaponSpawns: 4, Enemies: 1}
}

// Grid is the generated cell layout of one arena. Row order, y down.
type Grid struct {
	Cells [GridSize][GridSize]CellType
	Doors map[DoorSide]*Door
}

// Generate builds a new arena layout. When prevDoor is non-nil the door on
// the mirrored wall reuses its grid position and starts temporarily open so
// the player walks straight in; otherwise the player spawns below the top
// door (first level of a run).
func Generate(rng *rand.Rand, prevDoor *Door, params Params) *Grid {
	g := &Grid{Doors: make(map[DoorSide]*Door, 4)}

	// Border columns
	for i := 0; i < GridSize; i++ {
		g.Cells[0][i] = CellColumn
		g.Cells[GridSize-1][i] = CellColumn
		g.Cells[i][0] = CellColumn
		g.Cells[i][GridSize-1] = CellColumn
	}

	// One door per wall at a random interior position, locked by default.
	doorPos := map[DoorSide]int{
		DoorTop:    randInterior(rng),
		DoorBottom: randInterior(rng),
		DoorLeft:   randInterior(rng),
		DoorRight:  randInterior(rng),
	}
	doorState := map[DoorSide]DoorState{
		DoorTop: DoorLocked, DoorBottom: DoorLocked,
		DoorLeft: DoorLocked, DoorRight: DoorLocked,
	}

	if prevDoor != nil {
		entry := prevDoor.Side.Mirror()
		doorPos[entry] = prevDoor.GridPos
		doorState[entry] = DoorTemporaryOpen
	} else {
		g.Cells[1][doorPos[DoorTop]] = CellPlayer
	}

	for side, pos := range doorPos {
		door := &Door{Side: side, State: doorState[side], GridPos: pos}
		g.Doors[side] = door
		gx, gy := door.GridCell()
		g.Cells[gy][gx] = CellDoor
	}

	// Wall strips: random walks of columns through the interior.
	fillCells := int(float64(GridSize) * float64(GridSize) * FillAmount)
	numStrips := fillCells / StripLength
	for s := 0; s < numStrips; s++ {
		x := randInterior(rng)
		y := randInterior(rng)
		g.Cells[y][x] = CellColumn

		for step := 0; step < StripLength; step++ {
			type offset struct{ dx, dy int }
			var valid []offset
			for _, o := range []offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+o.dx, y+o.dy
				if nx < 2 || GridSize-2 <= nx || ny < 2 || GridSize-2 <= ny {
					continue
				}
				valid = append(valid, o)
			}
			if len(valid) == 0 {
				break
			}
			o := valid[rng.Intn(len(valid))]
			x, y = x+o.dx, y+o.dy
			g.Cells[y][x] = CellColumn
		}
	}

	// Remove trapped pockets the strips may have enclosed.
	for y := 2; y < GridSize-2; y++ {
		for x := 2; x < GridSize-2; x++ {
			if g.Cells[y][x] == CellEmpty &&
				g.Cells[y-1][x] == CellColumn &&
				g.Cells[y+1][x] == CellColumn &&
				g.Cells[y][x+1] == CellColumn &&
				g.Cells[y][x-1] == CellColumn {
				g.Cells[y][x] = CellColumn
			}
		}
	}

	g.placeRandom(rng, CellWeapon, params.WeaponSpawns)
	g.placeRandom(rng, CellEnemy, params.Enemies)

	return g
}

// Tutorial rewrites the grid into the boxed starting room: all content is
// cleared, the player is moved three cells back and walled in.
func (g *Grid) Tutorial() {
	px, py := 0, 0
	for y := 1; y < GridSize-1; y++ {
		for x := 1; x < GridSize-1; x++ {
			if g.Cells[y][x] == CellPlayer {
				px, py = x, y
			} else {
				g.Cells[y][x] = CellEmpty
			}
		}
	}

	g.Cells[py][px] = CellEmpty
	py += 3
	g.Cells[py][px] = CellPlayer

	for y := 0; y < GridSize; y++ {
		g.Cells[y][px-2] = CellColumn
		g.Cells[y][px+2] = CellColumn
	}
	for x := 0; x < GridSize; x++ {
		g.Cells[py+2][x] = CellColumn
	}
}

// placeRandom drops n markers of the given type on random empty cells.
func (g *Grid) placeRandom(rng *rand.Rand, cell CellType, n int) {
	for i := 0; i < n; i++ {
		x := randInterior(rng)
		y := randInterior(rng)
		for g.Cells[y][x] != CellEmpty {
			x = randInterior(rng)
			y = randInterior(rng)
		}
		g.Cells[y][x] = cell
	}
}

func randInterior(rng *rand.Rand) int {
	return 2 + rng.Intn(GridSize-4)
}

// GridCell returns the grid coordinates of the door's cell.
func (d *Door) GridCell() (x, y int) {
	switch d.Side {
	case DoorTop:
		return d.GridPos, 0
	case DoorBottom:
		return d.GridPos, GridSize - 1
	case DoorLeft:
		return 0, d.GridPos
	default:
		return GridSize - 1, d.GridPos
	}
}

// CellCenter maps grid coordinates to a world position given the level's
// translation. The grid is centered on the translation; +y rows go down.
func CellCenter(x, y int, translation geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: -Size/2 + ColumnSize*float64(x) + ColumnSize/2,
		Y: Size/2 - ColumnSize*float64(y) - ColumnSize/2,
		Z: ColumnHeight / 2,
	}.Add(translation)
}
