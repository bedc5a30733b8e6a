// Package geom contains the minimal planar geometry used by the simulation.
// The game world is a flat grid: entities move on the XY plane and Z only
// matters for presentation, so collision is circles and axis-aligned boxes.
// This package is PURE and must NOT import any infrastructure packages.
package geom

import "math"

// Layer is a collision group bitmask. An entity collides with another
// only when its filter contains the other entity's layer.
type Layer uint32

const (
	LayerLevel Layer = 1 << iota
	LayerPlayer
	LayerEnemy
	LayerProjectile
	LayerPickup
)

// Contains reports whether the filter includes the given layer.
func (f Layer) Contains(l Layer) bool {
	return f&l != 0
}

// Vec3 is a 3D vector. Z points up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) LengthSquared() float64 {
	return v.Dot(v)
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// Normalized returns the unit vector, or the zero vector when v is zero.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Planar drops the Z component. Movement and aiming happen on the XY plane.
func (v Vec3) Planar() Vec3 {
	return Vec3{v.X, v.Y, 0}
}

// PlanarRight returns the right-hand perpendicular of v on the XY plane.
// Matches forward.cross(Z-up) for a planar forward vector.
func (v Vec3) PlanarRight() Vec3 {
	return Vec3{v.Y, -v.X, 0}
}

// FromYaw builds a planar forward vector from a yaw angle in radians.
// Yaw 0 looks along +Y, positive yaw turns counterclockwise.
func FromYaw(yaw float64) Vec3 {
	return Vec3{-math.Sin(yaw), math.Cos(yaw), 0}
}

// AABB is an axis-aligned box on the XY plane.
type AABB struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewAABB builds a box from a center point and half extents.
func NewAABB(cx, cy, halfW, halfH float64) AABB {
	return AABB{MinX: cx - halfW, MinY: cy - halfH, MaxX: cx + halfW, MaxY: cy + halfH}
}

// ClosestPoint returns the point on or inside the box closest to (x, y).
func (b AABB) ClosestPoint(x, y float64) (float64, float64) {
	return clamp(x, b.MinX, b.MaxX), clamp(y, b.MinY, b.MaxY)
}

// Hit is the result of a collision test.
type Hit struct {
	// Normal points away from the obstacle surface.
	Normal Vec3
	// Depth is the penetration depth for overlap tests, or unused for casts.
	Depth float64
	// T is the fraction along the cast segment where the hit occurred.
	T float64
}

// CircleOverlap tests a circle of radius r at (cx, cy) against the box.
func CircleOverlap(cx, cy, r float64, b AABB) (Hit, bool) {
	px, py := b.ClosestPoint(cx, cy)
	dx, dy := cx-px, cy-py
	distSq := dx*dx + dy*dy
	if distSq >= r*r {
		return Hit{}, false
	}

	dist := math.Sqrt(distSq)
	if dist > 0 {
		return Hit{
			Normal: Vec3{dx / dist, dy / dist, 0},
			Depth:  r - dist,
		}, true
	}

	// Center is inside the box: push out along the thinnest axis.
	left := cx - b.MinX
	right := b.MaxX - cx
	down := cy - b.MinY
	up := b.MaxY - cy
	minPen := left
	normal := Vec3{-1, 0, 0}
	if right < minPen {
		minPen = right
		normal = Vec3{1, 0, 0}
	}
	if down < minPen {
		minPen = down
		normal = Vec3{0, -1, 0}
	}
	if up < minPen {
		minPen = up
		normal = Vec3{0, 1, 0}
	}
	return Hit{Normal: normal, Depth: minPen + r}, true
}

// SegmentCast intersects the segment from (x0, y0) to (x1, y1) with the box,
// using the slab method. The reported T is the entry fraction in [0, 1].
func SegmentCast(x0, y0, x1, y1 float64, b AABB) (Hit, bool) {
	dx, dy := x1-x0, y1-y0

	tMin, tMax := 0.0, 1.0
	normal := Vec3{}

	for axis := 0; axis < 2; axis++ {
		var origin, delta, lo, hi float64
		var axisNormal Vec3
		if axis == 0 {
			origin, delta, lo, hi = x0, dx, b.MinX, b.MaxX
		} else {
			origin, delta, lo, hi = y0, dy, b.MinY, b.MaxY
		}

		if delta == 0 {
			if origin < lo || origin > hi {
				return Hit{}, false
			}
			continue
		}

		inv := 1 / delta
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1.0
		}
		if t1 > tMin {
			tMin = t1
			if axis == 0 {
				axisNormal = Vec3{sign, 0, 0}
			} else {
				axisNormal = Vec3{0, sign, 0}
			}
			normal = axisNormal
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return Hit{}, false
		}
	}

	if normal == (Vec3{}) {
		// Segment starts inside the box.
		normal = Vec3{-dx, -dy, 0}.Normalized()
	}
	return Hit{Normal: normal, T: tMin}, true
}

// SlideAlong projects the movement vector onto the wall tangent so the mover
// keeps its speed component parallel to the obstacle.
func SlideAlong(movement, wallNormal Vec3) Vec3 {
	tangent := Vec3{-wallNormal.Y, wallNormal.X, 0}
	return tangent.Scale(tangent.Dot(movement))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
