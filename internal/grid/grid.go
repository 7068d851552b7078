// Package grid provides the deterministic world<->index mapping used by the
// spawn engine. A resolution r in [0, 30] selects a cell size of 2^r world
// units; vertices are the integer lattice points of that grid.
package grid

import "math"

// MaxResolution is the largest accepted grid resolution.
const MaxResolution = 30

// Point is an integer world or index coordinate.
type Point struct {
	X int
	Y int
}

// ClampResolution clamps r into [0, MaxResolution].
func ClampResolution(r int) int {
	if r < 0 {
		return 0
	}
	if r > MaxResolution {
		return MaxResolution
	}
	return r
}

// Delta returns the cell size 2^r for a clamped resolution.
func Delta(r int) int {
	return 1 << ClampResolution(r)
}

func delta64(r int) int64 {
	return int64(1) << ClampResolution(r)
}

// Coordinates saturate at int32 bounds instead of wrapping.
func clampToInt(v int64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

// roundDivNearest divides with nearest rounding, ties broken toward +inf.
func roundDivNearest(numerator, denominator int64) int {
	if denominator == 0 {
		return 0
	}
	ratio := float64(numerator) / float64(denominator)
	rounded := math.Floor(ratio + 0.5)
	if rounded > math.MaxInt32 {
		return math.MaxInt32
	}
	if rounded < math.MinInt32 {
		return math.MinInt32
	}
	return int(rounded)
}

// IndexToWorld maps grid index (i, j) at resolution r to a world point.
func IndexToWorld(i, j, r int, origin Point) Point {
	step := delta64(r)
	x := int64(i)*step + int64(origin.X)
	y := int64(j)*step + int64(origin.Y)
	return Point{X: clampToInt(x), Y: clampToInt(y)}
}

// WorldToIndex maps a world point to the index of its containing cell (floor).
func WorldToIndex(world Point, r int, origin Point) Point {
	step := float64(delta64(r))
	gx := math.Floor(float64(int64(world.X)-int64(origin.X)) / step)
	gy := math.Floor(float64(int64(world.Y)-int64(origin.Y)) / step)
	return Point{X: clampToInt(int64(gx)), Y: clampToInt(int64(gy))}
}

// SnapToVertex snaps a world point to the nearest grid vertex at resolution r.
func SnapToVertex(world Point, r int, origin Point) Point {
	step := delta64(r)
	dx := int64(world.X) - int64(origin.X)
	dy := int64(world.Y) - int64(origin.Y)
	return IndexToWorld(roundDivNearest(dx, step), roundDivNearest(dy, step), r, origin)
}

// ChangeResolution converts indices between resolutions. Going to a finer
// resolution multiplies; going coarser rounds to the nearest coarse index.
func ChangeResolution(indices Point, from, to int) Point {
	if from == to {
		return indices
	}
	diff := from - to
	if diff > 0 {
		factor := delta64(diff)
		return Point{
			X: clampToInt(int64(indices.X) * factor),
			Y: clampToInt(int64(indices.Y) * factor),
		}
	}
	divisor := delta64(-diff)
	return Point{
		X: roundDivNearest(int64(indices.X), divisor),
		Y: roundDivNearest(int64(indices.Y), divisor),
	}
}

// IsVertex reports whether a world point lies exactly on the grid at r.
func IsVertex(world Point, r int, origin Point) bool {
	step := Delta(r)
	dx := world.X - origin.X
	dy := world.Y - origin.Y
	return dx%step == 0 && dy%step == 0
}

// Grid binds an origin and a default resolution to the free functions.
// Sessions may construct private instances with alternate origins.
type Grid struct {
	origin            Point
	defaultResolution int
}

// New creates a Grid with the given origin and default resolution.
func New(origin Point, defaultResolution int) *Grid {
	return &Grid{
		origin:            origin,
		defaultResolution: ClampResolution(defaultResolution),
	}
}

// Origin returns the grid origin.
func (g *Grid) Origin() Point { return g.origin }

// SetOrigin moves the grid origin.
func (g *Grid) SetOrigin(origin Point) { g.origin = origin }

// DefaultResolution returns the bound default resolution.
func (g *Grid) DefaultResolution() int { return g.defaultResolution }

// SetDefaultResolution replaces the default resolution, clamped.
func (g *Grid) SetDefaultResolution(r int) { g.defaultResolution = ClampResolution(r) }

// IndexToWorld maps (i, j) at resolution r using the grid origin.
func (g *Grid) IndexToWorld(i, j, r int) Point {
	return IndexToWorld(i, j, r, g.origin)
}

// WorldToIndex maps a world point to its cell index using the grid origin.
func (g *Grid) WorldToIndex(world Point, r int) Point {
	return WorldToIndex(world, r, g.origin)
}

// SnapToVertex snaps a world point to the nearest vertex using the grid origin.
func (g *Grid) SnapToVertex(world Point, r int) Point {
	return SnapToVertex(world, r, g.origin)
}

// IsVertex reports whether the world point is a vertex of this grid at r.
func (g *Grid) IsVertex(world Point, r int) bool {
	return IsVertex(world, r, g.origin)
}

// ConvertResolution converts indices between resolutions.
func (g *Grid) ConvertResolution(indices Point, from, to int) Point {
	return ChangeResolution(indices, from, to)
}

var defaultGrid = New(Point{}, 0)

// Default returns the process-wide grid at origin (0, 0).
func Default() *Grid { return defaultGrid }
