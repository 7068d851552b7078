// Package geom holds the polygon areas the spawn engine places assets into,
// plus the room-relative scaling helpers that keep authored positions portable
// across rooms of different sizes.
package geom

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/vibble/engine/internal/grid"
)

// Area is a named integer polygon with a type tag. Geometry data (bounds,
// center, size) is recomputed after every mutation; areas are treated as
// immutable for the duration of a spawn session.
type Area struct {
	// Pos is the anchor of the area: horizontal center, bottom edge.
	Pos grid.Point

	points     []grid.Point
	name       string
	areaType   string
	centerX    int
	centerY    int
	areaSize   float64
	minX       int
	minY       int
	maxX       int
	maxY       int
	resolution int
}

// NewArea creates an empty area bound to a resolution.
func NewArea(name string, resolution int) *Area {
	return &Area{
		name:       name,
		areaType:   "other",
		resolution: grid.ClampResolution(resolution),
	}
}

// NewAreaFromPoints creates an area from a polygon, snapping the points to the
// resolution grid.
func NewAreaFromPoints(name string, pts []grid.Point, resolution int) *Area {
	a := NewArea(name, resolution)
	a.points = append(a.points, pts...)
	a.applyResolution()
	a.updateGeometry()
	if len(a.points) > 0 {
		a.Pos = grid.Point{X: (a.minX + a.maxX) / 2, Y: a.maxY}
	}
	return a
}

// Name returns the area name.
func (a *Area) Name() string { return a.name }

// SetName renames the area.
func (a *Area) SetName(name string) { a.name = name }

// Type returns the area type tag (room, trail, impassable, spawn, zone, ...).
func (a *Area) Type() string { return a.areaType }

// SetType sets the type tag, lowered.
func (a *Area) SetType(t string) { a.areaType = strings.ToLower(t) }

// Resolution returns the snap resolution of the polygon points.
func (a *Area) Resolution() int { return a.resolution }

// SetResolution re-snaps the polygon to a new resolution.
func (a *Area) SetResolution(r int) {
	a.resolution = grid.ClampResolution(r)
	if a.applyResolution() {
		a.updateGeometry()
	}
}

// Points returns the polygon vertices.
func (a *Area) Points() []grid.Point { return a.points }

// PointCount returns the number of polygon vertices.
func (a *Area) PointCount() int { return len(a.points) }

// Bounds returns the axis-aligned bounds of the polygon.
func (a *Area) Bounds() (minX, minY, maxX, maxY int) {
	return a.minX, a.minY, a.maxX, a.maxY
}

// Width returns the bounds width.
func (a *Area) Width() int { return a.maxX - a.minX }

// Height returns the bounds height.
func (a *Area) Height() int { return a.maxY - a.minY }

// Center returns the bounds center.
func (a *Area) Center() grid.Point { return grid.Point{X: a.centerX, Y: a.centerY} }

// Size returns the polygon area via the shoelace formula.
func (a *Area) Size() float64 { return a.areaSize }

// ContainsPoint tests point-in-polygon by ray casting. A single-point area
// contains only that point.
func (a *Area) ContainsPoint(pt grid.Point) bool {
	n := len(a.points)
	if n == 1 {
		return pt == a.points[0]
	}
	if n < 3 {
		return false
	}
	if pt.X < a.minX || pt.X > a.maxX || pt.Y < a.minY || pt.Y > a.maxY {
		return false
	}
	inside := false
	x, y := float64(pt.X), float64(pt.Y)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := float64(a.points[i].X), float64(a.points[i].Y)
		xj, yj := float64(a.points[j].X), float64(a.points[j].Y)
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi {
			inside = !inside
		}
	}
	return inside
}

// Intersects reports whether the bounds rectangles of two areas overlap.
func (a *Area) Intersects(other *Area) bool {
	return !(a.maxX < other.minX || other.maxX < a.minX ||
		a.maxY < other.minY || other.maxY < a.minY)
}

// ApplyOffset translates the polygon and anchor.
func (a *Area) ApplyOffset(dx, dy int) {
	for i := range a.points {
		a.points[i].X += dx
		a.points[i].Y += dy
	}
	a.Pos.X += dx
	a.Pos.Y += dy
	a.applyResolution()
	a.updateGeometry()
}

// Align translates the area so its anchor lands on target.
func (a *Area) Align(target grid.Point) {
	a.ApplyOffset(target.X-a.Pos.X, target.Y-a.Pos.Y)
}

// Contract moves every point inward by inset along both axes.
func (a *Area) Contract(inset int) {
	if inset <= 0 {
		return
	}
	for i := range a.points {
		if a.points[i].X > inset {
			a.points[i].X -= inset
		}
		if a.points[i].Y > inset {
			a.points[i].Y -= inset
		}
	}
	a.applyResolution()
	a.updateGeometry()
}

// UnionWith appends the other polygon's points to this one.
func (a *Area) UnionWith(other *Area) {
	a.points = append(a.points, other.points...)
	a.applyResolution()
	a.updateGeometry()
}

// Scale resizes the polygon about its center.
func (a *Area) Scale(factor float64) {
	if len(a.points) == 0 || factor <= 0 {
		return
	}
	px, py := a.centerX, a.centerY
	for i := range a.points {
		dx := float64(a.points[i].X - px)
		dy := float64(a.points[i].Y - py)
		a.points[i].X = px + int(math.Round(dx*factor))
		a.points[i].Y = py + int(math.Round(dy*factor))
	}
	a.applyResolution()
	a.updateGeometry()
	a.Pos = grid.Point{X: (a.minX + a.maxX) / 2, Y: a.maxY}
}

// FlipHorizontal mirrors the polygon about axisX, defaulting to the center.
func (a *Area) FlipHorizontal(axisX *int) {
	if len(a.points) == 0 {
		return
	}
	cx := a.centerX
	if axisX != nil {
		cx = *axisX
	}
	for i := range a.points {
		a.points[i].X = 2*cx - a.points[i].X
	}
	a.Pos.X = 2*cx - a.Pos.X
	a.applyResolution()
	a.updateGeometry()
}

// RandomPointWithin rejection-samples a point inside the polygon, falling
// back to (0, 0) after 100 attempts.
func (a *Area) RandomPointWithin(rng *rand.Rand) grid.Point {
	if len(a.points) == 1 {
		return a.points[0]
	}
	if len(a.points) == 0 {
		return grid.Point{}
	}
	for range 100 {
		p := grid.Point{
			X: a.minX + rng.IntN(a.maxX-a.minX+1),
			Y: a.minY + rng.IntN(a.maxY-a.minY+1),
		}
		if a.ContainsPoint(p) {
			return p
		}
	}
	return grid.Point{}
}

// Clone returns a deep copy of the area.
func (a *Area) Clone() *Area {
	dup := *a
	dup.points = append([]grid.Point(nil), a.points...)
	return &dup
}

func (a *Area) applyResolution() bool {
	changed := false
	for i := range a.points {
		snapped := grid.SnapToVertex(a.points[i], a.resolution, grid.Point{})
		if snapped != a.points[i] {
			a.points[i] = snapped
			changed = true
		}
	}
	snappedPos := grid.SnapToVertex(a.Pos, a.resolution, grid.Point{})
	if snappedPos != a.Pos {
		a.Pos = snappedPos
		changed = true
	}
	return changed
}

func (a *Area) updateGeometry() {
	if len(a.points) == 0 {
		a.centerX, a.centerY = 0, 0
		a.areaSize = 0
		a.minX, a.minY, a.maxX, a.maxY = 0, 0, 0, 0
		return
	}
	minX, maxX := a.points[0].X, a.points[0].X
	minY, maxY := a.points[0].Y, a.points[0].Y
	var twiceArea int64
	n := len(a.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := a.points[i].X, a.points[i].Y
		xj, yj := a.points[j].X, a.points[j].Y
		minX, maxX = min(minX, xi), max(maxX, xi)
		minY, maxY = min(minY, yi), max(maxY, yi)
		twiceArea += int64(xj)*int64(yi) - int64(xi)*int64(yj)
	}
	a.minX, a.minY, a.maxX, a.maxY = minX, minY, maxX, maxY
	a.centerX = (minX + maxX) / 2
	a.centerY = (minY + maxY) / 2
	a.areaSize = math.Abs(float64(twiceArea)) * 0.5
}
