package geom

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vibble/engine/internal/grid"
)

// Geometry names accepted by NewGeneratedArea.
const (
	GeometryCircle = "Circle"
	GeometrySquare = "Square"
	GeometryPoint  = "Point"
)

// NewGeneratedArea synthesizes a room or trail polygon. edgeSmoothness in
// [0, 100] controls how much the outline deviates from the ideal shape; 100
// is exact. Points are clamped to the map rectangle.
func NewGeneratedArea(name string, center grid.Point, w, h int, geometry string, edgeSmoothness, mapWidth, mapHeight, resolution int, rng *rand.Rand) (*Area, error) {
	if w <= 0 || h <= 0 || mapWidth <= 0 || mapHeight <= 0 {
		return nil, fmt.Errorf("area %q: invalid dimensions %dx%d in map %dx%d", name, w, h, mapWidth, mapHeight)
	}
	a := NewArea(name, resolution)
	switch geometry {
	case GeometryCircle:
		a.generateCircle(center, w/2, edgeSmoothness, mapWidth, mapHeight, rng)
	case GeometrySquare:
		a.generateSquare(center, w, h, edgeSmoothness, mapWidth, mapHeight, rng)
	case GeometryPoint:
		a.generatePoint(center, mapWidth, mapHeight)
	default:
		return nil, fmt.Errorf("area %q: unknown geometry %q", name, geometry)
	}
	a.updateGeometry()
	if len(a.points) > 0 {
		a.Pos = grid.Point{X: (a.minX + a.maxX) / 2, Y: a.maxY}
	}
	return a, nil
}

func (a *Area) generateCircle(center grid.Point, radius, edgeSmoothness, mapWidth, mapHeight int, rng *rand.Rand) {
	s := clampInt(edgeSmoothness, 0, 100)
	count := max(12, 6+s*2)
	maxDev := 0.20 * float64(100-s) / 100.0

	a.points = a.points[:0]
	for i := range count {
		theta := 2 * math.Pi * float64(i) / float64(count)
		rx := float64(radius) * (1 - maxDev + rng.Float64()*2*maxDev)
		ry := float64(radius) * (1 - maxDev + rng.Float64()*2*maxDev)
		x := float64(center.X) + rx*math.Cos(theta)
		y := float64(center.Y) + ry*math.Sin(theta)
		a.points = append(a.points, grid.Point{
			X: int(math.Round(clampFloat(x, 0, float64(mapWidth)))),
			Y: int(math.Round(clampFloat(y, 0, float64(mapHeight)))),
		})
	}
	a.applyResolution()
}

func (a *Area) generateSquare(center grid.Point, w, h, edgeSmoothness, mapWidth, mapHeight int, rng *rand.Rand) {
	s := clampInt(edgeSmoothness, 0, 100)
	maxDev := 0.25 * float64(100-s) / 100.0
	halfW, halfH := w/2, h/2

	corners := [4]grid.Point{
		{X: center.X - halfW, Y: center.Y - halfH},
		{X: center.X + halfW, Y: center.Y - halfH},
		{X: center.X + halfW, Y: center.Y + halfH},
		{X: center.X - halfW, Y: center.Y + halfH},
	}
	a.points = a.points[:0]
	for _, c := range corners {
		xoff := (rng.Float64()*2 - 1) * maxDev * float64(w)
		yoff := (rng.Float64()*2 - 1) * maxDev * float64(h)
		a.points = append(a.points, grid.Point{
			X: clampInt(int(math.Round(float64(c.X)+xoff)), 0, mapWidth),
			Y: clampInt(int(math.Round(float64(c.Y)+yoff)), 0, mapHeight),
		})
	}
	a.applyResolution()
}

func (a *Area) generatePoint(center grid.Point, mapWidth, mapHeight int) {
	a.points = a.points[:0]
	a.points = append(a.points, grid.Point{
		X: clampInt(center.X, 0, mapWidth),
		Y: clampInt(center.Y, 0, mapHeight),
	})
	a.applyResolution()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
