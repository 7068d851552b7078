package asset

import "github.com/vibble/engine/internal/grid"

// SnappedPos returns the asset position snapped to the grid it was placed at.
// Spacing checks compare snapped positions so resolution changes between
// sessions do not perturb distance math.
func (a *Asset) SnappedPos() grid.Point {
	return grid.Default().SnapToVertex(a.Pos, a.spawnResolution)
}

// DistanceSq returns the squared distance from the asset's snapped position
// to a world point.
func (a *Asset) DistanceSq(p grid.Point) int64 {
	s := a.SnappedPos()
	dx := int64(s.X - p.X)
	dy := int64(s.Y - p.Y)
	return dx*dx + dy*dy
}

// InRange reports whether the asset's snapped position lies within radius of
// a world point.
func (a *Asset) InRange(p grid.Point, radius int) bool {
	r := int64(radius)
	return a.DistanceSq(p) <= r*r
}
