package spawn

import (
	"math"
	"math/rand/v2"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

type polygonEdge struct {
	startX, startY float64
	deltaX, deltaY float64
	length         float64
}

func buildEdges(area *geom.Area) ([]polygonEdge, float64) {
	pts := area.Points()
	if len(pts) < 2 {
		return nil, 0
	}
	edges := make([]polygonEdge, 0, len(pts))
	total := 0.0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		dx := float64(b.X - a.X)
		dy := float64(b.Y - a.Y)
		length := math.Hypot(dx, dy)
		if length <= 1e-6 {
			continue
		}
		edges = append(edges, polygonEdge{
			startX: float64(a.X), startY: float64(a.Y),
			deltaX: dx, deltaY: dy,
			length: length,
		})
		total += length
	}
	return edges, total
}

func pointAlongEdges(edges []polygonEdge, perimeter, distance float64) (float64, float64, bool) {
	if len(edges) == 0 || perimeter <= 0 {
		return 0, 0, false
	}
	wrapped := math.Mod(distance, perimeter)
	if wrapped < 0 {
		wrapped += perimeter
	}
	for _, e := range edges {
		if e.length <= 0 {
			continue
		}
		if wrapped <= e.length || math.Abs(wrapped-e.length) < 1e-6 {
			t := math.Min(math.Max(wrapped/e.length, 0), 1)
			return e.startX + e.deltaX*t, e.startY + e.deltaY*t, true
		}
		wrapped -= e.length
	}
	last := edges[len(edges)-1]
	return last.startX + last.deltaX, last.startY + last.deltaY, true
}

// applyInset rescales an edge point radially about the center. Values above
// 100 outset past the polygon boundary; authors use that for halo rings.
func applyInset(center grid.Point, edgeX, edgeY float64, insetPercent int) grid.Point {
	scale := math.Min(math.Max(float64(insetPercent)/100.0, 0), 2)
	vx := edgeX - float64(center.X)
	vy := edgeY - float64(center.Y)
	return grid.Point{
		X: center.X + int(math.Round(vx*scale)),
		Y: center.Y + int(math.Round(vy*scale)),
	}
}

// planEdgePositions walks the polygon perimeter at equal arc-length steps
// from a random start offset, insets each boundary point, snaps it to the
// session grid, and drops anything overlapping a trail.
func planEdgePositions(item *Item, area *geom.Area, g *grid.Grid, resolution int, center grid.Point, rng *rand.Rand, overlapsTrail func(grid.Point) bool) []grid.Point {
	if item.Quantity <= 0 {
		return nil
	}
	edges, perimeter := buildEdges(area)
	if len(edges) == 0 || perimeter <= 0 {
		return nil
	}

	step := perimeter / float64(item.Quantity)
	startOffset := 0.0
	if step > 0 {
		startOffset = rng.Float64() * step
	}

	results := make([]grid.Point, 0, item.Quantity)
	for i := 0; i < item.Quantity; i++ {
		distance := startOffset + step*float64(i)
		ex, ey, ok := pointAlongEdges(edges, perimeter, distance)
		if !ok {
			continue
		}
		pos := applyInset(center, ex, ey, item.EdgeInsetPercent)
		if resolution > 0 {
			pos = g.SnapToVertex(pos, resolution)
		}
		if overlapsTrail != nil && overlapsTrail(pos) {
			continue
		}
		results = append(results, pos)
	}
	return results
}

// placeEdge distributes assets along the area's boundary. Edge assets are
// exempt from spacing registration; the boundary itself provides separation.
func placeEdge(item *Item, area *geom.Area, ctx *Context) {
	target := ctx.ClipArea()
	if target == nil {
		target = area
	}
	if target == nil || !item.HasCandidates() || item.Quantity <= 0 {
		return
	}

	positions := planEdgePositions(item, target, ctx.Grid(), ctx.SpawnResolution(), ctx.AreaCenter(target), ctx.RNG(), func(pt grid.Point) bool {
		return ctx.PointOverlapsTrail(pt, target)
	})

	for _, pos := range positions {
		candidate := item.SelectCandidate(ctx.RNG())
		if candidate == nil || candidate.IsNull || candidate.Info == nil {
			continue
		}

		if !ctx.PositionAllowed(target, pos) {
			continue
		}

		enforceSpacing := item.CheckMinSpacing
		if ctx.ChecksEnabled() &&
			ctx.Checker().Check(candidate.Info, pos, ctx.ExclusionZones(), ctx.AllAssets(), false, enforceSpacing, true, false) {
			continue
		}

		if spawned := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position); spawned != nil && ctx.ChecksEnabled() {
			ctx.Checker().RegisterAsset(spawned, enforceSpacing, false)
		}
	}
}
