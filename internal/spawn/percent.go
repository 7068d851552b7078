package spawn

import (
	"math"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// placePercent samples percentage offsets in [-100, 100] of the area's
// half-extent on each axis, relative to its center. Shares Random's 20x
// retry budget per slot; only the snapped vertex is marked occupied.
func placePercent(item *Item, area *geom.Area, ctx *Context) {
	if area == nil || item.Quantity <= 0 || !item.HasCandidates() {
		return
	}

	w := max(1, area.Width())
	h := max(1, area.Height())
	center := ctx.AreaCenter(area)

	desired := item.Quantity
	maxAttempts := max(1, desired*20)

	slotsUsed := 0
	for attempts := 0; slotsUsed < desired && attempts < maxAttempts; attempts++ {
		px := ctx.RNG().IntN(201) - 100
		py := ctx.RNG().IntN(201) - 100

		pos := grid.Point{
			X: center.X + int(math.Round(float64(px)/100.0*float64(w)/2.0)),
			Y: center.Y + int(math.Round(float64(py)/100.0*float64(h)/2.0)),
		}

		var snapped *grid.Vertex
		if occupancy := ctx.Occupancy(); occupancy != nil {
			if v := occupancy.NearestVertex(pos); v != nil {
				pos = v.World
				snapped = v
			}
		}

		if !ctx.PositionAllowed(area, pos) {
			continue
		}

		candidate := item.SelectCandidate(ctx.RNG())
		if candidate == nil || candidate.IsNull || candidate.Info == nil {
			slotsUsed++
			continue
		}

		enforceSpacing := item.CheckMinSpacing
		if ctx.ChecksEnabled() &&
			ctx.Checker().Check(candidate.Info, pos, ctx.ExclusionZones(), ctx.AllAssets(), true, enforceSpacing, false, false) {
			continue
		}

		result := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position)
		if result == nil {
			slotsUsed++
			continue
		}
		if ctx.ChecksEnabled() {
			ctx.Checker().RegisterAsset(result, enforceSpacing, ctx.TrackSpacingFor(result.Info, enforceSpacing))
		}
		if snapped != nil {
			ctx.Occupancy().SetOccupied(snapped, true)
		}
		slotsUsed++
	}
}
