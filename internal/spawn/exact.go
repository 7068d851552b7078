package spawn

import (
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// placeExact re-applies an authored offset to the current room dimensions
// and places at the resulting point, snapped to the nearest free occupancy
// vertex. Each of the item.Quantity attempts is final; there is no retry.
func placeExact(item *Item, area *geom.Area, ctx *Context) {
	if area == nil || !item.HasCandidates() || item.Quantity <= 0 {
		return
	}

	currW := max(1, area.Width())
	currH := max(1, area.Height())

	relative := geom.RelativePosition{
		Offset:         item.ExactOffset,
		OriginalWidth:  item.ExactOriginW,
		OriginalHeight: item.ExactOriginH,
	}
	target := relative.Resolve(ctx.AreaCenter(area), currW, currH)

	for attempt := 0; attempt < item.Quantity; attempt++ {
		candidate := item.SelectCandidate(ctx.RNG())
		if candidate == nil || candidate.IsNull || candidate.Info == nil {
			continue
		}

		pos := target
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

		enforceSpacing := item.CheckMinSpacing
		if ctx.ChecksEnabled() &&
			ctx.Checker().Check(candidate.Info, pos, ctx.ExclusionZones(), ctx.AllAssets(), false, enforceSpacing, false, false) {
			continue
		}

		result := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position)
		if result == nil {
			continue
		}
		if ctx.ChecksEnabled() {
			ctx.Checker().RegisterAsset(result, enforceSpacing, ctx.TrackSpacingFor(result.Info, enforceSpacing))
		}
		if snapped != nil {
			ctx.Occupancy().SetOccupied(snapped, true)
		}
	}
}
