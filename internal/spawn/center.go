package spawn

import "github.com/vibble/engine/internal/geom"

// placeCenter stacks placements on the area's center, snapped once to the
// nearest occupancy vertex. The vertex is never marked occupied so multiple
// items can share the center.
func placeCenter(item *Item, area *geom.Area, ctx *Context) {
	if area == nil || !item.HasCandidates() || item.Quantity <= 0 {
		return
	}

	center := ctx.AreaCenter(area)
	if occupancy := ctx.Occupancy(); occupancy != nil {
		if v := occupancy.NearestVertex(center); v != nil {
			center = v.World
		}
	}

	for attempt := 0; attempt < item.Quantity; attempt++ {
		candidate := item.SelectCandidate(ctx.RNG())
		if candidate == nil || candidate.IsNull || candidate.Info == nil {
			continue
		}

		if !ctx.PositionAllowed(area, center) {
			continue
		}

		enforceSpacing := item.CheckMinSpacing
		if ctx.ChecksEnabled() &&
			ctx.Checker().Check(candidate.Info, center, ctx.ExclusionZones(), ctx.AllAssets(), false, enforceSpacing, false, false) {
			continue
		}

		if spawned := ctx.SpawnAsset(candidate.Info, center, 0, nil, item.SpawnID, item.Position); spawned != nil && ctx.ChecksEnabled() {
			ctx.Checker().RegisterAsset(spawned, enforceSpacing, ctx.TrackSpacingFor(spawned.Info, enforceSpacing))
		}
	}
}
