package spawn

import "github.com/vibble/engine/internal/geom"

// placeRandom scatters up to item.Quantity assets over free occupancy
// vertices. Each placement slot gets a 20x retry budget; a null candidate
// draw consumes the slot without producing anything.
func placeRandom(item *Item, area *geom.Area, ctx *Context) {
	if area == nil || !item.HasCandidates() || item.Quantity <= 0 {
		return
	}

	spawnArea := ctx.ClipArea()
	if spawnArea == nil {
		spawnArea = area
	}
	if spawnArea.PointCount() == 0 {
		return
	}

	occupancy := ctx.Occupancy()
	desired := item.Quantity
	maxAttempts := max(1, desired*20)

	slotsUsed := 0
	for attempts := 0; slotsUsed < desired && attempts < maxAttempts; attempts++ {
		if occupancy == nil {
			break
		}
		vertex := occupancy.RandomVertexInArea(spawnArea, ctx.RNG())
		if vertex == nil {
			break
		}
		pos := ctx.PointWithinArea(spawnArea)
		if !ctx.PositionAllowed(spawnArea, pos) {
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
		occupancy.SetOccupied(vertex, true)
		slotsUsed++
	}
}
