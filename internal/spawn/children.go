package spawn

import "github.com/vibble/engine/internal/geom"

// placeChildren fills a zone asset's sub-area with uniform random points.
// Children get a generous 50x retry budget per slot and never test
// exclusion zones; the parent already passed those.
func placeChildren(item *Item, area *geom.Area, ctx *Context) {
	if area == nil || !item.HasCandidates() {
		return
	}
	quantity := item.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	maxAttempts := quantity * 50
	slotsUsed := 0
	for attempts := 0; slotsUsed < quantity && attempts < maxAttempts; attempts++ {
		pos := ctx.PointWithinArea(area)
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
			ctx.Checker().Check(candidate.Info, pos, nil, ctx.AllAssets(), false, enforceSpacing, false, false) {
			continue
		}

		result := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, MethodChildRandom)
		if result == nil {
			slotsUsed++
			continue
		}
		if ctx.ChecksEnabled() {
			ctx.Checker().RegisterAsset(result, enforceSpacing, ctx.TrackSpacingFor(result.Info, enforceSpacing))
		}
		slotsUsed++
	}
}
