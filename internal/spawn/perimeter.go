package spawn

import (
	"math"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// placePerimeter rings item.Quantity assets around a circle of the item's
// radius, centered on the room center plus the scaled authored offset. The
// starting angle is random; the spacing between assets is exactly 2π/n.
func placePerimeter(item *Item, area *geom.Area, ctx *Context) {
	if area == nil || item.Quantity <= 0 || !item.HasCandidates() {
		return
	}
	radius := item.PerimeterRadius
	if radius <= 0 {
		return
	}

	currW := max(1, area.Width())
	currH := max(1, area.Height())

	relative := geom.RelativePosition{
		Offset:         item.ExactOffset,
		OriginalWidth:  item.ExactOriginW,
		OriginalHeight: item.ExactOriginH,
	}
	circleCenter := relative.Resolve(ctx.AreaCenter(area), currW, currH)

	start := ctx.RNG().Float64() * 2 * math.Pi
	step := 2 * math.Pi / float64(item.Quantity)

	for i := 0; i < item.Quantity; i++ {
		angle := start + step*float64(i)
		pos := grid.Point{
			X: circleCenter.X + int(math.Round(float64(radius)*math.Cos(angle))),
			Y: circleCenter.Y + int(math.Round(float64(radius)*math.Sin(angle))),
		}

		candidate := item.SelectCandidate(ctx.RNG())
		if candidate == nil || candidate.IsNull || candidate.Info == nil {
			continue
		}

		if !ctx.PositionAllowed(area, pos) {
			continue
		}

		enforceSpacing := item.CheckMinSpacing
		if ctx.ChecksEnabled() &&
			ctx.Checker().Check(candidate.Info, pos, ctx.ExclusionZones(), ctx.AllAssets(), false, enforceSpacing, false, false) {
			continue
		}

		if spawned := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position); spawned != nil && ctx.ChecksEnabled() {
			ctx.Checker().RegisterAsset(spawned, enforceSpacing, ctx.TrackSpacingFor(spawned.Info, enforceSpacing))
		}
	}
}
