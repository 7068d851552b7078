package geom

import (
	"math"

	"github.com/vibble/engine/internal/grid"
)

// RelativePosition is an offset authored against a room of a given size. It
// rescales component-wise when resolved against a room of another size, so
// Exact and Perimeter groups re-apply faithfully after a room resize.
type RelativePosition struct {
	Offset         grid.Point
	OriginalWidth  int
	OriginalHeight int
}

func sanitizeDimension(value, fallback int) int {
	if value > 0 {
		return value
	}
	if fallback > 0 {
		return fallback
	}
	return 1
}

// ScaledOffset maps the authored offset into a room of the current size.
func (r RelativePosition) ScaledOffset(currentWidth, currentHeight int) grid.Point {
	baseW := sanitizeDimension(r.OriginalWidth, currentWidth)
	baseH := sanitizeDimension(r.OriginalHeight, currentHeight)
	currW := sanitizeDimension(currentWidth, baseW)
	currH := sanitizeDimension(currentHeight, baseH)

	rx := float64(currW) / float64(baseW)
	ry := float64(currH) / float64(baseH)
	return grid.Point{
		X: int(math.Round(float64(r.Offset.X) * rx)),
		Y: int(math.Round(float64(r.Offset.Y) * ry)),
	}
}

// Resolve returns roomCenter displaced by the scaled offset.
func (r RelativePosition) Resolve(roomCenter grid.Point, currentWidth, currentHeight int) grid.Point {
	scaled := r.ScaledOffset(currentWidth, currentHeight)
	return grid.Point{X: roomCenter.X + scaled.X, Y: roomCenter.Y + scaled.Y}
}

// ToOriginal inverts ScaledOffset, mapping a current-room offset back into the
// authored room's coordinates.
func (r RelativePosition) ToOriginal(scaledOffset grid.Point, currentWidth, currentHeight int) grid.Point {
	baseW := sanitizeDimension(r.OriginalWidth, currentWidth)
	baseH := sanitizeDimension(r.OriginalHeight, currentHeight)
	currW := sanitizeDimension(currentWidth, baseW)
	currH := sanitizeDimension(currentHeight, baseH)

	rx := float64(baseW) / float64(currW)
	ry := float64(baseH) / float64(currH)
	return grid.Point{
		X: int(math.Round(float64(scaledOffset.X) * rx)),
		Y: int(math.Round(float64(scaledOffset.Y) * ry)),
	}
}

// ScaleOffset is the free-function form of ScaledOffset.
func ScaleOffset(offset grid.Point, originalWidth, originalHeight, currentWidth, currentHeight int) grid.Point {
	return RelativePosition{Offset: offset, OriginalWidth: originalWidth, OriginalHeight: originalHeight}.
		ScaledOffset(currentWidth, currentHeight)
}
