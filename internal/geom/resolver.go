package geom

import "math"

// SizeResolver scales counts and lengths by the ratio between a room's current
// and authored dimensions. Counts and lengths use the arithmetic mean of the
// width and height ratios; authored content depends on this exact formula.
type SizeResolver struct {
	originalWidth  int
	originalHeight int
	currentWidth   int
	currentHeight  int
	widthRatio     float64
	heightRatio    float64
	averageRatio   float64
}

// NewSizeResolver builds a resolver for the (original, current) room sizes.
// Non-positive dimensions fall back to their counterpart, then to 1.
func NewSizeResolver(originalWidth, originalHeight, currentWidth, currentHeight int) SizeResolver {
	ow := sanitizeDimension(originalWidth, currentWidth)
	oh := sanitizeDimension(originalHeight, currentHeight)
	cw := sanitizeDimension(currentWidth, ow)
	ch := sanitizeDimension(currentHeight, oh)
	wr := safeRatio(cw, ow)
	hr := safeRatio(ch, oh)
	return SizeResolver{
		originalWidth:  ow,
		originalHeight: oh,
		currentWidth:   cw,
		currentHeight:  ch,
		widthRatio:     wr,
		heightRatio:    hr,
		averageRatio:   (wr + hr) * 0.5,
	}
}

func safeRatio(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 1
	}
	if numerator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// WidthRatio returns current/original width.
func (s SizeResolver) WidthRatio() float64 { return s.widthRatio }

// HeightRatio returns current/original height.
func (s SizeResolver) HeightRatio() float64 { return s.heightRatio }

// ScaleCount scales an asset count, never below 1 for positive input.
func (s SizeResolver) ScaleCount(value int) int {
	if value <= 0 {
		return 0
	}
	return max(1, int(math.Round(float64(value)*s.averageRatio)))
}

// ScaleCountRange scales a [min, max] count range, keeping it ordered.
func (s SizeResolver) ScaleCountRange(minValue, maxValue int) (int, int) {
	if maxValue < minValue {
		minValue, maxValue = maxValue, minValue
	}
	scaledMin := s.ScaleCount(minValue)
	scaledMax := max(scaledMin, s.ScaleCount(maxValue))
	return scaledMin, scaledMax
}

// ScaleLength scales a world-unit length such as a perimeter radius.
func (s SizeResolver) ScaleLength(value int) int {
	if value <= 0 {
		return 0
	}
	return max(0, int(math.Round(float64(value)*s.averageRatio)))
}
