package room

import (
	"math"
	"math/rand/v2"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// MapGridSettings controls the default snap grid of a room and the random
// perturbation applied by batch fills.
type MapGridSettings struct {
	Resolution int
	Jitter     int
	RChunk     int
}

// DefaultMapGridSettings returns the zero grid (unit cells, no jitter).
func DefaultMapGridSettings() MapGridSettings {
	return MapGridSettings{}
}

// MapGridSettingsFromJSON reads settings from a descriptor object. A legacy
// "spacing" (or "chunk_size") value is converted to the nearest power-of-two
// resolution.
func MapGridSettingsFromJSON(obj map[string]any) MapGridSettings {
	s := DefaultMapGridSettings()
	if obj == nil {
		return s
	}
	if v, ok := readInt(obj, "resolution"); ok {
		s.Resolution = v
	} else if v, ok := readInt(obj, "spacing"); ok {
		s.Resolution = int(math.Round(math.Log2(float64(max(1, v)))))
	}
	if v, ok := readInt(obj, "jitter"); ok {
		s.Jitter = v
	}
	if v, ok := readInt(obj, "r_chunk"); ok {
		s.RChunk = v
	} else if v, ok := readInt(obj, "chunk_resolution"); ok {
		s.RChunk = v
	} else if v, ok := readInt(obj, "chunk_size"); ok {
		s.RChunk = int(math.Round(math.Log2(float64(max(1, v)))))
	}
	s.Clamp()
	return s
}

// Clamp forces the settings into their legal ranges. Jitter may not exceed
// half a cell, keeping perturbed points inside their vertex neighborhood.
func (s *MapGridSettings) Clamp() {
	s.Resolution = grid.ClampResolution(s.Resolution)
	s.RChunk = grid.ClampResolution(s.RChunk)
	jitterMax := s.Spacing() / 2
	if s.Jitter < 0 {
		s.Jitter = 0
	}
	if s.Jitter > jitterMax {
		s.Jitter = jitterMax
	}
}

// Spacing returns the cell size in world units.
func (s MapGridSettings) Spacing() int { return grid.Delta(s.Resolution) }

// ChunkSize returns the chunk cell size in world units.
func (s MapGridSettings) ChunkSize() int { return grid.Delta(s.RChunk) }

// ApplyToJSON writes the settings back onto a descriptor object.
func (s MapGridSettings) ApplyToJSON(obj map[string]any) {
	obj["resolution"] = s.Resolution
	obj["spacing"] = s.Spacing()
	obj["jitter"] = s.Jitter
	obj["r_chunk"] = s.RChunk
	obj["chunk_size"] = s.ChunkSize()
}

// ApplyJitter perturbs base by up to ±Jitter on each axis, keeping the result
// inside the area. Falls back to base after four failed attempts.
func (s MapGridSettings) ApplyJitter(base grid.Point, rng *rand.Rand, area *geom.Area) grid.Point {
	if s.Jitter <= 0 {
		return base
	}
	span := 2*s.Jitter + 1
	for range 4 {
		candidate := grid.Point{
			X: base.X + rng.IntN(span) - s.Jitter,
			Y: base.Y + rng.IntN(span) - s.Jitter,
		}
		if area.ContainsPoint(candidate) {
			return candidate
		}
	}
	return base
}

func readInt(obj map[string]any, key string) (int, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(math.Round(n)), true
	}
	return 0, false
}
