// Package world maintains the spatial index of spawned assets. Sessions
// append to it; editors remove whole spawn groups from it when regenerating.
package world

import (
	"log/slog"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// Grid buckets assets into cells of 2^resolution world units. The engine is
// driven from a single thread, so no locking is needed.
type Grid struct {
	resolution int
	cells      map[uint64][]*asset.Asset
	all        []*asset.Asset
}

// NewGrid creates an empty spatial grid at the given bucket resolution.
func NewGrid(resolution int) *Grid {
	return &Grid{
		resolution: grid.ClampResolution(resolution),
		cells:      make(map[uint64][]*asset.Asset),
	}
}

// Resolution returns the bucket resolution.
func (g *Grid) Resolution() int { return g.resolution }

// Len returns the number of indexed assets.
func (g *Grid) Len() int { return len(g.all) }

// All returns every indexed asset in insertion order.
func (g *Grid) All() []*asset.Asset { return g.all }

// Insert indexes an asset by its position.
func (g *Grid) Insert(a *asset.Asset) {
	if a == nil {
		return
	}
	key := g.cellKey(a.Pos)
	g.cells[key] = append(g.cells[key], a)
	g.all = append(g.all, a)
}

// AssetsNear returns the assets bucketed within radius world units of pos.
// Results are cell-granular; callers do their own distance filtering.
func (g *Grid) AssetsNear(pos grid.Point, radius int) []*asset.Asset {
	if radius <= 0 {
		return nil
	}
	cellSize := grid.Delta(g.resolution)
	span := (radius + cellSize - 1) / cellSize
	origin := grid.WorldToIndex(pos, g.resolution, grid.Point{})

	var out []*asset.Asset
	for dy := -span; dy <= span; dy++ {
		for dx := -span; dx <= span; dx++ {
			key := packCell(grid.Point{X: origin.X + dx, Y: origin.Y + dy})
			out = append(out, g.cells[key]...)
		}
	}
	return out
}

// AssetsInArea returns the assets whose position lies inside the area.
func (g *Grid) AssetsInArea(area *geom.Area) []*asset.Asset {
	var out []*asset.Asset
	for _, a := range g.all {
		if area.ContainsPoint(a.Pos) {
			out = append(out, a)
		}
	}
	return out
}

// RemoveBySpawnID removes every asset tagged with spawnID and returns the
// count removed. This is the first half of the regeneration contract.
func (g *Grid) RemoveBySpawnID(spawnID string) int {
	if spawnID == "" {
		return 0
	}
	removed := 0
	kept := g.all[:0]
	for _, a := range g.all {
		if a.SpawnID == spawnID {
			g.removeFromCell(a)
			removed++
			continue
		}
		kept = append(kept, a)
	}
	g.all = kept
	if removed > 0 {
		slog.Debug("removed spawn group from world grid", "spawn_id", spawnID, "count", removed)
	}
	return removed
}

// Remove unlinks a single asset.
func (g *Grid) Remove(target *asset.Asset) bool {
	for i, a := range g.all {
		if a == target {
			g.all = append(g.all[:i], g.all[i+1:]...)
			g.removeFromCell(target)
			return true
		}
	}
	return false
}

func (g *Grid) removeFromCell(a *asset.Asset) {
	key := g.cellKey(a.Pos)
	bucket := g.cells[key]
	for i, other := range bucket {
		if other == a {
			g.cells[key] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(g.cells[key]) == 0 {
		delete(g.cells, key)
	}
}

func (g *Grid) cellKey(pos grid.Point) uint64 {
	return packCell(grid.WorldToIndex(pos, g.resolution, grid.Point{}))
}

func packCell(index grid.Point) uint64 {
	return uint64(uint32(int32(index.X)))<<32 | uint64(uint32(int32(index.Y)))
}
