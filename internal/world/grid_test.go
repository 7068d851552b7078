package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

func spawned(name, spawnID string, x, y int) *asset.Asset {
	return asset.New(&asset.Info{Name: name}, grid.Point{X: x, Y: y}, 0, nil, spawnID, "Random", 0)
}

func TestInsertAndAll(t *testing.T) {
	g := NewGrid(7)
	a := spawned("oak", "spn-1", 10, 10)
	b := spawned("pine", "spn-1", 500, 500)
	g.Insert(a)
	g.Insert(b)
	g.Insert(nil)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []*asset.Asset{a, b}, g.All())
}

func TestAssetsNear(t *testing.T) {
	g := NewGrid(7) // 128-unit cells
	near := spawned("oak", "spn-1", 10, 10)
	far := spawned("pine", "spn-1", 5000, 5000)
	g.Insert(near)
	g.Insert(far)

	found := g.AssetsNear(grid.Point{X: 0, Y: 0}, 100)
	require.Len(t, found, 1)
	assert.Same(t, near, found[0])

	assert.Nil(t, g.AssetsNear(grid.Point{}, 0))
}

func TestAssetsNearIsCellGranular(t *testing.T) {
	g := NewGrid(7)
	// same cell as the probe but further than the radius
	g.Insert(spawned("oak", "spn-1", 120, 120))
	found := g.AssetsNear(grid.Point{X: 0, Y: 0}, 10)
	assert.Len(t, found, 1)
}

func TestAssetsInArea(t *testing.T) {
	g := NewGrid(7)
	inside := spawned("oak", "spn-1", 50, 50)
	outside := spawned("pine", "spn-1", 500, 500)
	g.Insert(inside)
	g.Insert(outside)

	area := geom.NewAreaFromPoints("sq", []grid.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}, 0)
	found := g.AssetsInArea(area)
	require.Len(t, found, 1)
	assert.Same(t, inside, found[0])
}

func TestRemoveBySpawnID(t *testing.T) {
	g := NewGrid(7)
	g.Insert(spawned("oak", "spn-1", 10, 10))
	g.Insert(spawned("oak", "spn-1", 20, 20))
	keep := spawned("pine", "spn-2", 500, 500)
	g.Insert(keep)

	assert.Equal(t, 2, g.RemoveBySpawnID("spn-1"))
	assert.Equal(t, 1, g.Len())
	assert.Same(t, keep, g.All()[0])

	assert.Equal(t, 0, g.RemoveBySpawnID("spn-1"))
	assert.Equal(t, 0, g.RemoveBySpawnID(""))

	// cell buckets are cleaned too
	assert.Empty(t, g.AssetsNear(grid.Point{X: 10, Y: 10}, 5))
}

func TestRemoveSingle(t *testing.T) {
	g := NewGrid(7)
	a := spawned("oak", "spn-1", 10, 10)
	g.Insert(a)

	assert.True(t, g.Remove(a))
	assert.False(t, g.Remove(a))
	assert.Equal(t, 0, g.Len())
}
