package spawn

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/room"
	"github.com/vibble/engine/internal/world"
)

type recordingObserver struct {
	seen []*asset.Asset
}

func (r *recordingObserver) RecordSpawn(a *asset.Asset) { r.seen = append(r.seen, a) }

func testContext(occupancy *grid.Occupancy, worldGrid *world.Grid) (*Context, *[]*asset.Asset) {
	all := &[]*asset.Asset{}
	ctx := NewContext(rand.New(rand.NewPCG(1, 0)), NewChecker(false), nil, asset.NewLibrary(), all, grid.Default(), worldGrid, occupancy)
	return ctx, all
}

func TestSpawnAssetAppendsAndIndexes(t *testing.T) {
	wg := world.NewGrid(7)
	ctx, all := testContext(nil, wg)

	info := &asset.Info{Name: "rock"}
	a := ctx.SpawnAsset(info, grid.Point{X: 10, Y: 20}, 0, nil, "spn-a", MethodExact)
	require.NotNil(t, a)
	assert.Equal(t, "rock", a.Name())
	assert.Len(t, *all, 1)
	assert.Len(t, wg.AssetsNear(grid.Point{X: 10, Y: 20}, 16), 1)
}

func TestSpawnAssetClipRejection(t *testing.T) {
	ctx, all := testContext(nil, nil)
	clip := geom.NewAreaFromPoints("clip", []grid.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50},
	}, 0)
	ctx.SetClipArea(clip)

	assert.Nil(t, ctx.SpawnAsset(&asset.Info{Name: "rock"}, grid.Point{X: 200, Y: 200}, 0, nil, "spn-a", MethodExact))
	assert.Empty(t, *all)

	assert.NotNil(t, ctx.SpawnAsset(&asset.Info{Name: "rock"}, grid.Point{X: 25, Y: 25}, 0, nil, "spn-a", MethodExact))
	assert.Len(t, *all, 1)
}

func TestSpawnAssetNotifiesRecorder(t *testing.T) {
	ctx, _ := testContext(nil, nil)
	rec := &recordingObserver{}
	ctx.SetRecorder(rec)

	parent := ctx.SpawnAsset(&asset.Info{Name: "zone"}, grid.Point{X: 1, Y: 1}, 0, nil, "spn-z", MethodCenter)
	child := ctx.SpawnAsset(&asset.Info{Name: "shrub"}, grid.Point{X: 2, Y: 2}, 1, parent, "spn-z", MethodChildRandom)

	require.Len(t, rec.seen, 2)
	assert.Same(t, parent, rec.seen[0])
	assert.Same(t, child, rec.seen[1])
	assert.Same(t, parent, child.Parent)
}

func TestPositionAllowedPartialOverlap(t *testing.T) {
	area := geom.NewAreaFromPoints("room", []grid.Point{
		{X: 0, Y: 0}, {X: 96, Y: 0}, {X: 96, Y: 96}, {X: 0, Y: 96},
	}, 0)
	occupancy := grid.NewOccupancy(area, 5, grid.Default(), true)
	ctx, _ := testContext(occupancy, nil)

	outside := grid.Point{X: 100, Y: 50}
	assert.False(t, ctx.PositionAllowed(area, outside))

	// the cell around (100, 50) still overlaps the area
	ctx.SetAllowPartialClipOverlap(true)
	assert.True(t, ctx.PositionAllowed(area, outside))

	// far away, even a loose test fails
	assert.False(t, ctx.PositionAllowed(area, grid.Point{X: 500, Y: 500}))
}

func TestTrackSpacingFor(t *testing.T) {
	ctx, _ := testContext(nil, nil)
	oak := &asset.Info{Name: "oak"}
	pine := &asset.Info{Name: "pine"}

	// no filter installed: everything tracks
	assert.True(t, ctx.TrackSpacingFor(oak, false))

	ctx.SetSpacingFilter(map[string]struct{}{"oak": {}})
	assert.True(t, ctx.TrackSpacingFor(oak, false))
	assert.False(t, ctx.TrackSpacingFor(pine, false))
	// enforced candidates always track, filter or not
	assert.True(t, ctx.TrackSpacingFor(pine, true))
	assert.False(t, ctx.TrackSpacingFor(nil, false))
}

func TestPointOverlapsTrail(t *testing.T) {
	ctx, _ := testContext(nil, nil)
	trail := geom.NewAreaFromPoints("trail", []grid.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}, 0)
	ctx.SetTrailAreas([]*geom.Area{nil, trail})

	assert.True(t, ctx.PointOverlapsTrail(grid.Point{X: 50, Y: 50}, nil))
	assert.False(t, ctx.PointOverlapsTrail(grid.Point{X: 500, Y: 500}, nil))
	// a trail never blocks its own points
	assert.False(t, ctx.PointOverlapsTrail(grid.Point{X: 50, Y: 50}, trail))
}

func TestSetMapGridSettingsResolution(t *testing.T) {
	ctx, _ := testContext(nil, nil)
	ctx.SetMapGridSettings(room.MapGridSettings{Resolution: 6})
	assert.Equal(t, 6, ctx.SpawnResolution())

	// an occupancy pins the session resolution regardless of settings
	area := geom.NewAreaFromPoints("room", []grid.Point{
		{X: 0, Y: 0}, {X: 96, Y: 0}, {X: 96, Y: 96}, {X: 0, Y: 96},
	}, 0)
	occupancy := grid.NewOccupancy(area, 4, grid.Default(), false)
	withOcc, _ := testContext(occupancy, nil)
	withOcc.SetMapGridSettings(room.MapGridSettings{Resolution: 6})
	assert.Equal(t, 4, withOcc.SpawnResolution())
}
