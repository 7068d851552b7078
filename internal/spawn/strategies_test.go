package spawn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

type strategyFixture struct {
	ctx     *Context
	area    *geom.Area
	library *asset.Library
	all     *[]*asset.Asset
}

func newStrategyFixture(t *testing.T, seed uint64) *strategyFixture {
	t.Helper()
	area := geom.NewAreaFromPoints("room", []grid.Point{
		{X: 0, Y: 0}, {X: 640, Y: 0}, {X: 640, Y: 640}, {X: 0, Y: 640},
	}, 0)
	library := asset.NewLibrary()
	library.Add(&asset.Info{Name: "oak"})
	library.Add(&asset.Info{Name: "pine"})

	checker := NewChecker(false)
	checker.BeginSession(grid.Default(), 5)
	t.Cleanup(checker.ResetSession)

	all := &[]*asset.Asset{}
	occupancy := grid.NewOccupancy(area, 5, grid.Default(), false)
	rng := rand.New(rand.NewPCG(seed, 0))
	ctx := NewContext(rng, checker, nil, library, all, grid.Default(), nil, occupancy)
	return &strategyFixture{ctx: ctx, area: area, library: library, all: all}
}

func oakItem(position string, quantity int) *Item {
	return &Item{
		Name:     "group",
		Position: position,
		SpawnID:  "spn-test",
		Quantity: quantity,
		Candidates: []Candidate{
			{Name: "oak", Weight: 100, Info: &asset.Info{Name: "oak"}},
		},
	}
}

func TestPlaceRandom(t *testing.T) {
	f := newStrategyFixture(t, 1)
	item := oakItem(MethodRandom, 5)
	placeRandom(item, f.area, f.ctx)

	require.Len(t, *f.all, 5)
	positions := map[grid.Point]bool{}
	for _, a := range *f.all {
		assert.True(t, f.area.ContainsPoint(a.Pos))
		assert.Equal(t, "spn-test", a.SpawnID)
		assert.Equal(t, MethodRandom, a.SpawnMethod)
		positions[a.Pos] = true
	}
	// each spawn claimed its own vertex
	assert.Equal(t, f.ctx.Occupancy().Size()-5, f.ctx.Occupancy().FreeCount())
}

func TestPlaceRandomNullCandidateConsumesSlot(t *testing.T) {
	f := newStrategyFixture(t, 2)
	item := oakItem(MethodRandom, 10)
	item.Candidates = []Candidate{{Name: "null", Weight: 100, IsNull: true}}
	placeRandom(item, f.area, f.ctx)
	assert.Empty(t, *f.all)
}

func TestPlaceRandomDeterministic(t *testing.T) {
	run := func() []grid.Point {
		f := newStrategyFixture(t, 99)
		placeRandom(oakItem(MethodRandom, 8), f.area, f.ctx)
		out := make([]grid.Point, 0, len(*f.all))
		for _, a := range *f.all {
			out = append(out, a.Pos)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestPlaceRandomRespectsClipArea(t *testing.T) {
	f := newStrategyFixture(t, 3)
	clip := geom.NewAreaFromPoints("clip", []grid.Point{
		{X: 0, Y: 0}, {X: 128, Y: 0}, {X: 128, Y: 128}, {X: 0, Y: 128},
	}, 0)
	f.ctx.SetClipArea(clip)

	placeRandom(oakItem(MethodRandom, 5), f.area, f.ctx)
	for _, a := range *f.all {
		assert.True(t, clip.ContainsPoint(a.Pos), "asset at %v escaped the clip area", a.Pos)
	}
}

func TestPlaceExact(t *testing.T) {
	f := newStrategyFixture(t, 4)
	item := oakItem(MethodExact, 1)
	item.ExactOffset = grid.Point{X: 200, Y: -25}
	item.ExactOriginW = 640
	item.ExactOriginH = 640
	placeExact(item, f.area, f.ctx)

	require.Len(t, *f.all, 1)
	a := (*f.all)[0]
	// center (320, 320) + (200, -25), snapped to the 32-unit grid
	target := grid.Point{X: 520, Y: 295}
	snapped := grid.Default().SnapToVertex(target, 5)
	assert.Equal(t, snapped, a.Pos)
}

func TestPlaceExactScalesOffsetToRoomSize(t *testing.T) {
	f := newStrategyFixture(t, 5)
	item := oakItem(MethodExact, 1)
	item.ExactOffset = grid.Point{X: 100, Y: 0}
	item.ExactOriginW = 320 // current room is 640: offset doubles
	item.ExactOriginH = 320
	placeExact(item, f.area, f.ctx)

	require.Len(t, *f.all, 1)
	want := grid.Default().SnapToVertex(grid.Point{X: 320 + 200, Y: 320}, 5)
	assert.Equal(t, want, (*f.all)[0].Pos)
}

func TestPlaceExactQuantitySpreads(t *testing.T) {
	f := newStrategyFixture(t, 6)
	item := oakItem(MethodExact, 3)
	placeExact(item, f.area, f.ctx)

	// each attempt claims the nearest free vertex, so positions differ
	require.Len(t, *f.all, 3)
	seen := map[grid.Point]bool{}
	for _, a := range *f.all {
		assert.False(t, seen[a.Pos], "vertex %v reused", a.Pos)
		seen[a.Pos] = true
	}
}

func TestPlaceCenterStacks(t *testing.T) {
	f := newStrategyFixture(t, 7)
	item := oakItem(MethodCenter, 3)
	placeCenter(item, f.area, f.ctx)

	require.Len(t, *f.all, 3)
	first := (*f.all)[0].Pos
	for _, a := range *f.all {
		assert.Equal(t, first, a.Pos)
	}
	// Center never claims vertices
	assert.Equal(t, f.ctx.Occupancy().Size(), f.ctx.Occupancy().FreeCount())
}

func TestPlacePerimeterRing(t *testing.T) {
	f := newStrategyFixture(t, 8)
	item := oakItem(MethodPerimeter, 8)
	item.PerimeterRadius = 150
	placePerimeter(item, f.area, f.ctx)

	require.Len(t, *f.all, 8)
	center := f.area.Center()
	angles := make([]float64, 0, 8)
	for _, a := range *f.all {
		dx := float64(a.Pos.X - center.X)
		dy := float64(a.Pos.Y - center.Y)
		assert.InDelta(t, 150, math.Hypot(dx, dy), 1.5)
		angles = append(angles, math.Atan2(dy, dx))
	}
	// consecutive spawns are 2π/8 apart
	step := 2 * math.Pi / 8
	for i := 1; i < len(angles); i++ {
		diff := math.Mod(angles[i]-angles[i-1]+2*math.Pi, 2*math.Pi)
		assert.InDelta(t, step, diff, 0.05)
	}
}

func TestPlacePerimeterZeroRadiusNoop(t *testing.T) {
	f := newStrategyFixture(t, 9)
	item := oakItem(MethodPerimeter, 4)
	item.PerimeterRadius = 0
	placePerimeter(item, f.area, f.ctx)
	assert.Empty(t, *f.all)
}

func TestPlacePercent(t *testing.T) {
	f := newStrategyFixture(t, 10)
	item := oakItem(MethodPercent, 10)
	placePercent(item, f.area, f.ctx)

	require.Len(t, *f.all, 10)
	for _, a := range *f.all {
		assert.True(t, f.area.ContainsPoint(a.Pos))
		assert.True(t, grid.Default().IsVertex(a.Pos, 5), "position %v not snapped", a.Pos)
	}
}

func TestPlaceEdgeFollowsBoundary(t *testing.T) {
	f := newStrategyFixture(t, 11)
	item := oakItem(MethodEdge, 12)
	item.EdgeInsetPercent = 100
	placeEdge(item, f.area, f.ctx)

	require.NotEmpty(t, *f.all)
	center := f.area.Center()
	// at 100% inset every position sits near the boundary, far from center
	for _, a := range *f.all {
		dx := float64(a.Pos.X - center.X)
		dy := float64(a.Pos.Y - center.Y)
		assert.Greater(t, math.Hypot(dx, dy), 250.0)
	}
}

func TestPlaceEdgeInsetCollapsesToCenter(t *testing.T) {
	f := newStrategyFixture(t, 12)
	item := oakItem(MethodEdge, 4)
	item.EdgeInsetPercent = 0
	placeEdge(item, f.area, f.ctx)

	require.NotEmpty(t, *f.all)
	center := grid.Default().SnapToVertex(f.area.Center(), 5)
	for _, a := range *f.all {
		assert.Equal(t, center, a.Pos)
	}
}

func TestPlaceEdgeSkipsTrailOverlaps(t *testing.T) {
	f := newStrategyFixture(t, 13)
	// a trail covering the entire eastern half of the room
	trail := geom.NewAreaFromPoints("trail", []grid.Point{
		{X: 320, Y: -50}, {X: 700, Y: -50}, {X: 700, Y: 700}, {X: 320, Y: 700},
	}, 0)
	f.ctx.SetTrailAreas([]*geom.Area{trail})

	item := oakItem(MethodEdge, 16)
	item.EdgeInsetPercent = 100
	placeEdge(item, f.area, f.ctx)

	require.NotEmpty(t, *f.all)
	for _, a := range *f.all {
		assert.False(t, trail.ContainsPoint(a.Pos), "asset at %v on a trail", a.Pos)
	}
}

func TestPlaceChildrenIgnoresExclusionZones(t *testing.T) {
	area := geom.NewAreaFromPoints("zone", []grid.Point{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 200}, {X: 0, Y: 200},
	}, 0)
	library := asset.NewLibrary()
	checker := NewChecker(false)
	checker.BeginSession(grid.Default(), 0)
	defer checker.ResetSession()

	// the whole zone is covered by an exclusion area; children don't care
	all := &[]*asset.Asset{}
	ctx := NewContext(rand.New(rand.NewPCG(14, 0)), checker, []*geom.Area{area}, library, all, grid.Default(), nil, nil)

	item := oakItem(MethodChildRandom, 5)
	placeChildren(item, area, ctx)
	assert.Len(t, *all, 5)
	for _, a := range *all {
		assert.Equal(t, MethodChildRandom, a.SpawnMethod)
	}
}

func TestPlaceChildrenZeroQuantityPlacesOne(t *testing.T) {
	f := newStrategyFixture(t, 15)
	item := oakItem(MethodChildRandom, 0)
	placeChildren(item, f.area, f.ctx)
	assert.Len(t, *f.all, 1)
}
