package room

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

func TestTrailTemplateFromJSON(t *testing.T) {
	tpl := TrailTemplateFromJSON("forest_path", map[string]any{
		"width":           48.0,
		"curvyness":       4.0,
		"edge_smoothness": 80.0,
		"geometry":        geom.GeometryCircle,
	})
	assert.Equal(t, "forest_path", tpl.Name)
	assert.Equal(t, 48, tpl.Width)
	assert.Equal(t, 4, tpl.Curvyness)
	assert.Equal(t, 80, tpl.EdgeSmoothness)
	assert.Equal(t, geom.GeometryCircle, tpl.Geometry)
}

func TestTrailTemplateDefaults(t *testing.T) {
	tpl := TrailTemplateFromJSON("bare", nil)
	assert.Equal(t, 64, tpl.Width)
	assert.Equal(t, 2, tpl.Curvyness)
	assert.Equal(t, 50, tpl.EdgeSmoothness)
	assert.Equal(t, geom.GeometrySquare, tpl.Geometry)
}

func TestBuildCenterline(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	start := grid.Point{X: 0, Y: 0}
	end := grid.Point{X: 1000, Y: 0}

	line := BuildCenterline(start, end, 4, rng)
	require.Len(t, line, 6)
	assert.Equal(t, start, line[0])
	assert.Equal(t, end, line[len(line)-1])

	// interior points stay within the lateral deviation budget
	maxOffset := 1000 * 0.25 * (4.0 / 8.0)
	for _, p := range line[1 : len(line)-1] {
		assert.LessOrEqual(t, math.Abs(float64(p.Y)), maxOffset+1)
	}
}

func TestBuildCenterlineStraight(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	line := BuildCenterline(grid.Point{}, grid.Point{X: 100, Y: 100}, 0, rng)
	assert.Len(t, line, 2)
}

func TestExtrudeCenterline(t *testing.T) {
	centerline := []grid.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 200, Y: 0}}
	polygon := ExtrudeCenterline(centerline, 40)
	require.Len(t, polygon, 6)

	area := geom.NewAreaFromPoints("trail", polygon, 0)
	assert.True(t, area.ContainsPoint(grid.Point{X: 100, Y: 0}))
	assert.True(t, area.ContainsPoint(grid.Point{X: 100, Y: 19}))
	assert.False(t, area.ContainsPoint(grid.Point{X: 100, Y: 25}))
}

func TestEdgePoint(t *testing.T) {
	area := geom.NewAreaFromPoints("sq", []grid.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}, 0)
	center := grid.Point{X: 50, Y: 50}

	edge := EdgePoint(center, grid.Point{X: 500, Y: 50}, area)
	assert.InDelta(t, 100, edge.X, 1)
	assert.Equal(t, 50, edge.Y)

	// degenerate direction returns the center
	assert.Equal(t, center, EdgePoint(center, center, area))
}

func TestBuildTrailRoom(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 0))
	tpl := TrailTemplateFromJSON("path", map[string]any{"width": 64.0, "curvyness": 2.0})

	r, err := BuildTrailRoom(tpl, grid.Point{X: 0, Y: 0}, grid.Point{X: 800, Y: 0}, MapGridSettings{}, rng)
	require.NoError(t, err)
	assert.True(t, r.IsTrail())
	assert.Equal(t, "trail", r.Area.Type())
	assert.True(t, r.Area.ContainsPoint(grid.Point{X: 400, Y: 0}) ||
		r.Area.ContainsPoint(r.Area.Center()))

	_, err = BuildTrailRoom(tpl, grid.Point{X: 5, Y: 5}, grid.Point{X: 5, Y: 5}, MapGridSettings{}, rng)
	assert.Error(t, err)
}
