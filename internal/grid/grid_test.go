package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampResolution(t *testing.T) {
	assert.Equal(t, 0, ClampResolution(-5))
	assert.Equal(t, 0, ClampResolution(0))
	assert.Equal(t, 7, ClampResolution(7))
	assert.Equal(t, MaxResolution, ClampResolution(MaxResolution))
	assert.Equal(t, MaxResolution, ClampResolution(MaxResolution+10))
}

func TestDelta(t *testing.T) {
	assert.Equal(t, 1, Delta(0))
	assert.Equal(t, 32, Delta(5))
	assert.Equal(t, 1<<30, Delta(30))
	// out-of-range resolutions clamp instead of overflowing
	assert.Equal(t, 1, Delta(-1))
	assert.Equal(t, 1<<30, Delta(31))
}

func TestSnapToVertex(t *testing.T) {
	origin := Point{}
	tests := []struct {
		name  string
		world Point
		r     int
		want  Point
	}{
		{"identity at r0", Point{X: 17, Y: -3}, 0, Point{X: 17, Y: -3}},
		{"rounds down below half", Point{X: 15, Y: 0}, 5, Point{X: 0, Y: 0}},
		{"tie rounds up", Point{X: 16, Y: 16}, 5, Point{X: 32, Y: 32}},
		{"rounds up above half", Point{X: 17, Y: 0}, 5, Point{X: 32, Y: 0}},
		{"negative tie rounds toward positive", Point{X: -16, Y: -16}, 5, Point{X: 0, Y: 0}},
		{"negative below tie", Point{X: -17, Y: 0}, 5, Point{X: -32, Y: 0}},
		{"already on vertex", Point{X: 64, Y: -96}, 5, Point{X: 64, Y: -96}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SnapToVertex(tt.world, tt.r, origin))
		})
	}
}

func TestSnapToVertexIdempotent(t *testing.T) {
	origin := Point{X: 3, Y: -7}
	for _, r := range []int{0, 1, 5, 12, 30} {
		p := SnapToVertex(Point{X: 12345, Y: -9876}, r, origin)
		assert.Equal(t, p, SnapToVertex(p, r, origin), "resolution %d", r)
	}
}

func TestSnapToVertexWithOrigin(t *testing.T) {
	origin := Point{X: 10, Y: 10}
	// vertices sit at origin + k*32
	got := SnapToVertex(Point{X: 40, Y: 40}, 5, origin)
	assert.Equal(t, Point{X: 42, Y: 42}, got)
}

func TestWorldIndexRoundTrip(t *testing.T) {
	origin := Point{}
	for _, r := range []int{0, 3, 5, 10} {
		idx := Point{X: 7, Y: -4}
		world := IndexToWorld(idx.X, idx.Y, r, origin)
		require.Equal(t, idx, WorldToIndex(world, r, origin), "resolution %d", r)
	}
}

func TestWorldToIndexFloors(t *testing.T) {
	origin := Point{}
	assert.Equal(t, Point{X: 0, Y: 0}, WorldToIndex(Point{X: 31, Y: 31}, 5, origin))
	assert.Equal(t, Point{X: -1, Y: -1}, WorldToIndex(Point{X: -1, Y: -1}, 5, origin))
}

func TestCoordinateSaturation(t *testing.T) {
	origin := Point{}
	got := IndexToWorld(math.MaxInt32, math.MaxInt32, 30, origin)
	assert.Equal(t, math.MaxInt32, got.X)
	assert.Equal(t, math.MaxInt32, got.Y)

	got = IndexToWorld(math.MinInt32, math.MinInt32, 30, origin)
	assert.Equal(t, math.MinInt32, got.X)
	assert.Equal(t, math.MinInt32, got.Y)
}

func TestChangeResolution(t *testing.T) {
	tests := []struct {
		name     string
		indices  Point
		from, to int
		want     Point
	}{
		{"same resolution", Point{X: 4, Y: 9}, 5, 5, Point{X: 4, Y: 9}},
		{"coarse to fine multiplies", Point{X: 2, Y: 3}, 5, 3, Point{X: 8, Y: 12}},
		{"fine to coarse rounds", Point{X: 9, Y: 7}, 3, 5, Point{X: 2, Y: 2}},
		{"fine to coarse tie rounds up", Point{X: 2, Y: 2}, 3, 5, Point{X: 1, Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChangeResolution(tt.indices, tt.from, tt.to))
		})
	}
}

func TestIsVertex(t *testing.T) {
	origin := Point{}
	assert.True(t, IsVertex(Point{X: 64, Y: 32}, 5, origin))
	assert.False(t, IsVertex(Point{X: 64, Y: 33}, 5, origin))
	// everything is a vertex at r=0
	assert.True(t, IsVertex(Point{X: 13, Y: -7}, 0, origin))
}

func TestGridBindsOrigin(t *testing.T) {
	g := New(Point{X: 100, Y: 200}, 5)
	assert.Equal(t, Point{X: 100, Y: 200}, g.Origin())
	assert.Equal(t, 5, g.DefaultResolution())
	assert.Equal(t, Point{X: 132, Y: 232}, g.IndexToWorld(1, 1, 5))
	assert.True(t, g.IsVertex(Point{X: 132, Y: 232}, 5))
}
