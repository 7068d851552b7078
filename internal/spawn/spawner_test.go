package spawn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/room"
	"github.com/vibble/engine/internal/world"
)

func testRoom(name string, side int, assetsData map[string]any) *room.Room {
	area := geom.NewAreaFromPoints(name, []grid.Point{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}, 0)
	return room.New(name, "spawn", area, room.MapGridSettings{Resolution: 5}, assetsData)
}

func spawnerLibrary() *asset.Library {
	lib := asset.NewLibrary()
	lib.Add(&asset.Info{Name: "oak"})
	lib.Add(&asset.Info{Name: "pine"})
	lib.Add(&asset.Info{Name: "rock"})
	return lib
}

func roomDescriptor(entries ...map[string]any) map[string]any {
	raw := make([]any, len(entries))
	for i, e := range entries {
		raw[i] = e
	}
	return map[string]any{"spawn_groups": raw}
}

func TestSpawnerSpawnAttachesAssets(t *testing.T) {
	r := testRoom("meadow", 640, roomDescriptor(map[string]any{
		"name":       "oak",
		"spawn_id":   "spn-oaks",
		"min_number": 4,
		"max_number": 4,
	}))
	wg := world.NewGrid(7)
	s := NewSpawner(spawnerLibrary(), nil, wg, 42)
	s.Spawn(r)

	require.Len(t, r.Assets, 4)
	for _, a := range r.Assets {
		assert.Equal(t, "oak", a.Name())
		assert.Equal(t, "spn-oaks", a.SpawnID)
		assert.Equal(t, "meadow", a.OwningRoomName())
		assert.True(t, r.Area.ContainsPoint(a.Pos))
	}
	assert.Len(t, wg.All(), 4)
}

func TestSpawnerDeterministicAcrossRuns(t *testing.T) {
	descriptor := func() map[string]any {
		return roomDescriptor(
			map[string]any{"name": "oak", "spawn_id": "spn-a", "min_number": 3, "max_number": 6},
			map[string]any{"name": "rock", "spawn_id": "spn-b", "position": MethodPercent, "min_number": 2, "max_number": 2},
		)
	}
	run := func() []grid.Point {
		r := testRoom("meadow", 640, descriptor())
		s := NewSpawner(spawnerLibrary(), nil, nil, 7)
		s.Spawn(r)
		out := make([]grid.Point, 0, len(r.Assets))
		for _, a := range r.Assets {
			out = append(out, a.Pos)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestSpawnerRespectsExclusionZones(t *testing.T) {
	exclusion := geom.NewAreaFromPoints("keepout", []grid.Point{
		{X: 0, Y: 0}, {X: 640, Y: 0}, {X: 640, Y: 320}, {X: 0, Y: 320},
	}, 0)
	r := testRoom("meadow", 640, roomDescriptor(map[string]any{
		"name":       "oak",
		"spawn_id":   "spn-a",
		"min_number": 8,
		"max_number": 8,
	}))
	s := NewSpawner(spawnerLibrary(), []*geom.Area{exclusion}, nil, 5)
	s.Spawn(r)

	for _, a := range r.Assets {
		assert.False(t, exclusion.ContainsPoint(a.Pos), "asset at %v inside exclusion zone", a.Pos)
	}
}

func TestSpawnerBatchFillsEveryVertex(t *testing.T) {
	r := testRoom("meadow", 256, roomDescriptor(map[string]any{
		"name":            MethodBatchMap,
		"spawn_id":        "spn-batch",
		"position":        MethodBatchMap,
		"grid_resolution": 6,
		"candidates": []any{
			map[string]any{"name": "oak", "chance": float64(50)},
			map[string]any{"name": "pine", "chance": float64(50)},
		},
	}))
	s := NewSpawner(spawnerLibrary(), nil, nil, 11)
	s.Spawn(r)

	// a 256-square at 64-unit cells holds a 4x4 lattice: containment is
	// exclusive on the max edges, so the far boundary vertices drop out
	assert.Len(t, r.Assets, 16)
	names := map[string]int{}
	for _, a := range r.Assets {
		names[a.Name()]++
	}
	assert.Contains(t, names, "oak")
	assert.Contains(t, names, "pine")
}

func TestSpawnerBatchNullCandidateLeavesGaps(t *testing.T) {
	r := testRoom("meadow", 256, roomDescriptor(map[string]any{
		"name":            MethodBatchMap,
		"spawn_id":        "spn-batch",
		"position":        MethodBatchMap,
		"grid_resolution": 6,
		"candidates": []any{
			map[string]any{"name": "oak", "chance": float64(50)},
			map[string]any{"name": "null", "chance": float64(50)},
		},
	}))
	s := NewSpawner(spawnerLibrary(), nil, nil, 13)
	s.Spawn(r)

	assert.NotEmpty(t, r.Assets)
	assert.Less(t, len(r.Assets), 16)
}

func TestSpawnerZoneChildren(t *testing.T) {
	grove := &asset.Info{
		Name: "grove",
		Type: asset.TypeZone,
		Areas: []asset.NamedArea{{
			Name: "zone",
			Area: geom.NewAreaFromPoints("zone", []grid.Point{
				{X: -80, Y: -80}, {X: 80, Y: -80}, {X: 80, Y: 80}, {X: -80, Y: 80},
			}, 0),
		}},
	}
	grove.SetSpawnGroupsPayload(json.RawMessage(`{
		"spawn_groups": [
			{"name": "pine", "spawn_id": "spn-pines", "min_number": 5, "max_number": 5}
		]
	}`))
	lib := spawnerLibrary()
	lib.Add(grove)

	r := testRoom("forest", 640, roomDescriptor(map[string]any{
		"name":       "grove",
		"spawn_id":   "spn-grove",
		"position":   MethodCenter,
		"min_number": 1,
		"max_number": 1,
	}))
	s := NewSpawner(lib, nil, nil, 21)
	s.Spawn(r)

	var parent *asset.Asset
	children := 0
	for _, a := range r.Assets {
		switch a.Name() {
		case "grove":
			parent = a
		case "pine":
			children++
			assert.Equal(t, 1, a.Depth)
			require.NotNil(t, a.Parent)
			assert.Equal(t, "grove", a.Parent.Name())
		}
	}
	require.NotNil(t, parent)
	assert.Equal(t, 5, children)
	assert.Len(t, parent.Children, 5)

	// children stay inside the zone polygon translated to the parent
	zone, err := parent.WorldArea("zone")
	require.NoError(t, err)
	for _, c := range parent.Children {
		assert.True(t, zone.ContainsPoint(c.Pos), "child at %v outside zone", c.Pos)
	}
}

func TestSpawnerRegenerate(t *testing.T) {
	r := testRoom("meadow", 640, roomDescriptor(
		map[string]any{"name": "oak", "spawn_id": "spn-oaks", "min_number": 3, "max_number": 3},
		map[string]any{"name": "rock", "spawn_id": "spn-rocks", "min_number": 2, "max_number": 2},
	))
	wg := world.NewGrid(7)
	s := NewSpawner(spawnerLibrary(), nil, wg, 31)
	s.Spawn(r)
	require.Len(t, r.Assets, 5)

	var rockBefore []grid.Point
	for _, a := range r.Assets {
		if a.SpawnID == "spn-rocks" {
			rockBefore = append(rockBefore, a.Pos)
		}
	}

	require.NoError(t, s.Regenerate(r, "spn-oaks"))

	oaks, rocks := 0, 0
	var rockAfter []grid.Point
	for _, a := range r.Assets {
		switch a.SpawnID {
		case "spn-oaks":
			oaks++
		case "spn-rocks":
			rocks++
			rockAfter = append(rockAfter, a.Pos)
		}
	}
	assert.Equal(t, 3, oaks)
	assert.Equal(t, 2, rocks)
	// the untouched group keeps its placements
	assert.Equal(t, rockBefore, rockAfter)
	assert.Len(t, wg.All(), 5)
}

func TestSpawnerRegenerateUnknownGroup(t *testing.T) {
	r := testRoom("meadow", 640, roomDescriptor(
		map[string]any{"name": "oak", "spawn_id": "spn-oaks", "min_number": 1, "max_number": 1},
	))
	s := NewSpawner(spawnerLibrary(), nil, nil, 1)
	s.Spawn(r)
	assert.Error(t, s.Regenerate(r, "spn-missing"))
}

func TestCollectTrailAreasIncludesOwnTrailRoom(t *testing.T) {
	corridor := room.New("path", "trail", geom.NewAreaFromPoints("path", []grid.Point{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 40}, {X: 0, Y: 40},
	}, 0), room.MapGridSettings{}, nil)

	s := NewSpawner(spawnerLibrary(), nil, nil, 1)
	s.currentRoom = corridor

	trails := s.collectTrailAreas()
	require.Len(t, trails, 1)
	assert.Same(t, corridor.Area, trails[0])
}

func TestSpawnerBoundaryRing(t *testing.T) {
	area := geom.NewAreaFromPoints("boundary", []grid.Point{
		{X: 0, Y: 0}, {X: 512, Y: 0}, {X: 512, Y: 512}, {X: 0, Y: 512},
	}, 0)
	boundary := map[string]any{
		"spawn_groups": []any{
			map[string]any{
				"name":            "rock",
				"spawn_id":        "spn-ring",
				"grid_resolution": 7,
			},
		},
	}
	s := NewSpawner(spawnerLibrary(), nil, nil, 17)
	spawned := s.SpawnBoundaryFromJSON(boundary, area)

	// a 512-square at 128-unit cells holds a 4x4 vertex lattice (max edges
	// are exclusive), one draw per vertex
	assert.Len(t, spawned, 16)
	for _, a := range spawned {
		assert.True(t, grid.Default().IsVertex(a.Pos, 7))
		assert.Equal(t, "spn-ring", a.SpawnID)
	}
}

func TestSpawnerAreaSpawnGroups(t *testing.T) {
	descriptor := roomDescriptor(map[string]any{
		"name":       "clearing",
		"spawn_id":   "spn-pick",
		"min_number": 2,
		"max_number": 2,
		"candidates": []any{
			map[string]any{"name": "clearing", "chance": float64(100)},
		},
	})
	descriptor["areas"] = []any{
		map[string]any{
			"name": "clearing",
			"spawn_groups": []any{
				map[string]any{"name": "pine", "spawn_id": "spn-pines", "min_number": 1, "max_number": 1},
			},
		},
	}
	r := testRoom("forest", 640, descriptor)
	r.UpsertNamedArea(room.NamedArea{
		Name: "clearing",
		Area: geom.NewAreaFromPoints("clearing", []grid.Point{
			{X: 64, Y: 64}, {X: 256, Y: 64}, {X: 256, Y: 256}, {X: 64, Y: 256},
		}, 0),
	})

	s := NewSpawner(spawnerLibrary(), nil, nil, 9)
	s.Spawn(r)

	// the selector drew "clearing" twice, so its group ran twice
	pines := 0
	for _, a := range r.Assets {
		if a.Name() == "pine" {
			pines++
			assert.True(t, r.FindArea("clearing").ContainsPoint(a.Pos))
		}
	}
	assert.Equal(t, 2, pines)
}
