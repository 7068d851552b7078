package spawn

import (
	"math/rand/v2"
	"sort"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/room"
	"github.com/vibble/engine/internal/world"
)

// MapWideSpawner scatters background assets over the whole map in one pass,
// independently of per-room sessions. Each vertex draws from its own
// reseeded stream so the result is stable under any iteration order and
// under partial re-runs.
type MapWideSpawner struct {
	library        *asset.Library
	exclusionZones []*geom.Area
	worldGrid      *world.Grid
	grid           *grid.Grid
	seed           uint64
	recorder       Recorder
}

func NewMapWideSpawner(library *asset.Library, exclusionZones []*geom.Area, worldGrid *world.Grid, seed uint64) *MapWideSpawner {
	return &MapWideSpawner{
		library:        library,
		exclusionZones: exclusionZones,
		worldGrid:      worldGrid,
		grid:           grid.Default(),
		seed:           seed,
	}
}

func (m *MapWideSpawner) SetRecorder(r Recorder) { m.recorder = r }

// seedForVertex derives a per-vertex seed by mixing the session seed with
// the vertex's grid index. splitmix64-style finalizer keeps adjacent
// vertices uncorrelated.
func (m *MapWideSpawner) seedForVertex(index grid.Point) uint64 {
	z := m.seed + (uint64(uint32(index.Y))<<32|uint64(uint32(index.X)))*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Spawn runs the map-wide descriptor over every room. The sweep area is the
// union of all room bounds; vertices that land in no room, or in a room
// that opted out of map assets, are skipped.
func (m *MapWideSpawner) Spawn(mapAssetsData map[string]any, rooms []*room.Room, settings room.MapGridSettings) []*asset.Asset {
	if mapAssetsData == nil || len(rooms) == 0 {
		return nil
	}
	sweep := sweepArea(rooms)
	if sweep == nil {
		return nil
	}

	seedRNG := rand.New(rand.NewPCG(m.seed, 1))
	planner := NewPlanner([]map[string]any{mapAssetsData}, sweep, m.library, seedRNG, nil)
	queue := planner.Queue()
	if len(queue) == 0 {
		return nil
	}

	resolution := settings.Resolution
	checker := NewChecker(false)
	checker.BeginSession(m.grid, resolution)
	defer checker.ResetSession()
	occupancy := grid.NewOccupancy(sweep, resolution, m.grid, false)

	// Existing assets claim their vertices first so the map layer never
	// stacks on top of them: everything the rooms hold, plus anything the
	// world grid indexed inside the sweep that no room owns.
	claimed := make(map[*asset.Asset]struct{})
	for _, r := range rooms {
		for _, a := range r.Assets {
			if a == nil {
				continue
			}
			claimed[a] = struct{}{}
			occupancy.SetOccupiedAt(a.Pos, true)
			checker.RegisterAsset(a, false, true)
		}
	}
	if m.worldGrid != nil {
		for _, a := range m.worldGrid.AssetsInArea(sweep) {
			if _, ok := claimed[a]; ok {
				continue
			}
			occupancy.SetOccupiedAt(a.Pos, true)
			checker.RegisterAsset(a, false, true)
		}
	}

	var spawned []*asset.Asset
	for i := range queue {
		item := &queue[i]
		if !item.HasCandidates() {
			continue
		}

		vertices := occupancy.VerticesInArea(sweep)
		sort.Slice(vertices, func(a, b int) bool {
			if vertices[a].Index.Y != vertices[b].Index.Y {
				return vertices[a].Index.Y < vertices[b].Index.Y
			}
			return vertices[a].Index.X < vertices[b].Index.X
		})

		ctx := NewContext(seedRNG, checker, m.exclusionZones, m.library, &spawned, m.grid, m.worldGrid, occupancy)
		ctx.SetMapGridSettings(settings)
		ctx.SetSpawnResolution(resolution)
		ctx.SetRecorder(m.recorder)

		enforceSpacing := item.CheckMinSpacing
		for _, vertex := range vertices {
			if vertex == nil || vertex.Occupied {
				continue
			}
			owner := resolveOwner(rooms, vertex.World)
			if owner == nil || !owner.InheritsMapAssets() {
				continue
			}

			vrng := rand.New(rand.NewPCG(m.seedForVertex(vertex.Index), 0))
			candidate := item.SelectCandidate(vrng)
			if candidate == nil || candidate.IsNull || candidate.Info == nil {
				occupancy.SetOccupied(vertex, true)
				continue
			}
			pos := settings.ApplyJitter(vertex.World, vrng, owner.Area)
			if insideExclusionZone(pos, m.exclusionZones) {
				continue
			}
			if checker.Check(candidate.Info, pos, m.exclusionZones, spawned, true, enforceSpacing, false, true) {
				continue
			}

			result := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position)
			if result == nil {
				continue
			}
			result.SetOwningRoomName(owner.Name)
			owner.Assets = append(owner.Assets, result)
			checker.RegisterAsset(result, enforceSpacing, true)
			occupancy.SetOccupied(vertex, true)
		}
	}
	return spawned
}

// resolveOwner finds the room whose polygon contains pos. Smaller rooms win
// ties so nested rooms claim their own interiors.
func resolveOwner(rooms []*room.Room, pos grid.Point) *room.Room {
	var owner *room.Room
	for _, r := range rooms {
		if r == nil || r.Area == nil || !r.Area.ContainsPoint(pos) {
			continue
		}
		if owner == nil || r.Area.Size() < owner.Area.Size() {
			owner = r
		}
	}
	return owner
}

// sweepArea is the axis-aligned union of every room's bounds.
func sweepArea(rooms []*room.Room) *geom.Area {
	first := true
	var minX, minY, maxX, maxY int
	for _, r := range rooms {
		if r == nil || r.Area == nil || r.Area.PointCount() == 0 {
			continue
		}
		x0, y0, x1, y1 := r.Area.Bounds()
		if first {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			first = false
			continue
		}
		minX = min(minX, x0)
		minY = min(minY, y0)
		maxX = max(maxX, x1)
		maxY = max(maxY, y1)
	}
	if first {
		return nil
	}
	return geom.NewAreaFromPoints("map_sweep", []grid.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}, 0)
}
