package spawn

import (
	"encoding/json"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/room"
	"github.com/vibble/engine/internal/world"
)

// Spawner runs spawn sessions over rooms. One spawner owns the session RNG;
// two spawners built with the same seed over the same descriptors produce
// identical worlds.
type Spawner struct {
	library        *asset.Library
	exclusionZones []*geom.Area
	rng            *rand.Rand
	checker        *Checker
	grid           *grid.Grid
	worldGrid      *world.Grid
	recorder       Recorder

	all             []*asset.Asset
	queue           []Item
	trailAreas      []*geom.Area
	currentRoom     *room.Room
	mapGridSettings room.MapGridSettings
	boundaryMode    bool
	groupResolution map[string]int
}

// NewSpawner builds a spawner seeded for reproducible sessions. worldGrid
// may be nil when the caller only wants the returned asset list.
func NewSpawner(library *asset.Library, exclusionZones []*geom.Area, worldGrid *world.Grid, seed uint64) *Spawner {
	return &Spawner{
		library:         library,
		exclusionZones:  exclusionZones,
		rng:             rand.New(rand.NewPCG(seed, 0)),
		checker:         NewChecker(false),
		grid:            grid.Default(),
		worldGrid:       worldGrid,
		groupResolution: make(map[string]int),
	}
}

// SetRecorder installs a manifest observer applied to every session.
func (s *Spawner) SetRecorder(r Recorder) { s.recorder = r }

// SetTrailAreas provides the trail polygons of neighboring rooms so edge
// placement can avoid crossing them.
func (s *Spawner) SetTrailAreas(areas []*geom.Area) { s.trailAreas = areas }

// RNG exposes the session RNG for collaborators that expand descriptors
// before spawning.
func (s *Spawner) RNG() *rand.Rand { return s.rng }

// Spawn runs a full session over one room: the room's own spawn groups,
// then any named-area spawn groups the queue's candidates selected. The
// produced assets are attached to the room.
func (s *Spawner) Spawn(r *room.Room) {
	if r == nil {
		slog.Warn("spawn: nil room")
		return
	}
	source := r.AssetsData()
	planner := NewPlanner([]map[string]any{source}, r.Area, s.library, s.rng, []SourceContext{{
		Persist: func(updated map[string]any) { r.SetAssetsData(updated) },
	}})

	s.currentRoom = r
	s.mapGridSettings = r.Grid
	s.runSpawning(planner, r.Area)
	s.spawnSelectedAreaGroups(r, planner)
	s.currentRoom = nil

	r.AddAssets(s.ExtractAllAssets())
}

// spawnSelectedAreaGroups runs the descriptor's per-area spawn_groups. When
// the room queue's candidates name areas, each named area runs once per time
// its name was drawn; otherwise every populated area runs once.
func (s *Spawner) spawnSelectedAreaGroups(r *room.Room, planner *Planner) {
	root := r.AssetsData()
	areaEntries, ok := root["areas"].([]any)
	if !ok {
		return
	}

	selectionCounts := make(map[string]int)
	for i := range planner.Queue() {
		item := &planner.Queue()[i]
		var names []string
		var weights []float64
		for _, cand := range item.Candidates {
			if cand.Name != "" && r.FindArea(cand.Name) != nil {
				names = append(names, cand.Name)
				weights = append(weights, math.Max(cand.Weight, 0))
			}
		}
		if len(names) == 0 {
			continue
		}
		anyPositive := false
		for _, w := range weights {
			if w > 0 {
				anyPositive = true
				break
			}
		}
		total := 0.0
		for i := range weights {
			if !anyPositive {
				weights[i] = 1
			}
			total += weights[i]
		}
		for range max(0, item.Quantity) {
			draw := s.rng.Float64() * total
			for i, w := range weights {
				draw -= w
				if draw < 0 {
					selectionCounts[names[i]]++
					break
				}
			}
		}
	}

	selective := len(selectionCounts) > 0
	for _, rawEntry := range areaEntries {
		entry, ok := rawEntry.(map[string]any)
		if !ok {
			continue
		}
		groups, ok := entry["spawn_groups"].([]any)
		if !ok || len(groups) == 0 {
			continue
		}
		areaName := readString(entry, "name")
		if areaName == "" {
			continue
		}
		target := r.FindArea(areaName)
		if target == nil {
			continue
		}

		times := 1
		if selective {
			times = selectionCounts[areaName]
			if times <= 0 {
				continue
			}
		}

		for range times {
			source := map[string]any{"spawn_groups": groups}
			areaPlanner := NewPlanner([]map[string]any{source}, target, s.library, s.rng, []SourceContext{{
				Persist: func(updated map[string]any) {
					if g, ok := updated["spawn_groups"].([]any); ok {
						entry["spawn_groups"] = g
					}
				},
			}})
			s.runSpawning(areaPlanner, target)
		}
	}
}

// SpawnBoundaryFromJSON places edge assets around an area from a standalone
// boundary descriptor. Boundary groups run at their own grid resolution,
// never below 5.
func (s *Spawner) SpawnBoundaryFromJSON(boundaryJSON map[string]any, area *geom.Area) []*asset.Asset {
	if boundaryJSON == nil {
		return nil
	}
	clear(s.groupResolution)
	if groups, ok := boundaryJSON["spawn_groups"].([]any); ok {
		for _, raw := range groups {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sid := readString(entry, "spawn_id")
			if sid == "" {
				continue
			}
			r := max(5, readInt(entry, "grid_resolution", 5))
			s.groupResolution[sid] = grid.ClampResolution(r)
		}
	}

	planner := NewPlanner([]map[string]any{boundaryJSON}, area, s.library, s.rng, nil)
	s.boundaryMode = true
	s.runSpawning(planner, area)
	s.boundaryMode = false
	return s.ExtractAllAssets()
}

// SpawnChildren fills a zone asset's resolved sub-areas from its inner
// planner.
func (s *Spawner) SpawnChildren(area *geom.Area, areaLookup map[string]*geom.Area, planner *Planner) {
	if planner == nil {
		slog.Warn("spawn: nil child planner")
		return
	}
	s.runChildSpawning(planner, area, areaLookup)
}

// ExtractAllAssets returns and clears the accumulated session result.
func (s *Spawner) ExtractAllAssets() []*asset.Asset {
	out := s.all
	s.all = nil
	return out
}

type zoneSpawnRecord struct {
	asset  *asset.Asset
	region *geom.Area
	adjust bool
}

func (s *Spawner) runSpawning(planner *Planner, area *geom.Area) {
	s.queue = planner.Queue()
	if s.boundaryMode {
		s.runEdgeSpawning(area)
		return
	}
	spacingNames := collectSpacingAssetNames(s.queue)
	resolution := max(0, s.mapGridSettings.Resolution)
	s.checker.BeginSession(s.grid, resolution)
	s.checker.AttachWorldIndex(s.worldGrid)
	occupancy := grid.NewOccupancy(area, resolution, s.grid, false)
	ctx := NewContext(s.rng, s.checker, s.exclusionZones, s.library, &s.all, s.grid, s.worldGrid, occupancy)
	ctx.SetSpacingFilter(spacingNames)
	ctx.SetMapGridSettings(s.mapGridSettings)
	ctx.SetSpawnResolution(resolution)
	ctx.SetRecorder(s.recorder)
	ctx.SetTrailAreas(s.collectTrailAreas())

	var zoneSpawns []zoneSpawnRecord

	for i := range s.queue {
		item := &s.queue[i]
		if !item.HasCandidates() {
			continue
		}
		if s.currentRoom != nil && s.itemTargetsAreasOnly(item) {
			continue
		}

		if s.currentRoom != nil && item.LinkAreaName != "" {
			ctx.SetClipArea(s.currentRoom.FindArea(item.LinkAreaName))
		} else {
			ctx.SetClipArea(nil)
		}

		if item.Name == MethodBatchMap {
			s.runBatch(item, area, resolution, &zoneSpawns, ctx.ClipArea())
			continue
		}

		s.dispatch(item, area, ctx)

		if len(s.all) > 0 {
			last := s.all[len(s.all)-1]
			if last != nil && last.IsZoneAsset() {
				region := ctx.ClipArea()
				if region == nil {
					region = area
				}
				zoneSpawns = append(zoneSpawns, zoneSpawnRecord{asset: last, region: region, adjust: item.AdjustGeometryToRoom})
			}
		}
	}
	s.checker.ResetSession()

	s.spawnZoneChildren(zoneSpawns, area)
}

// itemTargetsAreasOnly reports whether every live candidate of the item
// names a room area rather than an asset; those items drive the per-area
// pass instead of direct placement.
func (s *Spawner) itemTargetsAreasOnly(item *Item) bool {
	hasArea := false
	for _, c := range item.Candidates {
		if c.Info != nil {
			return false
		}
		if c.Name != "" && s.currentRoom.FindArea(c.Name) != nil {
			hasArea = true
		}
	}
	return hasArea
}

func (s *Spawner) dispatch(item *Item, area *geom.Area, ctx *Context) {
	switch item.Position {
	case MethodExact, MethodExactPosition:
		placeExact(item, area, ctx)
	case MethodCenter:
		placeCenter(item, area, ctx)
	case MethodPerimeter:
		placePerimeter(item, area, ctx)
	case MethodEdge:
		placeEdge(item, area, ctx)
	case MethodPercent:
		placePercent(item, area, ctx)
	default:
		placeRandom(item, area, ctx)
	}
}

// runBatch fills every vertex of a dedicated occupancy, shuffling first.
// Every vertex is marked occupied whether or not it produced an asset, so a
// pass visits each vertex exactly once.
func (s *Spawner) runBatch(item *Item, area *geom.Area, resolution int, zoneSpawns *[]zoneSpawnRecord, clipArea *geom.Area) {
	batchResolution := resolution
	if item.GridResolution > 0 {
		batchResolution = item.GridResolution
	}
	batchChecker := NewChecker(false)
	batchChecker.BeginSession(s.grid, batchResolution)
	defer batchChecker.ResetSession()
	batchOccupancy := grid.NewOccupancy(area, batchResolution, s.grid, false)
	ctx := NewContext(s.rng, batchChecker, s.exclusionZones, s.library, &s.all, s.grid, s.worldGrid, batchOccupancy)
	ctx.SetRecorder(s.recorder)

	baseWeights := make([]float64, len(item.Candidates))
	totalWeight := 0.0
	for i, cand := range item.Candidates {
		w := math.Max(cand.Weight, 0)
		totalWeight += w
		baseWeights[i] = w
	}
	if totalWeight <= 0 && len(baseWeights) > 0 {
		for i := range baseWeights {
			baseWeights[i] = 1
		}
	}

	vertices := batchOccupancy.VerticesInArea(area)
	if len(vertices) == 0 {
		return
	}
	s.rng.Shuffle(len(vertices), func(i, j int) {
		vertices[i], vertices[j] = vertices[j], vertices[i]
	})

	enforceSpacing := item.CheckMinSpacing
	for _, vertex := range vertices {
		if vertex == nil {
			continue
		}
		pos := s.mapGridSettings.ApplyJitter(vertex.World, ctx.RNG(), area)
		placed := false
		attemptWeights := make([]float64, len(baseWeights))
		copy(attemptWeights, baseWeights)

		for attempt := 0; attempt < len(item.Candidates); attempt++ {
			total := 0.0
			for _, w := range attemptWeights {
				total += w
			}
			if total <= 0 {
				break
			}
			idx := drawWeighted(attemptWeights, total, ctx.RNG())
			if idx < 0 {
				break
			}
			candidate := &item.Candidates[idx]

			if candidate.IsNull || candidate.Info == nil {
				batchOccupancy.SetOccupied(vertex, true)
				placed = true
				break
			}
			if ctx.Checker().Check(candidate.Info, pos, ctx.ExclusionZones(), ctx.AllAssets(), true, enforceSpacing, false, false) {
				attemptWeights[idx] = 0
				continue
			}
			result := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position)
			if result == nil {
				attemptWeights[idx] = 0
				continue
			}
			ctx.Checker().RegisterAsset(result, enforceSpacing, ctx.TrackSpacingFor(result.Info, enforceSpacing))
			batchOccupancy.SetOccupied(vertex, true)

			if result.IsZoneAsset() {
				region := clipArea
				if region == nil {
					region = area
				}
				*zoneSpawns = append(*zoneSpawns, zoneSpawnRecord{asset: result, region: region, adjust: item.AdjustGeometryToRoom})
			}
			placed = true
			break
		}
		if !placed {
			batchOccupancy.SetOccupied(vertex, true)
		}
	}
}

func drawWeighted(weights []float64, total float64, rng *rand.Rand) int {
	draw := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		draw -= w
		if draw < 0 {
			return i
		}
	}
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}

// runEdgeSpawning is the boundary-descriptor mode: every free vertex of a
// coarse occupancy ring gets one candidate draw. Vertices inside exclusion
// zones are skipped up front.
func (s *Spawner) runEdgeSpawning(area *geom.Area) {
	spacingNames := collectSpacingAssetNames(s.queue)
	for i := range s.queue {
		item := &s.queue[i]
		if !item.HasCandidates() {
			continue
		}

		edgeResolution := 5
		if r, ok := s.groupResolution[item.SpawnID]; ok {
			edgeResolution = r
		}
		edgeResolution = grid.ClampResolution(edgeResolution)

		s.checker.BeginSession(s.grid, edgeResolution)
		occupancy := grid.NewOccupancy(area, edgeResolution, s.grid, false)
		ctx := NewContext(s.rng, s.checker, s.exclusionZones, s.library, &s.all, s.grid, s.worldGrid, occupancy)
		ctx.SetSpacingFilter(spacingNames)
		ctx.SetMapGridSettings(s.mapGridSettings)
		ctx.SetSpawnResolution(edgeResolution)
		ctx.SetRecorder(s.recorder)

		if s.currentRoom != nil && item.LinkAreaName != "" {
			ctx.SetClipArea(s.currentRoom.FindArea(item.LinkAreaName))
		} else {
			ctx.SetClipArea(nil)
		}

		vertices := occupancy.VerticesInArea(area)
		eligible := make([]*grid.Vertex, 0, len(vertices))
		for _, vertex := range vertices {
			if vertex == nil || insideExclusionZone(vertex.World, s.exclusionZones) {
				continue
			}
			eligible = append(eligible, vertex)
		}
		if len(eligible) == 0 {
			continue
		}
		s.rng.Shuffle(len(eligible), func(i, j int) {
			eligible[i], eligible[j] = eligible[j], eligible[i]
		})

		enforceSpacing := item.CheckMinSpacing
		for _, vertex := range eligible {
			pos := vertex.World

			candidate := item.SelectCandidate(ctx.RNG())
			if candidate == nil || candidate.IsNull || candidate.Info == nil {
				occupancy.SetOccupied(vertex, true)
				continue
			}

			if ctx.Checker().Check(candidate.Info, pos, ctx.ExclusionZones(), ctx.AllAssets(), true, enforceSpacing, true, false) {
				occupancy.SetOccupied(vertex, true)
				continue
			}

			if result := ctx.SpawnAsset(candidate.Info, pos, 0, nil, item.SpawnID, item.Position); result != nil {
				ctx.Checker().RegisterAsset(result, enforceSpacing, false)
			}
			occupancy.SetOccupied(vertex, true)
		}
		s.checker.ResetSession()
	}
}

// runChildSpawning places a zone asset's children inside its world-space
// sub-areas. Checks are disabled and partial clip overlap is allowed; the
// parent's placement already satisfied the room-level rules.
func (s *Spawner) runChildSpawning(planner *Planner, defaultArea *geom.Area, areaLookup map[string]*geom.Area) {
	s.queue = planner.Queue()
	spacingNames := collectSpacingAssetNames(s.queue)
	resolution := max(0, s.mapGridSettings.Resolution)
	s.checker.BeginSession(s.grid, resolution)

	occupancyCache := make(map[*geom.Area]*grid.Occupancy)
	getOccupancy := func(area *geom.Area) *grid.Occupancy {
		if area == nil {
			return nil
		}
		if occ, ok := occupancyCache[area]; ok {
			return occ
		}
		occ := grid.NewOccupancy(area, resolution, s.grid, true)
		occupancyCache[area] = occ
		return occ
	}

	for i := range s.queue {
		item := &s.queue[i]
		if !item.HasCandidates() {
			continue
		}

		target := defaultArea
		if item.LinkAreaName != "" {
			if linked, ok := areaLookup[item.LinkAreaName]; ok {
				target = linked
			}
		}
		if target == nil {
			continue
		}

		occupancy := getOccupancy(target)
		ctx := NewContext(s.rng, s.checker, s.exclusionZones, s.library, &s.all, s.grid, s.worldGrid, occupancy)
		ctx.SetSpacingFilter(spacingNames)
		ctx.SetMapGridSettings(s.mapGridSettings)
		ctx.SetSpawnResolution(resolution)
		ctx.SetRecorder(s.recorder)
		ctx.SetClipArea(target)
		ctx.SetChecksEnabled(false)
		ctx.SetAllowPartialClipOverlap(true)

		switch item.Position {
		case MethodExact, MethodExactPosition:
			placeExact(item, target, ctx)
		case MethodCenter:
			placeCenter(item, target, ctx)
		case MethodPerimeter:
			placePerimeter(item, target, ctx)
		case MethodEdge:
			placeEdge(item, target, ctx)
		case MethodPercent:
			placePercent(item, target, ctx)
		default:
			placeChildren(item, target, ctx)
		}
	}
	s.checker.ResetSession()
}

// spawnZoneChildren expands every zone asset recorded during the main pass:
// resolve its sub-areas into world space, optionally rescale them to the
// enclosing region, and run its inner spawn groups.
func (s *Spawner) spawnZoneChildren(zoneSpawns []zoneSpawnRecord, area *geom.Area) {
	for _, rec := range zoneSpawns {
		if rec.asset == nil || rec.asset.Info == nil {
			continue
		}
		info := rec.asset.Info

		zoneWorld, err := rec.asset.WorldArea("zone")
		if err != nil || zoneWorld.PointCount() < 3 {
			continue
		}
		region := rec.region
		if region == nil {
			region = area
		}

		if rec.adjust && region != nil {
			zoneWorld = rescaleZoneToRegion(zoneWorld, rec.asset.Pos, info, region)
		}

		areaLookup := make(map[string]*geom.Area)
		for _, named := range info.Areas {
			if named.Area == nil {
				continue
			}
			worldArea, err := rec.asset.WorldArea(named.Name)
			if err != nil || worldArea.PointCount() < 3 {
				continue
			}
			areaLookup[named.Name] = worldArea
		}

		raw := info.SpawnGroupsPayload()
		if len(raw) == 0 {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			slog.Debug("zone asset has unreadable spawn groups", "asset", rec.asset.Name(), "err", err)
			continue
		}
		childPlanner := NewPlanner([]map[string]any{payload}, zoneWorld, s.library, s.rng, nil)
		childStart := len(s.all)
		s.SpawnChildren(zoneWorld, areaLookup, childPlanner)
		for _, child := range s.all[childStart:] {
			if child == nil {
				continue
			}
			child.Parent = rec.asset
			child.SetOwningRoomName(rec.asset.OwningRoomName())
			child.Depth = rec.asset.Depth + 1
			rec.asset.Children = append(rec.asset.Children, child)
		}
	}
}

// rescaleZoneToRegion stretches a zone polygon about the asset's anchor so
// that the authored canvas maps onto the enclosing region's dimensions.
func rescaleZoneToRegion(zoneWorld *geom.Area, anchor grid.Point, info *asset.Info, region *geom.Area) *geom.Area {
	regionW := max(1, region.Width())
	regionH := max(1, region.Height())
	originW := max(1, info.OriginalCanvasWidth)
	originH := max(1, info.OriginalCanvasHeight)
	sx := float64(regionW) / float64(originW)
	sy := float64(regionH) / float64(originH)

	pts := zoneWorld.Points()
	adjusted := make([]grid.Point, 0, len(pts))
	for _, p := range pts {
		dx := float64(p.X - anchor.X)
		dy := float64(p.Y - anchor.Y)
		adjusted = append(adjusted, grid.Point{
			X: anchor.X + int(math.Round(dx*sx)),
			Y: anchor.Y + int(math.Round(dy*sy)),
		})
	}
	out := geom.NewAreaFromPoints(zoneWorld.Name(), adjusted, zoneWorld.Resolution())
	out.SetType(zoneWorld.Type())
	return out
}

func (s *Spawner) collectTrailAreas() []*geom.Area {
	trails := append([]*geom.Area(nil), s.trailAreas...)
	if s.currentRoom == nil {
		return trails
	}
	if s.currentRoom.IsTrail() && s.currentRoom.Area != nil {
		trails = append(trails, s.currentRoom.Area)
	}
	for i := range s.currentRoom.Areas {
		named := &s.currentRoom.Areas[i]
		if named.Area != nil && named.Type == "trail" {
			trails = append(trails, named.Area)
		}
	}
	return trails
}

// collectSpacingAssetNames gathers the candidate names of every item that
// opted into spacing; these names form the session spacing filter.
func collectSpacingAssetNames(queue []Item) map[string]struct{} {
	names := make(map[string]struct{}, len(queue))
	for i := range queue {
		if !queue[i].CheckMinSpacing {
			continue
		}
		for _, cand := range queue[i].Candidates {
			if cand.Info == nil || cand.Info.Name == "" {
				continue
			}
			names[cand.Info.Name] = struct{}{}
		}
	}
	return names
}
