package spawn

import (
	"math/rand/v2"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/room"
	"github.com/vibble/engine/internal/world"
)

// Context is the shared per-session state every placement strategy reads:
// the session RNG, the spacing checker, the occupancy being consumed, and
// the accumulating result list.
type Context struct {
	rng            *rand.Rand
	checker        *Checker
	exclusionZones []*geom.Area
	library        *asset.Library
	all            *[]*asset.Asset
	grid           *grid.Grid
	worldGrid      *world.Grid
	occupancy      *grid.Occupancy

	spawnResolution         int
	clipArea                *geom.Area
	trailAreas              []*geom.Area
	mapGridSettings         room.MapGridSettings
	checksEnabled           bool
	allowPartialClipOverlap bool
	spacingFilter           map[string]struct{}
	recorder                Recorder
}

// Recorder observes every constructed asset synchronously, before the
// strategy moves on. The manifest store implements this.
type Recorder interface {
	RecordSpawn(a *asset.Asset)
}

// NewContext wires a context over the session collaborators. occupancy may
// be nil; the default resolution then comes from the grid.
func NewContext(rng *rand.Rand, checker *Checker, exclusionZones []*geom.Area, library *asset.Library, all *[]*asset.Asset, g *grid.Grid, worldGrid *world.Grid, occupancy *grid.Occupancy) *Context {
	resolution := g.DefaultResolution()
	if occupancy != nil {
		resolution = occupancy.Resolution()
	}
	return &Context{
		rng:             rng,
		checker:         checker,
		exclusionZones:  exclusionZones,
		library:         library,
		all:             all,
		grid:            g,
		worldGrid:       worldGrid,
		occupancy:       occupancy,
		spawnResolution: resolution,
		checksEnabled:   true,
	}
}

func (c *Context) RNG() *rand.Rand { return c.rng }

func (c *Context) Checker() *Checker { return c.checker }

func (c *Context) ExclusionZones() []*geom.Area { return c.exclusionZones }

func (c *Context) Library() *asset.Library { return c.library }

func (c *Context) AllAssets() []*asset.Asset { return *c.all }

func (c *Context) Grid() *grid.Grid { return c.grid }

func (c *Context) Occupancy() *grid.Occupancy { return c.occupancy }

// SpawnResolution is the grid resolution new assets are tagged with.
func (c *Context) SpawnResolution() int { return c.spawnResolution }

func (c *Context) SetSpawnResolution(r int) { c.spawnResolution = grid.ClampResolution(r) }

// ChecksEnabled gates exclusion and spacing tests; child sessions disable it.
func (c *Context) ChecksEnabled() bool      { return c.checksEnabled }
func (c *Context) SetChecksEnabled(on bool) { c.checksEnabled = on }

// AllowPartialClipOverlap relaxes the clip test to accept positions whose
// occupancy cell merely overlaps the clip area.
func (c *Context) AllowPartialClipOverlap() bool { return c.allowPartialClipOverlap }

func (c *Context) SetAllowPartialClipOverlap(on bool) { c.allowPartialClipOverlap = on }

// ClipArea restricts placement to a linked sub-area when set.
func (c *Context) ClipArea() *geom.Area     { return c.clipArea }
func (c *Context) SetClipArea(a *geom.Area) { c.clipArea = a }

func (c *Context) SetTrailAreas(areas []*geom.Area) { c.trailAreas = areas }

func (c *Context) TrailAreas() []*geom.Area { return c.trailAreas }

func (c *Context) MapGridSettings() room.MapGridSettings { return c.mapGridSettings }

// SetMapGridSettings installs the room's grid settings and realigns the
// spawn resolution with them when no occupancy dictates one.
func (c *Context) SetMapGridSettings(settings room.MapGridSettings) {
	settings.Clamp()
	c.mapGridSettings = settings
	if c.occupancy != nil {
		c.spawnResolution = c.occupancy.Resolution()
	} else {
		c.spawnResolution = grid.ClampResolution(settings.Resolution)
	}
}

// SetSpacingFilter limits default spacing tracking to the named assets.
func (c *Context) SetSpacingFilter(names map[string]struct{}) { c.spacingFilter = names }

// TrackSpacingFor decides whether a freshly placed asset joins the tracked
// spacing index.
func (c *Context) TrackSpacingFor(info *asset.Info, enforceSpacing bool) bool {
	return c.trackSpacingFor(info, enforceSpacing, true)
}

func (c *Context) trackSpacingFor(info *asset.Info, enforceSpacing, defaultTrack bool) bool {
	if !defaultTrack {
		return false
	}
	if enforceSpacing {
		return true
	}
	if c.spacingFilter == nil {
		return defaultTrack
	}
	if info == nil {
		return false
	}
	_, ok := c.spacingFilter[info.Name]
	return ok
}

// AreaCenter returns the area's anchor point.
func (c *Context) AreaCenter(area *geom.Area) grid.Point { return area.Center() }

// PointWithinArea draws a uniform point inside the area's polygon, falling
// back to the origin after 100 rejected samples.
func (c *Context) PointWithinArea(area *geom.Area) grid.Point {
	return area.RandomPointWithin(c.rng)
}

// PositionAllowed tests a position against an area, honoring the
// partial-overlap relaxation when enabled.
func (c *Context) PositionAllowed(area *geom.Area, pos grid.Point) bool {
	if area.ContainsPoint(pos) {
		return true
	}
	if !c.allowPartialClipOverlap || c.occupancy == nil {
		return false
	}
	return c.occupancy.CellOverlaps(area, pos)
}

// PointOverlapsTrail reports whether a point lies inside any registered
// trail area other than ignore.
func (c *Context) PointOverlapsTrail(pt grid.Point, ignore *geom.Area) bool {
	for _, trail := range c.trailAreas {
		if trail == nil || trail == ignore {
			continue
		}
		if trail.ContainsPoint(pt) {
			return true
		}
	}
	return false
}

// SpawnAsset constructs an asset at pos, appends it to the session result
// list, and inserts it into the world grid. Returns nil when the clip area
// rejects the position.
func (c *Context) SpawnAsset(info *asset.Info, pos grid.Point, depth int, parent *asset.Asset, spawnID, spawnMethod string) *asset.Asset {
	if c.clipArea != nil && !c.PositionAllowed(c.clipArea, pos) {
		return nil
	}
	a := asset.New(info, pos, depth, parent, spawnID, spawnMethod, c.spawnResolution)
	*c.all = append(*c.all, a)
	if c.checker != nil {
		c.checker.NoteSessionAsset(a)
	}
	if c.worldGrid != nil {
		c.worldGrid.Insert(a)
	}
	if c.recorder != nil {
		c.recorder.RecordSpawn(a)
	}
	return a
}

// SetRecorder installs the manifest observer for this session.
func (c *Context) SetRecorder(r Recorder) { c.recorder = r }
