package spawn

import (
	"log/slog"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/world"
)

type cellKey uint64

func makeCellKey(index grid.Point) cellKey {
	return cellKey(uint64(uint32(index.X))<<32 | uint64(uint32(index.Y)))
}

// Checker enforces inter-asset spacing rules over a session. Placed assets
// are registered into cell indices keyed by the session resolution; a lookup
// then only visits the cells a spacing radius can reach.
type Checker struct {
	grid          *grid.Grid
	resolution    int
	cellWorldSize int
	debug         bool
	worldIndex    *world.Grid

	allCells          map[cellKey][]*asset.Asset
	enforcedCells     map[cellKey][]*asset.Asset
	nameCells         map[string]map[cellKey][]*asset.Asset
	enforcedNameCells map[string]map[cellKey][]*asset.Asset
	tracked           map[*asset.Asset]struct{}
	enforced          map[*asset.Asset]struct{}
	sessionAssets     map[*asset.Asset]struct{}
}

// NewChecker returns an idle checker. BeginSession must run before any
// registration takes effect spatially.
func NewChecker(debug bool) *Checker {
	c := &Checker{debug: debug, cellWorldSize: 1}
	c.clearIndices()
	return c
}

// SetDebug toggles verbose check logging.
func (c *Checker) SetDebug(debug bool) { c.debug = debug }

// AttachWorldIndex lets spacing checks consult assets placed by earlier
// sessions. World-indexed assets constrain only candidates that opted into
// spacing, since their own session flags are not carried.
func (c *Checker) AttachWorldIndex(wg *world.Grid) { c.worldIndex = wg }

// NoteSessionAsset marks an asset as produced by the current session so the
// world-index lookup never double-counts it; session assets are governed by
// RegisterAsset and the spacing filter instead.
func (c *Checker) NoteSessionAsset(a *asset.Asset) {
	if a != nil {
		c.sessionAssets[a] = struct{}{}
	}
}

// BeginSession binds the checker to a grid and resolution and drops all
// prior registrations.
func (c *Checker) BeginSession(g *grid.Grid, resolution int) {
	c.grid = g
	c.resolution = grid.ClampResolution(resolution)
	c.cellWorldSize = max(1, grid.Delta(c.resolution))
	c.clearIndices()
}

// ResetSession detaches the checker from its grid and drops registrations.
func (c *Checker) ResetSession() {
	c.grid = nil
	c.resolution = 0
	c.cellWorldSize = 1
	c.worldIndex = nil
	c.clearIndices()
}

func (c *Checker) clearIndices() {
	c.allCells = make(map[cellKey][]*asset.Asset)
	c.enforcedCells = make(map[cellKey][]*asset.Asset)
	c.nameCells = make(map[string]map[cellKey][]*asset.Asset)
	c.enforcedNameCells = make(map[string]map[cellKey][]*asset.Asset)
	c.tracked = make(map[*asset.Asset]struct{})
	c.enforced = make(map[*asset.Asset]struct{})
	c.sessionAssets = make(map[*asset.Asset]struct{})
}

// RegisterAsset records a placed asset for subsequent spacing lookups.
// Enforced assets constrain everyone; tracked assets constrain only items
// that opted into spacing.
func (c *Checker) RegisterAsset(a *asset.Asset, enforceSpacing, trackForSpacing bool) {
	if a == nil || a.Info == nil {
		return
	}
	if c.grid == nil {
		if enforceSpacing {
			c.enforced[a] = struct{}{}
		}
		if trackForSpacing {
			c.tracked[a] = struct{}{}
		}
		return
	}

	key := makeCellKey(c.grid.WorldToIndex(a.Pos, c.resolution))

	if enforceSpacing {
		c.enforced[a] = struct{}{}
		c.enforcedCells[key] = append(c.enforcedCells[key], a)
		if a.Info.Name != "" {
			byCell := c.enforcedNameCells[a.Info.Name]
			if byCell == nil {
				byCell = make(map[cellKey][]*asset.Asset)
				c.enforcedNameCells[a.Info.Name] = byCell
			}
			byCell[key] = append(byCell[key], a)
		}
	}

	if trackForSpacing {
		c.tracked[a] = struct{}{}
		c.allCells[key] = append(c.allCells[key], a)
		if a.Info.Name != "" {
			byCell := c.nameCells[a.Info.Name]
			if byCell == nil {
				byCell = make(map[cellKey][]*asset.Asset)
				c.nameCells[a.Info.Name] = byCell
			}
			byCell[key] = append(byCell[key], a)
		}
	}
}

// Check reports whether a placement at testPos violates exclusion zones or
// spacing rules. True means the position is rejected.
func (c *Checker) Check(info *asset.Info, testPos grid.Point, exclusionAreas []*geom.Area, placed []*asset.Asset, respectExclusionZones, enforceSpacingForCandidate, treatAsEdgeAsset, treatAsMapAsset bool) bool {
	if info == nil {
		if c.debug {
			slog.Debug("check: nil asset info")
		}
		return false
	}

	if respectExclusionZones && insideExclusionZone(testPos, exclusionAreas) {
		if c.debug {
			slog.Debug("check: position inside exclusion zone", "x", testPos.X, "y", testPos.Y)
		}
		return true
	}

	if c.grid == nil {
		return c.spacingChecksLinear(info, testPos, placed, enforceSpacingForCandidate, treatAsEdgeAsset, treatAsMapAsset)
	}
	return c.spacingChecksGrid(info, testPos, enforceSpacingForCandidate, treatAsEdgeAsset, treatAsMapAsset)
}

func (c *Checker) gatherFromCells(cells map[cellKey][]*asset.Asset, pos grid.Point, radius int, out []*asset.Asset, seen map[*asset.Asset]struct{}) []*asset.Asset {
	if c.grid == nil || radius <= 0 || len(cells) == 0 {
		return out
	}
	origin := c.grid.WorldToIndex(pos, c.resolution)
	span := (radius + c.cellWorldSize - 1) / c.cellWorldSize
	if span < 0 {
		span = 0
	}
	for dy := -span; dy <= span; dy++ {
		for dx := -span; dx <= span; dx++ {
			bucket, ok := cells[makeCellKey(grid.Point{X: origin.X + dx, Y: origin.Y + dy})]
			if !ok {
				continue
			}
			for _, a := range bucket {
				if a == nil {
					continue
				}
				if _, dup := seen[a]; dup {
					continue
				}
				seen[a] = struct{}{}
				out = append(out, a)
			}
		}
	}
	return out
}

func (c *Checker) gatherFromNamedCells(cells map[string]map[cellKey][]*asset.Asset, name string, pos grid.Point, radius int, out []*asset.Asset, seen map[*asset.Asset]struct{}) []*asset.Asset {
	if c.grid == nil || radius <= 0 || name == "" {
		return out
	}
	byCell, ok := cells[name]
	if !ok {
		return out
	}
	return c.gatherFromCells(byCell, pos, radius, out, seen)
}

func (c *Checker) spacingChecksGrid(info *asset.Info, testPos grid.Point, enforceSpacingForCandidate, treatAsEdgeAsset, treatAsMapAsset bool) bool {
	if info.Type == asset.TypeBoundary {
		return false
	}
	if treatAsEdgeAsset || treatAsMapAsset {
		return false
	}

	minAll := info.MinDistanceAll
	minSame := info.MinSameTypeDistance
	if minAll <= 0 && minSame <= 0 {
		return false
	}

	if minAll > 0 {
		seen := make(map[*asset.Asset]struct{})
		neighbors := c.gatherFromCells(c.enforcedCells, testPos, minAll, nil, seen)
		if enforceSpacingForCandidate {
			neighbors = c.gatherFromCells(c.allCells, testPos, minAll, neighbors, seen)
		}
		for _, a := range neighbors {
			if a.Info == nil {
				continue
			}
			if a.InRange(testPos, minAll) {
				if c.debug {
					slog.Debug("check: min distance (all) violated", "by", a.Name(), "x", a.Pos.X, "y", a.Pos.Y)
				}
				return true
			}
		}
	}

	if minSame > 0 && info.Name != "" {
		seen := make(map[*asset.Asset]struct{})
		neighbors := c.gatherFromNamedCells(c.enforcedNameCells, info.Name, testPos, minSame, nil, seen)
		if enforceSpacingForCandidate {
			neighbors = c.gatherFromNamedCells(c.nameCells, info.Name, testPos, minSame, neighbors, seen)
		}
		for _, a := range neighbors {
			if a.Info == nil || a.Info.Name != info.Name {
				continue
			}
			if a.InRange(testPos, minSame) {
				if c.debug {
					slog.Debug("check: min same-name distance violated", "by", a.Name(), "x", a.Pos.X, "y", a.Pos.Y)
				}
				return true
			}
		}
	}

	if enforceSpacingForCandidate && c.worldIndex != nil {
		for _, a := range c.worldIndex.AssetsNear(testPos, max(minAll, minSame)) {
			if a == nil || a.Info == nil {
				continue
			}
			if _, session := c.sessionAssets[a]; session {
				continue
			}
			if minAll > 0 && a.InRange(testPos, minAll) {
				if c.debug {
					slog.Debug("check: min distance (all) violated by indexed asset", "by", a.Name(), "x", a.Pos.X, "y", a.Pos.Y)
				}
				return true
			}
			if minSame > 0 && a.Info.Name == info.Name && a.InRange(testPos, minSame) {
				if c.debug {
					slog.Debug("check: min same-name distance violated by indexed asset", "by", a.Name(), "x", a.Pos.X, "y", a.Pos.Y)
				}
				return true
			}
		}
	}

	return false
}

// spacingChecksLinear is the fallback when no session grid is bound: scan
// every placed asset.
func (c *Checker) spacingChecksLinear(info *asset.Info, testPos grid.Point, placed []*asset.Asset, enforceSpacingForCandidate, treatAsEdgeAsset, treatAsMapAsset bool) bool {
	if info.Type == asset.TypeBoundary {
		return false
	}
	if treatAsEdgeAsset || treatAsMapAsset {
		return false
	}

	minAll := info.MinDistanceAll
	minSame := info.MinSameTypeDistance
	if minAll <= 0 && minSame <= 0 {
		return false
	}

	for _, existing := range placed {
		if existing == nil || existing.Info == nil {
			continue
		}
		_, isEnforced := c.enforced[existing]
		_, isTracked := c.tracked[existing]

		if minAll > 0 {
			shouldCheck := isEnforced || (enforceSpacingForCandidate && isTracked)
			if shouldCheck && existing.InRange(testPos, minAll) {
				return true
			}
		}

		if minSame > 0 && info.Name != "" && existing.Info.Name == info.Name {
			shouldCheck := isEnforced || enforceSpacingForCandidate
			if shouldCheck && existing.InRange(testPos, minSame) {
				return true
			}
		}
	}

	return false
}

func insideExclusionZone(pos grid.Point, zones []*geom.Area) bool {
	for _, zone := range zones {
		if zone != nil && zone.ContainsPoint(pos) {
			return true
		}
	}
	return false
}
