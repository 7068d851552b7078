package asset

import (
	"fmt"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// Asset is one spawned instance. The spawn engine treats it as an opaque
// handle carrying a position, its static info, and its spawn identity.
type Asset struct {
	Pos         grid.Point
	Info        *Info
	SpawnID     string
	SpawnMethod string
	Dead        bool

	Depth    int
	Parent   *Asset
	Children []*Asset

	owningRoomName  string
	spawnResolution int
	zOffset         int
	hidden          bool
}

// New constructs an asset at a world position with a spawn identity. The
// resolution records the grid the asset was placed at.
func New(info *Info, pos grid.Point, depth int, parent *Asset, spawnID, spawnMethod string, spawnResolution int) *Asset {
	return &Asset{
		Pos:             pos,
		Info:            info,
		SpawnID:         spawnID,
		SpawnMethod:     spawnMethod,
		Depth:           depth,
		Parent:          parent,
		spawnResolution: grid.ClampResolution(spawnResolution),
	}
}

// Name returns the asset's info name, or "<null>" when info is missing.
func (a *Asset) Name() string {
	if a.Info == nil {
		return "<null>"
	}
	return a.Info.Name
}

// IsZoneAsset reports whether the asset recursively spawns children over its
// own sub-areas.
func (a *Asset) IsZoneAsset() bool {
	return a.Info != nil && a.Info.Type == TypeZone
}

// SpawnResolution returns the resolution the asset was placed at.
func (a *Asset) SpawnResolution() int { return a.spawnResolution }

// OwningRoomName returns the room that produced the asset.
func (a *Asset) OwningRoomName() string { return a.owningRoomName }

// SetOwningRoomName records the producing room.
func (a *Asset) SetOwningRoomName(name string) { a.owningRoomName = name }

// ZOffset returns the draw-order offset relative to the parent.
func (a *Asset) ZOffset() int { return a.zOffset }

// SetZOffset records the draw-order offset.
func (a *Asset) SetZOffset(z int) { a.zOffset = z }

// Hidden reports whether external collaborators should skip the asset.
func (a *Asset) Hidden() bool { return a.hidden }

// SetHidden flips visibility for external collaborators.
func (a *Asset) SetHidden(hidden bool) { a.hidden = hidden }

// WorldArea resolves one of the asset's authored sub-areas into world space by
// translating it to the asset's position.
func (a *Asset) WorldArea(name string) (*geom.Area, error) {
	if a.Info == nil {
		return nil, fmt.Errorf("asset has no info")
	}
	authored := a.Info.FindArea(name)
	if authored == nil {
		return nil, fmt.Errorf("asset %q has no area %q", a.Name(), name)
	}
	world := authored.Clone()
	world.ApplyOffset(a.Pos.X, a.Pos.Y)
	return world, nil
}
