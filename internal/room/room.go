package room

import (
	"fmt"
	"strings"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
)

// NamedArea is a secondary region authored inside a room: spawn zones,
// trigger volumes, impassable patches.
type NamedArea struct {
	Name               string
	Type               string
	Kind               string
	Area               *geom.Area
	ScaleToRoom        bool
	OriginalRoomWidth  int
	OriginalRoomHeight int
}

// Room is the unit the spawn engine operates on. Trails are rooms with
// Type "trail"; the map boundary is a room with Type "boundary".
type Room struct {
	Name     string
	Type     string
	Area     *geom.Area
	Grid     MapGridSettings
	Areas    []NamedArea
	Children []*Room

	// Assets holds everything spawned into the room this session.
	Assets []*asset.Asset

	assetsData map[string]any
}

// AddAssets appends spawned assets and stamps them with the room name.
func (r *Room) AddAssets(assets []*asset.Asset) {
	for _, a := range assets {
		if a == nil {
			continue
		}
		if a.OwningRoomName() == "" {
			a.SetOwningRoomName(r.Name)
		}
	}
	r.Assets = append(r.Assets, assets...)
}

// New builds a room over an area. assetsData is the descriptor object whose
// "spawn_groups" array drives spawning; it may be nil for empty rooms.
func New(name, roomType string, area *geom.Area, grid MapGridSettings, assetsData map[string]any) *Room {
	return &Room{
		Name:       name,
		Type:       strings.ToLower(roomType),
		Area:       area,
		Grid:       grid,
		assetsData: assetsData,
	}
}

// AssetsData returns the descriptor object, creating an empty one on first
// use so sanitizer writes always have a target.
func (r *Room) AssetsData() map[string]any {
	if r.assetsData == nil {
		r.assetsData = map[string]any{}
	}
	return r.assetsData
}

// SetAssetsData replaces the descriptor object wholesale.
func (r *Room) SetAssetsData(data map[string]any) { r.assetsData = data }

// SpawnGroups returns the spawn_groups array of the descriptor, or nil.
func (r *Room) SpawnGroups() []any {
	if r.assetsData == nil {
		return nil
	}
	groups, _ := r.assetsData["spawn_groups"].([]any)
	return groups
}

// SetSpawnGroups writes the spawn_groups array back onto the descriptor.
func (r *Room) SetSpawnGroups(groups []any) {
	r.AssetsData()["spawn_groups"] = groups
}

// FindArea looks up a named sub-area; the room's own area answers to the
// room name and to "room".
func (r *Room) FindArea(name string) *geom.Area {
	if name == "" || name == "room" || name == r.Name {
		return r.Area
	}
	for i := range r.Areas {
		if r.Areas[i].Name == name {
			return r.Areas[i].Area
		}
	}
	return nil
}

// UpsertNamedArea inserts or replaces a named sub-area.
func (r *Room) UpsertNamedArea(na NamedArea) {
	for i := range r.Areas {
		if r.Areas[i].Name == na.Name {
			r.Areas[i] = na
			return
		}
	}
	r.Areas = append(r.Areas, na)
}

// RemoveArea drops a named sub-area, reporting whether it existed.
func (r *Room) RemoveArea(name string) bool {
	for i := range r.Areas {
		if r.Areas[i].Name == name {
			r.Areas = append(r.Areas[:i], r.Areas[i+1:]...)
			return true
		}
	}
	return false
}

// Dimensions returns the current width and height of the room area.
func (r *Room) Dimensions() (int, int) {
	if r.Area == nil {
		return 0, 0
	}
	return r.Area.Width(), r.Area.Height()
}

// IsTrail reports whether this room is a trail region.
func (r *Room) IsTrail() bool { return r.Type == "trail" }

// IsSpawnRoom reports whether assets may be spawned inside this room.
func (r *Room) IsSpawnRoom() bool {
	return r.Type != "impassable" && r.Type != "boundary"
}

// InheritsMapAssets reports whether the map-wide layer may place assets in
// this room. Descriptors opt out with "inherits_map_assets": false.
func (r *Room) InheritsMapAssets() bool {
	if !r.IsSpawnRoom() {
		return false
	}
	if r.assetsData == nil {
		return true
	}
	if v, ok := r.assetsData["inherits_map_assets"].(bool); ok {
		return v
	}
	return true
}

func (r *Room) String() string {
	w, h := r.Dimensions()
	return fmt.Sprintf("room %q type=%s %dx%d", r.Name, r.Type, w, h)
}
