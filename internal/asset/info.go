// Package asset holds the static asset catalog (Info, Library) and the
// spawned Asset instances the engine produces.
package asset

import (
	"encoding/json"
	"fmt"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// Type tags the spawn engine inspects. Everything else is opaque.
const (
	TypeBoundary = "boundary"
	TypeZone     = "zone_asset"
)

// NamedArea is a sub-polygon authored in the asset's local space.
type NamedArea struct {
	Name              string
	Area              *geom.Area
	AttachmentSubtype string
}

// Info is the static metadata for one asset name. Infos live in a Library
// that outlives all spawn sessions; candidates reference them by pointer.
type Info struct {
	Name                 string
	Type                 string
	ScaleFactor          float64
	OriginalCanvasWidth  int
	OriginalCanvasHeight int

	// Spacing rules consumed by the checker.
	NeighborSearchRadius int
	MinSameTypeDistance  int
	MinDistanceAll       int

	Areas    []NamedArea
	Tags     []string
	AntiTags []string

	// Raw spawn_groups payload for zone assets; nil otherwise.
	spawnGroups json.RawMessage
}

// HasTag reports whether the info carries the tag.
func (i *Info) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FindArea returns the named sub-area, or nil.
func (i *Info) FindArea(name string) *geom.Area {
	for idx := range i.Areas {
		if i.Areas[idx].Name == name {
			return i.Areas[idx].Area
		}
	}
	return nil
}

// SpawnGroupsPayload returns the raw descriptor payload for a zone asset.
func (i *Info) SpawnGroupsPayload() json.RawMessage { return i.spawnGroups }

// SetSpawnGroupsPayload attaches a descriptor payload, making the asset a
// recursive spawn source when its type is TypeZone.
func (i *Info) SetSpawnGroupsPayload(payload json.RawMessage) { i.spawnGroups = payload }

// infoJSON mirrors the persisted asset-info entry.
type infoJSON struct {
	Type                 string          `json:"type"`
	ScaleFactor          float64         `json:"scale_factor"`
	OriginalCanvasWidth  int             `json:"original_canvas_width"`
	OriginalCanvasHeight int             `json:"original_canvas_height"`
	NeighborSearchRadius int             `json:"NeighborSearchRadius"`
	MinSameTypeDistance  int             `json:"min_same_type_distance"`
	MinDistanceAll       int             `json:"min_distance_all"`
	Tags                 []string        `json:"tags"`
	AntiTags             []string        `json:"anti_tags"`
	Areas                []areaJSON      `json:"areas"`
	SpawnGroups          json.RawMessage `json:"spawn_groups"`
}

type areaJSON struct {
	Name              string      `json:"name"`
	AttachmentSubtype string      `json:"attachment_subtype,omitempty"`
	Resolution        int         `json:"resolution"`
	Points            []pointJSON `json:"points"`
}

type pointJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ParseInfo decodes one asset-info catalog entry.
func ParseInfo(name string, data []byte) (*Info, error) {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing asset info %q: %w", name, err)
	}
	info := &Info{
		Name:                 name,
		Type:                 raw.Type,
		ScaleFactor:          raw.ScaleFactor,
		OriginalCanvasWidth:  raw.OriginalCanvasWidth,
		OriginalCanvasHeight: raw.OriginalCanvasHeight,
		NeighborSearchRadius: raw.NeighborSearchRadius,
		MinSameTypeDistance:  raw.MinSameTypeDistance,
		MinDistanceAll:       raw.MinDistanceAll,
		Tags:                 raw.Tags,
		AntiTags:             raw.AntiTags,
		spawnGroups:          raw.SpawnGroups,
	}
	for _, aj := range raw.Areas {
		points := make([]grid.Point, 0, len(aj.Points))
		for _, p := range aj.Points {
			points = append(points, grid.Point{X: p.X, Y: p.Y})
		}
		area := geom.NewAreaFromPoints(aj.Name, points, aj.Resolution)
		info.Areas = append(info.Areas, NamedArea{
			Name:              aj.Name,
			Area:              area,
			AttachmentSubtype: aj.AttachmentSubtype,
		})
	}
	return info, nil
}
