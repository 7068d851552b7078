package room

import (
	"log/slog"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// Rooms parses the "rooms" array of the map document. Rooms with fewer
// than three polygon points are skipped with a warning.
func (m *MapInfo) Rooms() []*Room {
	raw, ok := m.root["rooms"].([]any)
	if !ok {
		return nil
	}
	rooms := make([]*Room, 0, len(raw))
	for _, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		r := parseRoom(obj, m.Grid)
		if r == nil {
			continue
		}
		rooms = append(rooms, r)
	}
	return rooms
}

func parseRoom(obj map[string]any, settings MapGridSettings) *Room {
	name, _ := obj["name"].(string)
	roomType, _ := obj["type"].(string)
	pts := parsePoints(obj["points"])
	if len(pts) < 3 {
		slog.Warn("room has no usable polygon", "name", name)
		return nil
	}
	area := geom.NewAreaFromPoints(name, pts, 0)
	area.SetType(roomType)

	assetsData, _ := obj["assets_data"].(map[string]any)
	r := New(name, roomType, area, settings, assetsData)

	if rawAreas, ok := obj["areas"].([]any); ok {
		for _, rawArea := range rawAreas {
			areaObj, ok := rawArea.(map[string]any)
			if !ok {
				continue
			}
			na := parseNamedArea(areaObj)
			if na.Area == nil {
				continue
			}
			r.Areas = append(r.Areas, na)
		}
	}
	return r
}

func parseNamedArea(obj map[string]any) NamedArea {
	na := NamedArea{}
	na.Name, _ = obj["name"].(string)
	na.Type, _ = obj["type"].(string)
	na.Kind, _ = obj["kind"].(string)
	na.ScaleToRoom, _ = obj["scale_to_room"].(bool)
	if w, ok := readInt(obj, "origional_width"); ok {
		na.OriginalRoomWidth = w
	}
	if h, ok := readInt(obj, "origional_height"); ok {
		na.OriginalRoomHeight = h
	}
	pts := parsePoints(obj["points"])
	if len(pts) < 3 {
		return na
	}
	na.Area = geom.NewAreaFromPoints(na.Name, pts, 0)
	na.Area.SetType(na.Type)
	return na
}

// parsePoints accepts both [{"x":..,"y":..}, ...] and [[x,y], ...].
func parsePoints(raw any) []grid.Point {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	pts := make([]grid.Point, 0, len(arr))
	for _, item := range arr {
		switch v := item.(type) {
		case map[string]any:
			x, okX := readInt(v, "x")
			y, okY := readInt(v, "y")
			if okX && okY {
				pts = append(pts, grid.Point{X: x, Y: y})
			}
		case []any:
			if len(v) < 2 {
				continue
			}
			x, okX := toInt(v[0])
			y, okY := toInt(v[1])
			if okX && okY {
				pts = append(pts, grid.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
