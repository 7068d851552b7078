package room

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MapInfo is the map_info descriptor root. map_assets_data and
// map_boundary_data use the same spawn_groups syntax as room descriptors;
// trails_data carries one TrailTemplate per key.
type MapInfo struct {
	MapID           string
	MapAssetsData   map[string]any
	MapBoundaryData map[string]any
	TrailsData      map[string]any
	Grid            MapGridSettings

	root map[string]any
}

// ParseMapInfo decodes a map_info JSON document.
func ParseMapInfo(mapID string, raw []byte) (*MapInfo, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse map_info for %q: %w", mapID, err)
	}
	info := &MapInfo{MapID: mapID, root: root}
	info.MapAssetsData, _ = root["map_assets_data"].(map[string]any)
	info.MapBoundaryData, _ = root["map_boundary_data"].(map[string]any)
	info.TrailsData, _ = root["trails_data"].(map[string]any)
	if gridObj, ok := root["map_grid_settings"].(map[string]any); ok {
		info.Grid = MapGridSettingsFromJSON(gridObj)
	} else {
		info.Grid = DefaultMapGridSettings()
	}
	return info, nil
}

// TrailTemplates returns the parsed trail templates in key order.
func (m *MapInfo) TrailTemplates() []TrailTemplate {
	if len(m.TrailsData) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.TrailsData))
	for k := range m.TrailsData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	templates := make([]TrailTemplate, 0, len(keys))
	for _, k := range keys {
		obj, _ := m.TrailsData[k].(map[string]any)
		templates = append(templates, TrailTemplateFromJSON(k, obj))
	}
	return templates
}

// Encode serializes the descriptor root back to JSON, folding any mutated
// sections in first.
func (m *MapInfo) Encode() ([]byte, error) {
	if m.root == nil {
		m.root = map[string]any{}
	}
	if m.MapAssetsData != nil {
		m.root["map_assets_data"] = m.MapAssetsData
	}
	if m.MapBoundaryData != nil {
		m.root["map_boundary_data"] = m.MapBoundaryData
	}
	if m.TrailsData != nil {
		m.root["trails_data"] = m.TrailsData
	}
	gridObj, ok := m.root["map_grid_settings"].(map[string]any)
	if !ok {
		gridObj = map[string]any{}
		m.root["map_grid_settings"] = gridObj
	}
	m.Grid.ApplyToJSON(gridObj)
	out, err := json.Marshal(m.root)
	if err != nil {
		return nil, fmt.Errorf("encode map_info for %q: %w", m.MapID, err)
	}
	return out, nil
}
