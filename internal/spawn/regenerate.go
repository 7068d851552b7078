package spawn

import (
	"fmt"
	"log/slog"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/room"
)

// Regenerate removes every asset a spawn group previously produced in the
// room and runs that one group again with a fresh queue. The descriptor is
// re-read, so edits made since the last session take effect.
func (s *Spawner) Regenerate(r *room.Room, spawnID string) error {
	if r == nil {
		return fmt.Errorf("regenerate %s: nil room", spawnID)
	}
	entry := findSpawnGroup(r.SpawnGroups(), spawnID)
	if entry == nil {
		return fmt.Errorf("regenerate: spawn group %s not found in room %s", spawnID, r.Name)
	}

	removed := s.removeSpawned(r, spawnID)
	slog.Info("regenerating spawn group",
		"room", r.Name,
		"spawn_id", spawnID,
		"removed", removed,
	)

	source := map[string]any{"spawn_groups": []any{entry}}
	planner := NewPlanner([]map[string]any{source}, r.Area, s.library, s.rng, nil)

	s.currentRoom = r
	s.mapGridSettings = r.Grid
	s.runSpawning(planner, r.Area)
	s.currentRoom = nil

	r.AddAssets(s.ExtractAllAssets())
	return nil
}

// removeSpawned drops a group's assets from the room list and the world
// grid, children included.
func (s *Spawner) removeSpawned(r *room.Room, spawnID string) int {
	removed := 0
	kept := r.Assets[:0]
	for _, a := range r.Assets {
		if a != nil && belongsToGroup(a, spawnID) {
			removed++
			if s.worldGrid != nil {
				s.worldGrid.Remove(a)
			}
			continue
		}
		kept = append(kept, a)
	}
	r.Assets = kept
	if s.worldGrid != nil {
		removed += s.worldGrid.RemoveBySpawnID(spawnID)
	}
	return removed
}

func belongsToGroup(a *asset.Asset, spawnID string) bool {
	for cur := a; cur != nil; cur = cur.Parent {
		if cur.SpawnID == spawnID {
			return true
		}
	}
	return false
}

func findSpawnGroup(groups []any, spawnID string) map[string]any {
	for _, raw := range groups {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if readString(entry, "spawn_id") == spawnID {
			return entry
		}
	}
	return nil
}
