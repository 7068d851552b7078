package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/config"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
	"github.com/vibble/engine/internal/manifest"
	"github.com/vibble/engine/internal/room"
	"github.com/vibble/engine/internal/spawn"
	"github.com/vibble/engine/internal/world"
)

const ConfigPath = "config/spawnd.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", ConfigPath, "path to engine config")
	seedFlag := flag.Uint64("seed", 0, "override session seed")
	flag.Parse()

	if p := os.Getenv("SPAWND_CONFIG"); p != "" && *cfgPath == ConfigPath {
		*cfgPath = p
	}
	cfg, err := config.LoadEngine(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))
	slog.Info("spawnd starting", "config", *cfgPath)

	seed := cfg.Seed
	if *seedFlag != 0 {
		seed = *seedFlag
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	slog.Info("session seed", "seed", seed)

	grid.Default().SetDefaultResolution(cfg.Grid.DefaultResolution)

	// Asset library
	schemaPath := ""
	if cfg.Spawn.ValidateDescriptors {
		schemaPath = cfg.SchemaPath
	}
	loader, err := asset.NewLoader(schemaPath, cfg.LoadWorkers)
	if err != nil {
		return fmt.Errorf("creating asset loader: %w", err)
	}
	library := asset.NewLibrary()
	if err := loader.LoadDir(ctx, cfg.AssetLibraryDir, library); err != nil {
		return fmt.Errorf("loading asset library: %w", err)
	}

	// Manifest
	var recorder spawn.Recorder
	if cfg.ManifestPath != "" {
		store, err := manifest.Open(cfg.ManifestPath)
		if err != nil {
			return fmt.Errorf("opening manifest: %w", err)
		}
		defer store.Close()
		recorder = store
		slog.Info("manifest opened", "path", cfg.ManifestPath)
	}

	maps, err := listMaps(cfg.MapDir)
	if err != nil {
		return fmt.Errorf("listing maps: %w", err)
	}
	if len(maps) == 0 {
		return fmt.Errorf("no map documents in %s", cfg.MapDir)
	}

	for _, mapPath := range maps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := spawnMap(mapPath, cfg, library, recorder, seed); err != nil {
			return fmt.Errorf("spawning map %s: %w", mapPath, err)
		}
	}
	return nil
}

func spawnMap(path string, cfg config.Engine, library *asset.Library, recorder spawn.Recorder, seed uint64) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading map: %w", err)
	}
	mapID := strings.TrimSuffix(filepath.Base(path), ".json")
	info, err := room.ParseMapInfo(mapID, raw)
	if err != nil {
		return err
	}
	rooms := info.Rooms()
	slog.Info("map loaded", "map", mapID, "rooms", len(rooms), "resolution", info.Grid.Resolution)

	rooms = append(rooms, buildTrails(info, rooms, seed)...)

	if cfg.Spawn.ValidateDescriptors {
		sanitizer := rand.New(rand.NewPCG(seed, 3))
		for _, r := range rooms {
			if !r.IsSpawnRoom() {
				continue
			}
			if spawn.SanitizeDescriptor(r.AssetsData(), r.Name, info.Grid.Resolution, sanitizer) {
				slog.Debug("descriptor normalized", "map", mapID, "room", r.Name)
			}
		}
	}

	worldGrid := world.NewGrid(cfg.Spawn.WorldGridResolution)
	spawner := spawn.NewSpawner(library, exclusionZonesOf(rooms), worldGrid, seed)
	spawner.SetRecorder(recorder)
	spawner.SetTrailAreas(trailAreasOf(rooms))

	start := time.Now()
	spawned := 0
	for _, r := range rooms {
		if !r.IsSpawnRoom() {
			continue
		}
		r.Grid = info.Grid
		before := len(r.Assets)
		spawner.Spawn(r)
		spawned += len(r.Assets) - before
	}

	// Boundary ring
	if info.MapBoundaryData != nil {
		if boundary := findBoundaryRoom(rooms); boundary != nil {
			assets := spawner.SpawnBoundaryFromJSON(info.MapBoundaryData, boundary.Area)
			boundary.AddAssets(assets)
			spawned += len(assets)
		}
	}

	// Map-wide layer
	if info.MapAssetsData != nil {
		mapWide := spawn.NewMapWideSpawner(library, exclusionZonesOf(rooms), worldGrid, seed)
		mapWide.SetRecorder(recorder)
		assets := mapWide.Spawn(info.MapAssetsData, rooms, info.Grid)
		spawned += len(assets)
	}

	slog.Info("map spawned",
		"map", mapID,
		"assets", spawned,
		"world_grid", worldGrid.Len(),
		"took", time.Since(start),
	)
	return writeReport(path, mapID, rooms)
}

// writeReport emits a <map>.spawned.json summary next to the map document.
func writeReport(mapPath, mapID string, rooms []*room.Room) error {
	type placedAsset struct {
		Name    string `json:"name"`
		SpawnID string `json:"spawn_id"`
		Method  string `json:"method"`
		X       int    `json:"x"`
		Y       int    `json:"y"`
	}
	report := make(map[string][]placedAsset, len(rooms))
	for _, r := range rooms {
		for _, a := range r.Assets {
			report[r.Name] = append(report[r.Name], placedAsset{
				Name:    a.Name(),
				SpawnID: a.SpawnID,
				Method:  a.SpawnMethod,
				X:       a.Pos.X,
				Y:       a.Pos.Y,
			})
		}
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report for %s: %w", mapID, err)
	}
	reportPath := strings.TrimSuffix(mapPath, ".json") + ".spawned.json"
	if err := os.WriteFile(reportPath, out, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	slog.Info("report written", "path", reportPath)
	return nil
}

func listMaps(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var maps []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasSuffix(e.Name(), ".spawned.json") {
			continue
		}
		maps = append(maps, filepath.Join(dir, e.Name()))
	}
	return maps, nil
}

// buildTrails synthesizes corridor rooms from the map's trails_data. A
// template naming "from"/"to" rooms connects those; otherwise templates
// connect consecutive spawn rooms. Trail rooms join the session like any
// other room.
func buildTrails(info *room.MapInfo, rooms []*room.Room, seed uint64) []*room.Room {
	templates := info.TrailTemplates()
	if len(templates) == 0 {
		return nil
	}
	byName := make(map[string]*room.Room, len(rooms))
	var spawnRooms []*room.Room
	for _, r := range rooms {
		byName[r.Name] = r
		if r.IsSpawnRoom() && r.Area != nil {
			spawnRooms = append(spawnRooms, r)
		}
	}

	rng := rand.New(rand.NewPCG(seed, 2))
	var trails []*room.Room
	for i, tpl := range templates {
		var a, b *room.Room
		if from, ok := tpl.Data["from"].(string); ok {
			a = byName[from]
		}
		if to, ok := tpl.Data["to"].(string); ok {
			b = byName[to]
		}
		if a == nil || b == nil {
			if i+1 >= len(spawnRooms) {
				continue
			}
			a, b = spawnRooms[i], spawnRooms[i+1]
		}
		if a.Area == nil || b.Area == nil {
			continue
		}

		start := room.EdgePoint(a.Area.Center(), b.Area.Center(), a.Area)
		end := room.EdgePoint(b.Area.Center(), a.Area.Center(), b.Area)
		trail, err := room.BuildTrailRoom(tpl, start, end, info.Grid, rng)
		if err != nil {
			slog.Warn("skipping trail", "trail", tpl.Name, "err", err)
			continue
		}
		slog.Info("trail built", "trail", tpl.Name, "from", a.Name, "to", b.Name)
		trails = append(trails, trail)
	}
	return trails
}

func exclusionZonesOf(rooms []*room.Room) []*geom.Area {
	var zones []*geom.Area
	for _, r := range rooms {
		for i := range r.Areas {
			na := &r.Areas[i]
			if na.Type == "exclusion" && na.Area != nil {
				zones = append(zones, na.Area)
			}
		}
	}
	return zones
}

func trailAreasOf(rooms []*room.Room) []*geom.Area {
	var trails []*geom.Area
	for _, r := range rooms {
		if r.IsTrail() && r.Area != nil {
			trails = append(trails, r.Area)
		}
	}
	return trails
}

func findBoundaryRoom(rooms []*room.Room) *room.Room {
	for _, r := range rooms {
		if r.Type == "boundary" {
			return r
		}
	}
	return nil
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
