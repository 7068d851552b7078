package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine holds all configuration for the spawn engine.
type Engine struct {
	// Seed drives every RNG in a session; 0 means derive from the clock.
	Seed uint64 `yaml:"seed"`

	// Paths
	AssetLibraryDir string `yaml:"asset_library_dir"`
	MapDir          string `yaml:"map_dir"`
	SchemaPath      string `yaml:"schema_path"`

	// Manifest database; empty disables recording.
	ManifestPath string `yaml:"manifest_path"`

	Grid  GridConfig  `yaml:"grid"`
	Spawn SpawnConfig `yaml:"spawn"`

	// Loader parallelism for descriptor parsing.
	LoadWorkers int `yaml:"load_workers"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// GridConfig configures the shared placement grid.
type GridConfig struct {
	OriginX           int `yaml:"origin_x"`
	OriginY           int `yaml:"origin_y"`
	DefaultResolution int `yaml:"default_resolution"`
}

// SpawnConfig tunes session-level behavior.
type SpawnConfig struct {
	// WorldGridResolution is the lookup-grid cell exponent for spawned
	// assets, independent of placement resolution.
	WorldGridResolution int `yaml:"world_grid_resolution"`

	// BoundaryResolutionFloor is the minimum grid resolution for
	// standalone boundary descriptors.
	BoundaryResolutionFloor int `yaml:"boundary_resolution_floor"`

	// ValidateDescriptors toggles JSON Schema validation on load.
	ValidateDescriptors bool `yaml:"validate_descriptors"`
}

// DefaultEngine returns Engine config with sensible defaults.
func DefaultEngine() Engine {
	return Engine{
		Seed:            0,
		AssetLibraryDir: "assets",
		MapDir:          "maps",
		SchemaPath:      "schema/spawn_group.schema.json",
		ManifestPath:    "",
		Grid: GridConfig{
			OriginX:           0,
			OriginY:           0,
			DefaultResolution: 5,
		},
		Spawn: SpawnConfig{
			WorldGridResolution:     7,
			BoundaryResolutionFloor: 5,
			ValidateDescriptors:     true,
		},
		LoadWorkers: 4,
		LogLevel:    "info",
	}
}

// LoadEngine loads engine config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
