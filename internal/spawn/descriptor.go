package spawn

import (
	"math"
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"

	"github.com/vibble/engine/internal/grid"
)

// Descriptor sanitization. Entries are map[string]any straight from
// encoding/json so unknown authored fields survive a round-trip untouched.

const (
	defaultMinNumber       = 1
	edgeInsetMin           = 0
	edgeInsetMax           = 200
	edgeInsetDefault       = 100
	perimeterRadiusDefault = 200
)

const hexDigits = "0123456789abcdef"

// GenerateSpawnID returns a fresh "spn-" identifier with twelve hex digits.
func GenerateSpawnID(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString("spn-")
	for range 12 {
		b.WriteByte(hexDigits[rng.IntN(16)])
	}
	return b.String()
}

func readInt(obj map[string]any, key string, fallback int) int {
	v, ok := obj[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(math.Round(n))
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}

func readFloat(obj map[string]any, key string, fallback float64) float64 {
	v, ok := obj[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func readBool(obj map[string]any, key string, fallback bool) bool {
	v, ok := obj[key]
	if !ok {
		return fallback
	}
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(b) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return fallback
}

func readString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func isIntegral(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return math.Abs(value-math.Round(value)) < 1e-9
}

// EnsureSpawnGroupsArray returns the root's spawn_groups array, creating an
// empty one when absent. A root that is itself an array is used directly.
func EnsureSpawnGroupsArray(root map[string]any) []any {
	if groups, ok := root["spawn_groups"].([]any); ok {
		return groups
	}
	groups := []any{}
	root["spawn_groups"] = groups
	return groups
}

// sanitizeCandidates normalizes an entry's candidates array: drops
// non-objects, defaults empty names to "null", folds legacy weight into
// chance, clamps chance non-negative, and guarantees at least the null
// fallback candidate. An entry with no candidates array but an authored
// name gets that name as its sole candidate, same as the parser's
// fallback.
func sanitizeCandidates(entry map[string]any) bool {
	changed := false
	rawCandidates, ok := entry["candidates"].([]any)
	if !ok {
		if name := readString(entry, "name"); name != "" {
			entry["candidates"] = []any{map[string]any{"name": name, "chance": 100}}
			return true
		}
		rawCandidates = []any{}
		changed = true
	}

	sanitized := make([]any, 0, len(rawCandidates))
	for _, raw := range rawCandidates {
		candidate, ok := raw.(map[string]any)
		if !ok {
			changed = true
			continue
		}
		if readString(candidate, "name") == "" {
			candidate["name"] = "null"
			changed = true
		}

		chance := 0.0
		haveChance := false
		if _, ok := candidate["chance"]; ok {
			chance = readFloat(candidate, "chance", 0)
			haveChance = true
		}
		if !haveChance {
			if _, ok := candidate["weight"]; ok {
				chance = readFloat(candidate, "weight", 0)
				haveChance = true
			}
		}
		if math.IsNaN(chance) || math.IsInf(chance, 0) || chance < 0 {
			chance = 0
		}
		if !haveChance || readFloat(candidate, "chance", chance) != chance {
			changed = true
		}
		if isIntegral(chance) {
			candidate["chance"] = int(math.Round(chance))
		} else {
			candidate["chance"] = chance
		}

		sanitized = append(sanitized, candidate)
	}

	if len(sanitized) == 0 {
		sanitized = append(sanitized, map[string]any{"name": "null", "chance": 0})
		changed = true
	}

	if !reflect.DeepEqual(sanitized, rawCandidates) {
		entry["candidates"] = sanitized
		changed = true
	}
	return changed
}

// SanitizeDescriptor runs SanitizeEntryDefaults over every spawn group in a
// descriptor object. Descriptors without a spawn_groups array are left
// untouched. Returns whether any entry was mutated.
func SanitizeDescriptor(root map[string]any, defaultDisplayName string, defaultResolution int, rng *rand.Rand) bool {
	if root == nil {
		return false
	}
	groups, ok := root["spawn_groups"].([]any)
	if !ok {
		return false
	}
	changed := false
	for _, raw := range groups {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if SanitizeEntryDefaults(entry, defaultDisplayName, defaultResolution, rng) {
			changed = true
		}
	}
	return changed
}

// SanitizeEntryDefaults fills every field a spawn group entry must carry so
// downstream parsing never guesses. Returns whether the entry was mutated.
// The stored position string is preserved; the "Exact Position" synonym is
// only normalized for method decisions.
func SanitizeEntryDefaults(entry map[string]any, defaultDisplayName string, defaultResolution int, rng *rand.Rand) bool {
	changed := false

	if readString(entry, "spawn_id") == "" {
		entry["spawn_id"] = GenerateSpawnID(rng)
		changed = true
	}
	if readString(entry, "display_name") == "" {
		entry["display_name"] = defaultDisplayName
		changed = true
	}
	if readString(entry, "position") == "" {
		entry["position"] = MethodRandom
		changed = true
	}

	method := readString(entry, "position")
	if method == MethodExactPosition {
		method = MethodExact
	}

	minNumber := max(1, readInt(entry, "min_number", 1))
	maxNumber := max(minNumber, readInt(entry, "max_number", minNumber))
	if method == MethodPerimeter {
		if minNumber < 2 {
			minNumber = 2
		}
		if maxNumber < minNumber {
			maxNumber = minNumber
		}
	}
	if setIntField(entry, "min_number", minNumber) {
		changed = true
	}
	if setIntField(entry, "max_number", maxNumber) {
		changed = true
	}

	if _, ok := entry["enforce_spacing"].(bool); !ok {
		entry["enforce_spacing"] = false
		changed = true
	}

	geometryMethod := method == MethodExact || method == MethodPerimeter
	geometryFlag := readBool(entry, "resolve_geometry_to_room_size", geometryMethod)
	if setBoolField(entry, "resolve_geometry_to_room_size", geometryFlag) {
		changed = true
	}
	quantityFlag := readBool(entry, "resolve_quantity_to_room_size", false)
	if setBoolField(entry, "resolve_quantity_to_room_size", quantityFlag) {
		changed = true
	}

	if _, ok := entry["locked"].(bool); !ok {
		entry["locked"] = false
		changed = true
	}

	resolution := grid.ClampResolution(readInt(entry, "resolution", grid.ClampResolution(defaultResolution)))
	if setIntField(entry, "resolution", resolution) {
		changed = true
	}

	if sanitizeCandidates(entry) {
		changed = true
	}

	switch method {
	case MethodEdge:
		inset := readInt(entry, "edge_inset_percent", edgeInsetDefault)
		clamped := min(max(inset, edgeInsetMin), edgeInsetMax)
		if setIntField(entry, "edge_inset_percent", clamped) {
			changed = true
		}
	case MethodPerimeter:
		radius := readInt(entry, "radius", readInt(entry, "perimeter_radius", perimeterRadiusDefault))
		if setIntField(entry, "radius", radius) {
			changed = true
		}
		if setIntField(entry, "perimeter_radius", radius) {
			changed = true
		}
	default:
		if _, ok := entry["edge_inset_percent"]; ok {
			delete(entry, "edge_inset_percent")
			changed = true
		}
	}

	return changed
}

func setIntField(obj map[string]any, key string, value int) bool {
	if current, ok := obj[key]; ok {
		if n, isInt := current.(int); isInt && n == value {
			return false
		}
		if f, isFloat := current.(float64); isFloat && isIntegral(f) && int(f) == value {
			return false
		}
	}
	obj[key] = value
	return true
}

func setBoolField(obj map[string]any, key string, value bool) bool {
	if current, ok := obj[key].(bool); ok && current == value {
		return false
	}
	obj[key] = value
	return true
}
