package spawn

import (
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// SourceContext lets a caller observe sanitizer mutations to one descriptor
// source, typically to resave the authoritative JSON.
type SourceContext struct {
	Persist func(map[string]any)
}

type sourceRef struct {
	sourceIndex int
	entryIndex  int
}

// Planner merges descriptor sources, sanitizes each spawn group in place,
// resolves candidate pools against the asset library, and yields the ordered
// work queue for a session.
type Planner struct {
	library  *asset.Library
	sources  []map[string]any
	contexts []SourceContext
	changed  []bool

	provenance []sourceRef
	merged     []map[string]any
	queue      []Item
	rng        *rand.Rand
}

// NewPlanner parses the sources against the target area. The RNG drives
// quantity expansion, tag resolution, and generated spawn ids, so a seeded
// caller gets a reproducible queue.
func NewPlanner(sources []map[string]any, area *geom.Area, library *asset.Library, rng *rand.Rand, contexts []SourceContext) *Planner {
	p := &Planner{
		library:  library,
		sources:  sources,
		contexts: contexts,
		changed:  make([]bool, len(sources)),
		rng:      rng,
	}
	for len(p.contexts) < len(p.sources) {
		p.contexts = append(p.contexts, SourceContext{})
	}

	for si, src := range p.sources {
		if src == nil {
			continue
		}
		for ei, raw := range EnsureSpawnGroupsArray(src) {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			p.merged = append(p.merged, entry)
			p.provenance = append(p.provenance, sourceRef{sourceIndex: si, entryIndex: ei})
		}
	}

	p.parseSpawnGroups(area)
	p.sortQueue()
	p.persistSources()
	return p
}

// Queue returns the spawn items in priority order.
func (p *Planner) Queue() []Item { return p.queue }

func (p *Planner) markChanged(idx int) {
	si := p.provenance[idx].sourceIndex
	if si >= 0 && si < len(p.changed) {
		p.changed[si] = true
	}
}

func (p *Planner) parseSpawnGroups(area *geom.Area) {
	for idx, entry := range p.merged {
		spawnID := readString(entry, "spawn_id")
		if spawnID == "" {
			spawnID = GenerateSpawnID(p.rng)
			entry["spawn_id"] = spawnID
			p.markChanged(idx)
		}

		priority := readInt(entry, "priority", -1)
		if priority < 0 {
			priority = idx
			entry["priority"] = priority
			p.markChanged(idx)
		}

		position := readString(entry, "position")
		if position == "" {
			position = MethodRandom
		}
		if position == MethodExactPosition {
			position = MethodExact
		}

		displayName := readString(entry, "display_name")
		if displayName == "" {
			displayName = readString(entry, "name")
		}
		if displayName == "" {
			displayName = spawnID
		}

		linkName := readString(entry, "link")

		defaultGeometry := position == MethodExact || position == MethodPerimeter
		resolveGeometry := readBool(entry, "resolve_geometry_to_room_size", defaultGeometry)
		resolveQuantity := readBool(entry, "resolve_quantity_to_room_size", false)
		if setBoolField(entry, "resolve_geometry_to_room_size", resolveGeometry) {
			p.markChanged(idx)
		}
		if setBoolField(entry, "resolve_quantity_to_room_size", resolveQuantity) {
			p.markChanged(idx)
		}

		currW := max(1, area.Width())
		currH := max(1, area.Height())

		minNum := readInt(entry, "min_number", 1)
		maxNum := readInt(entry, "max_number", minNum)
		if minNum < 0 {
			minNum = 0
		}
		if maxNum < 0 {
			maxNum = 0
		}
		if maxNum < minNum {
			minNum, maxNum = maxNum, minNum
		}

		needOrig := defaultGeometry || resolveGeometry || resolveQuantity
		origW := readInt(entry, "origional_width", currW)
		origH := readInt(entry, "origional_height", currH)
		if needOrig {
			if _, ok := entry["origional_width"]; !ok {
				entry["origional_width"] = currW
				origW = currW
				p.markChanged(idx)
			}
			if _, ok := entry["origional_height"]; !ok {
				entry["origional_height"] = currH
				origH = currH
				p.markChanged(idx)
			}
		}

		scaler := geom.NewSizeResolver(origW, origH, currW, currH)
		if resolveQuantity {
			minNum, maxNum = scaler.ScaleCountRange(minNum, maxNum)
		}
		quantity := minNum + p.rng.IntN(maxNum-minNum+1)

		candidates := p.resolveCandidates(entry, displayName)
		if len(candidates) == 0 {
			slog.Debug("dropping spawn group with no candidates", "spawn_id", spawnID, "name", displayName)
			continue
		}

		it := Item{
			Name:                 displayName,
			Position:             position,
			SpawnID:              spawnID,
			Priority:             priority,
			Quantity:             quantity,
			CheckMinSpacing:      readBool(entry, "enforce_spacing", false),
			GridResolution:       readInt(entry, "grid_resolution", 0),
			LinkAreaName:         linkName,
			AdjustGeometryToRoom: resolveGeometry,
			EdgeInsetPercent:     edgeInsetDefault,
			Candidates:           candidates,
		}

		it.ExactOffset = grid.Point{
			X: readInt(entry, "dx", readInt(entry, "exact_dx", 0)),
			Y: readInt(entry, "dy", readInt(entry, "exact_dy", 0)),
		}
		if resolveGeometry {
			it.ExactOriginW = origW
			it.ExactOriginH = origH
		} else {
			it.ExactOriginW = currW
			it.ExactOriginH = currH
		}
		it.ExactPoint = grid.Point{
			X: readInt(entry, "ep_x", averageRange(entry, "ep_x_min", "ep_x_max", -1)),
			Y: readInt(entry, "ep_y", averageRange(entry, "ep_y_min", "ep_y_max", -1)),
		}

		switch position {
		case MethodPerimeter:
			baseRadius := readInt(entry, "radius", readInt(entry, "perimeter_radius", 0))
			if resolveGeometry {
				it.PerimeterRadius = scaler.ScaleLength(baseRadius)
			} else {
				it.PerimeterRadius = baseRadius
			}
		case MethodEdge:
			inset := readInt(entry, "edge_inset_percent", readInt(entry, "boundary_inset", edgeInsetDefault))
			it.EdgeInsetPercent = min(max(inset, edgeInsetMin), edgeInsetMax)
		}

		p.queue = append(p.queue, it)
	}
}

type candidateDraft struct {
	weight       float64
	useTag       bool
	tag          string
	originalName string
	assetName    string
	label        string
	isNull       bool
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimPrefix(value, "#")
}

func parseCandidateDraft(raw any) candidateDraft {
	draft := candidateDraft{}

	var name, label, tagValue string
	useTag := false
	isNull := raw == nil

	detectTag := func(v string) {
		if strings.HasPrefix(v, "#") {
			useTag = true
			tagValue = v[1:]
		}
	}

	switch cj := raw.(type) {
	case map[string]any:
		draft.weight = readFloat(cj, "chance", 0)
		name = readString(cj, "name")
		detectTag(name)
		label = readString(cj, "display_name")
		if label == "" {
			label = readString(cj, "label")
		}
		switch tj := cj["tag"].(type) {
		case bool:
			if tj {
				useTag = true
				if tagValue == "" && name != "" {
					tagValue = strings.TrimPrefix(name, "#")
				}
			}
		case string:
			useTag = true
			tagValue = tj
		}
		if tn := readString(cj, "tag_name"); tn != "" {
			useTag = true
			tagValue = tn
		}
	case string:
		name = cj
		detectTag(name)
		label = name
	}

	if name == "null" {
		isNull = true
	}
	if useTag && tagValue == "" && name != "" {
		tagValue = strings.TrimPrefix(name, "#")
	}

	draft.useTag = useTag
	draft.tag = sanitizeKey(tagValue)
	draft.originalName = name
	draft.label = label
	draft.isNull = isNull

	if !useTag {
		sanitized := sanitizeKey(name)
		if sanitized == "null" {
			draft.isNull = true
			sanitized = ""
		}
		draft.assetName = sanitized
	}
	return draft
}

// resolveCandidates expands the entry's candidate list: literal names are
// looked up directly, "#tag" names draw one member of the tag at random, and
// zero-weight candidates block their tag or asset for the other draws.
func (p *Planner) resolveCandidates(entry map[string]any, fallbackName string) []Candidate {
	var candJSONs []any
	if arr, ok := entry["candidates"].([]any); ok {
		candJSONs = arr
	} else {
		fallback := map[string]any{"chance": 100}
		if name := readString(entry, "name"); name != "" {
			fallback["name"] = name
		}
		candJSONs = []any{fallback}
	}
	if len(candJSONs) == 0 {
		return nil
	}

	drafts := make([]candidateDraft, 0, len(candJSONs))
	blockedTags := make(map[string]struct{})
	blockedAssets := make(map[string]struct{})

	for _, cj := range candJSONs {
		draft := parseCandidateDraft(cj)
		if draft.weight <= 0 {
			if draft.useTag {
				if draft.tag != "" {
					blockedTags[draft.tag] = struct{}{}
				}
			} else if !draft.isNull {
				blocked := draft.assetName
				if blocked == "" {
					blocked = sanitizeKey(draft.originalName)
				}
				if blocked != "" {
					blockedAssets[blocked] = struct{}{}
				}
			}
		}
		drafts = append(drafts, draft)
	}

	candidateTags := make(map[string]struct{})
	for _, d := range drafts {
		if d.useTag && d.tag != "" && d.weight > 0 {
			candidateTags[d.tag] = struct{}{}
		}
	}

	candidates := make([]Candidate, 0, len(drafts))
	for _, draft := range drafts {
		c := Candidate{Weight: draft.weight}

		var resolvedName string
		if draft.useTag {
			tag := draft.tag
			if tag == "" {
				tag = sanitizeKey(draft.originalName)
			}
			if tag != "" && draft.weight > 0 {
				if name, err := p.library.ResolveFromTag(tag, blockedTags, blockedAssets, candidateTags, p.rng); err == nil {
					resolvedName = name
				}
			}
		} else {
			resolvedName = draft.assetName
		}

		isNull := draft.isNull
		if draft.useTag && draft.weight <= 0 {
			isNull = true
		}

		if resolvedName != "" {
			c.Name = resolvedName
		} else if !draft.useTag {
			c.Name = draft.assetName
		}
		if c.Name == "" {
			isNull = true
		}

		fallbackDisplay := draft.originalName
		if fallbackDisplay == "" && draft.tag != "" {
			fallbackDisplay = "#" + draft.tag
		}
		switch {
		case draft.label != "":
			c.DisplayName = draft.label
		case c.Name != "":
			c.DisplayName = c.Name
		default:
			c.DisplayName = fallbackDisplay
		}

		c.IsNull = isNull || c.Name == ""
		if !c.IsNull && c.Name != "" {
			info := p.library.Get(c.Name)
			if info == nil {
				c.IsNull = true
			} else {
				c.Info = info
			}
		}
		if c.IsNull && c.DisplayName == "" {
			c.DisplayName = "null"
		}
		if c.Weight < 0 {
			c.Weight = 0
		}

		candidates = append(candidates, c)
	}
	return candidates
}

func averageRange(entry map[string]any, loKey, hiKey string, fallback int) int {
	lo := readInt(entry, loKey, fallback)
	hi := readInt(entry, hiKey, fallback)
	if lo == fallback && hi != fallback {
		return hi
	}
	if hi == fallback && lo != fallback {
		return lo
	}
	return (lo + hi) / 2
}

func (p *Planner) sortQueue() {
	sort.SliceStable(p.queue, func(i, j int) bool {
		return p.queue[i].Priority < p.queue[j].Priority
	})
}

func (p *Planner) persistSources() {
	for i, src := range p.sources {
		if i >= len(p.changed) || !p.changed[i] {
			continue
		}
		if i < len(p.contexts) && p.contexts[i].Persist != nil {
			p.contexts[i].Persist(src)
		}
	}
}
