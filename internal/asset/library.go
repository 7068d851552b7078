package asset

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Library is the asset-info catalog keyed by asset name. It outlives all
// spawn sessions; the engine only reads from it once a session starts.
type Library struct {
	infos map[string]*Info
}

// NewLibrary creates an empty catalog.
func NewLibrary() *Library {
	return &Library{infos: make(map[string]*Info)}
}

// Add registers an info under its name, replacing any previous entry.
func (l *Library) Add(info *Info) {
	if info == nil || info.Name == "" {
		return
	}
	l.infos[info.Name] = info
}

// Get returns the info for name, or nil.
func (l *Library) Get(name string) *Info {
	return l.infos[name]
}

// Len returns the number of registered infos.
func (l *Library) Len() int { return len(l.infos) }

// Names returns all registered names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.infos))
	for name := range l.infos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveFromTag picks a random asset carrying tag, skipping assets named in
// bannedAssets, assets carrying any other tag from bannedTags, and assets
// whose anti-tags collide with another candidate tag of the same group.
// Iteration is over sorted names so the draw is deterministic for a fixed RNG.
func (l *Library) ResolveFromTag(tag string, bannedTags, bannedAssets, candidateTags map[string]struct{}, rng *rand.Rand) (string, error) {
	if tag == "" {
		return "", fmt.Errorf("empty tag")
	}

	var matches []string
	for _, name := range l.Names() {
		info := l.infos[name]
		if info == nil || !info.HasTag(tag) {
			continue
		}
		if _, banned := bannedAssets[name]; banned {
			continue
		}
		if hasBannedTag(info, tag, bannedTags) {
			continue
		}
		if hasAntiTagConflict(info, tag, candidateTags) {
			continue
		}
		matches = append(matches, name)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("no assets found for tag %q", tag)
	}
	return matches[rng.IntN(len(matches))], nil
}

func hasBannedTag(info *Info, tag string, bannedTags map[string]struct{}) bool {
	for blocked := range bannedTags {
		if blocked == "" || blocked == tag {
			continue
		}
		if info.HasTag(blocked) {
			return true
		}
	}
	return false
}

func hasAntiTagConflict(info *Info, tag string, candidateTags map[string]struct{}) bool {
	for _, anti := range info.AntiTags {
		if anti == tag {
			continue
		}
		if _, present := candidateTags[anti]; present {
			return true
		}
	}
	return false
}
