package spawn

import (
	"math/rand/v2"

	"github.com/vibble/engine/internal/asset"
	"github.com/vibble/engine/internal/grid"
)

// Position method tags carried by descriptor entries.
const (
	MethodRandom        = "Random"
	MethodExact         = "Exact"
	MethodCenter        = "Center"
	MethodPerimeter     = "Perimeter"
	MethodEdge          = "Edge"
	MethodPercent       = "Percent"
	MethodBatchMap      = "batch_map_assets"
	MethodChildRandom   = "ChildRandom"
	MethodExactPosition = "Exact Position"
)

// Candidate is one weighted option for an item. A nil Info with IsNull set
// means "spawn nothing" when drawn.
type Candidate struct {
	Name        string
	DisplayName string
	Weight      float64
	Info        *asset.Info
	IsNull      bool
}

// Item is one fully-resolved unit of spawn work pulled off the planner queue.
type Item struct {
	Name            string
	Position        string
	SpawnID         string
	Priority        int
	Quantity        int
	CheckMinSpacing bool
	GridResolution  int

	LinkAreaName string

	ExactOffset  grid.Point
	ExactOriginW int
	ExactOriginH int
	ExactPoint   grid.Point

	PerimeterRadius int

	EdgeInsetPercent int

	AdjustGeometryToRoom bool

	Candidates []Candidate
}

// HasCandidates reports whether the item can produce anything.
func (it *Item) HasCandidates() bool { return len(it.Candidates) > 0 }

// SelectCandidate draws one candidate by weight. Negative weights count as
// zero; when no candidate has positive weight the draw is uniform.
func (it *Item) SelectCandidate(rng *rand.Rand) *Candidate {
	if len(it.Candidates) == 0 {
		return nil
	}
	weights := make([]float64, len(it.Candidates))
	totalPositive := 0.0
	for i, cand := range it.Candidates {
		w := cand.Weight
		if w < 0 {
			w = 0
		}
		totalPositive += w
		weights[i] = w
	}
	if totalPositive <= 0 {
		for i := range weights {
			weights[i] = 1
		}
		totalPositive = float64(len(weights))
	}
	draw := rng.Float64() * totalPositive
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return &it.Candidates[i]
		}
	}
	return &it.Candidates[len(it.Candidates)-1]
}
