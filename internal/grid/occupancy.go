package grid

import "math/rand/v2"

// maxSearchRadius bounds the spiral search in NearestVertex.
const maxSearchRadius = 4096

// Region is the polygon surface an Occupancy enumerates. Implemented by
// geom.Area.
type Region interface {
	ContainsPoint(p Point) bool
	Bounds() (minX, minY, maxX, maxY int)
	PointCount() int
}

// Vertex is one grid point inside an area, with free/occupied state.
type Vertex struct {
	Index    Point
	World    Point
	Occupied bool
}

// Occupancy enumerates every grid vertex of one area at one resolution and
// tracks which vertices have been claimed during a spawn session. It does not
// survive across sessions.
type Occupancy struct {
	allowPartialOverlap bool
	vertices            []Vertex
	lookup              map[uint64]int
	grid                *Grid
	resolution          int
	freeCount           int
	minIndex            Point
	maxIndex            Point
}

// NewOccupancy builds an occupancy for area at the given resolution. With
// allowPartialOverlap, vertices whose cell rectangle overlaps the area bounds
// are admitted even when the vertex itself is outside; child sessions rely on
// this.
func NewOccupancy(area Region, resolution int, g *Grid, allowPartialOverlap bool) *Occupancy {
	o := &Occupancy{}
	o.Rebuild(area, resolution, g, allowPartialOverlap)
	return o
}

// Rebuild repopulates the occupancy from scratch.
func (o *Occupancy) Rebuild(area Region, resolution int, g *Grid, allowPartialOverlap bool) {
	o.vertices = o.vertices[:0]
	o.lookup = make(map[uint64]int)
	o.grid = g
	o.resolution = ClampResolution(resolution)
	o.freeCount = 0
	o.allowPartialOverlap = allowPartialOverlap
	o.populate(area)
}

func (o *Occupancy) populate(area Region) {
	if area == nil || area.PointCount() == 0 {
		return
	}
	minX, minY, maxX, maxY := area.Bounds()

	minIndex := o.grid.WorldToIndex(Point{X: minX, Y: minY}, o.resolution)
	maxIndex := o.grid.WorldToIndex(Point{X: maxX, Y: maxY}, o.resolution)
	if minIndex.X > maxIndex.X {
		minIndex.X, maxIndex.X = maxIndex.X, minIndex.X
	}
	if minIndex.Y > maxIndex.Y {
		minIndex.Y, maxIndex.Y = maxIndex.Y, minIndex.Y
	}
	o.minIndex = minIndex
	o.maxIndex = maxIndex

	for j := minIndex.Y; j <= maxIndex.Y; j++ {
		for i := minIndex.X; i <= maxIndex.X; i++ {
			world := o.grid.IndexToWorld(i, j, o.resolution)
			inside := area.ContainsPoint(world)
			if !inside && o.allowPartialOverlap {
				cellSize := Delta(o.resolution)
				inside = !(world.X+cellSize < minX || maxX < world.X ||
					world.Y+cellSize < minY || maxY < world.Y)
			}
			if !inside {
				continue
			}
			index := Point{X: i, Y: j}
			o.lookup[packIndex(index)] = len(o.vertices)
			o.vertices = append(o.vertices, Vertex{Index: index, World: world})
		}
	}
	o.freeCount = len(o.vertices)
}

// Resolution returns the resolution the occupancy was built at.
func (o *Occupancy) Resolution() int { return o.resolution }

// FreeCount returns the number of unoccupied vertices.
func (o *Occupancy) FreeCount() int { return o.freeCount }

// Size returns the total number of vertices.
func (o *Occupancy) Size() int { return len(o.vertices) }

// NearestVertex spirals outward in index space from world and returns the
// first free vertex, or nil when the bounded search exhausts.
func (o *Occupancy) NearestVertex(world Point) *Vertex {
	if len(o.vertices) == 0 || o.grid == nil {
		return nil
	}
	origin := o.grid.WorldToIndex(world, o.resolution)

	if v := o.VertexAtIndex(origin); v != nil && !v.Occupied {
		return v
	}

	maxDX := max(abs(origin.X-o.minIndex.X), abs(origin.X-o.maxIndex.X))
	maxDY := max(abs(origin.Y-o.minIndex.Y), abs(origin.Y-o.maxIndex.Y))
	limit := min(maxSearchRadius, max(maxDX, maxDY))

	for radius := 1; radius <= limit; radius++ {
		for dx := -radius; dx <= radius; dx++ {
			x := origin.X + dx
			if v := o.freeAt(Point{X: x, Y: origin.Y - radius}); v != nil {
				return v
			}
			if v := o.freeAt(Point{X: x, Y: origin.Y + radius}); v != nil {
				return v
			}
		}
		for dy := -radius + 1; dy <= radius-1; dy++ {
			y := origin.Y + dy
			if v := o.freeAt(Point{X: origin.X - radius, Y: y}); v != nil {
				return v
			}
			if v := o.freeAt(Point{X: origin.X + radius, Y: y}); v != nil {
				return v
			}
		}
	}
	return nil
}

func (o *Occupancy) freeAt(index Point) *Vertex {
	v := o.VertexAtIndex(index)
	if v != nil && !v.Occupied {
		return v
	}
	return nil
}

// RandomVertexInArea draws uniformly over the free vertices whose world point
// lies inside the sub-area.
func (o *Occupancy) RandomVertexInArea(area Region, rng *rand.Rand) *Vertex {
	if len(o.vertices) == 0 {
		return nil
	}
	candidates := make([]int, 0, len(o.vertices))
	for i := range o.vertices {
		v := &o.vertices[i]
		if v.Occupied || !area.ContainsPoint(v.World) {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return nil
	}
	return &o.vertices[candidates[rng.IntN(len(candidates))]]
}

// VerticesInArea returns every vertex whose world point lies inside area.
func (o *Occupancy) VerticesInArea(area Region) []*Vertex {
	result := make([]*Vertex, 0, len(o.vertices))
	for i := range o.vertices {
		if area.ContainsPoint(o.vertices[i].World) {
			result = append(result, &o.vertices[i])
		}
	}
	return result
}

// VertexAtWorld returns the vertex of the cell containing world, or nil.
func (o *Occupancy) VertexAtWorld(world Point) *Vertex {
	if o.grid == nil {
		return nil
	}
	return o.VertexAtIndex(o.grid.WorldToIndex(world, o.resolution))
}

// VertexAtIndex returns the vertex at index, or nil.
func (o *Occupancy) VertexAtIndex(index Point) *Vertex {
	i, ok := o.lookup[packIndex(index)]
	if !ok {
		return nil
	}
	return &o.vertices[i]
}

// SetOccupied flips a vertex state and maintains the free counter.
// Transitions are idempotent.
func (o *Occupancy) SetOccupied(v *Vertex, occupied bool) {
	if v == nil || v.Occupied == occupied {
		return
	}
	v.Occupied = occupied
	if occupied {
		o.freeCount--
	} else {
		o.freeCount++
	}
	if o.freeCount < 0 {
		o.freeCount = 0
	}
}

// SetOccupiedAt marks the vertex of the cell containing world, if any.
func (o *Occupancy) SetOccupiedAt(world Point, occupied bool) {
	if v := o.VertexAtWorld(world); v != nil {
		o.SetOccupied(v, occupied)
	}
}

// CellOverlaps reports whether the cell containing world overlaps the area
// bounds. Without partial-overlap mode it degrades to a containment test.
func (o *Occupancy) CellOverlaps(area Region, world Point) bool {
	if o.grid == nil || !o.allowPartialOverlap {
		return area.ContainsPoint(world)
	}
	if area.PointCount() == 0 {
		return false
	}
	index := o.grid.WorldToIndex(world, o.resolution)
	cellMin := o.grid.IndexToWorld(index.X, index.Y, o.resolution)
	cellSize := Delta(o.resolution)
	minX, minY, maxX, maxY := area.Bounds()
	return !(cellMin.X+cellSize < minX || maxX < cellMin.X ||
		cellMin.Y+cellSize < minY || maxY < cellMin.Y)
}

func packIndex(index Point) uint64 {
	return uint64(uint32(int32(index.X)))<<32 | uint64(uint32(int32(index.Y)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
