package room

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vibble/engine/internal/geom"
	"github.com/vibble/engine/internal/grid"
)

// TrailTemplate is a trails_data entry. Trails carry the same descriptor
// syntax as rooms plus shaping fields for the corridor polygon.
type TrailTemplate struct {
	Name           string
	Width          int
	Curvyness      int
	EdgeSmoothness int
	Geometry       string
	Data           map[string]any
}

// TrailTemplateFromJSON reads one template out of a trails_data section.
func TrailTemplateFromJSON(name string, obj map[string]any) TrailTemplate {
	t := TrailTemplate{
		Name:           name,
		Width:          64,
		Curvyness:      2,
		EdgeSmoothness: 50,
		Geometry:       geom.GeometrySquare,
		Data:           obj,
	}
	if obj == nil {
		return t
	}
	if v, ok := readInt(obj, "width"); ok {
		t.Width = v
	}
	if v, ok := readInt(obj, "curvyness"); ok {
		t.Curvyness = v
	}
	if v, ok := readInt(obj, "edge_smoothness"); ok {
		t.EdgeSmoothness = v
	}
	if v, ok := obj["geometry"].(string); ok && v != "" {
		t.Geometry = v
	}
	return t
}

// BuildCenterline produces a jittered polyline from start to end. Curvyness
// controls the number of interior control points and the lateral deviation
// budget, a quarter of the segment length at curvyness 8.
func BuildCenterline(start, end grid.Point, curvyness int, rng *rand.Rand) []grid.Point {
	line := make([]grid.Point, 0, curvyness+2)
	line = append(line, start)
	if curvyness > 0 {
		dx := float64(end.X - start.X)
		dy := float64(end.Y - start.Y)
		length := math.Hypot(dx, dy)
		if length <= 0 {
			length = 1
		}
		maxOffset := length * 0.25 * (float64(curvyness) / 8.0)
		nx, ny := -dy/length, dx/length
		for i := 1; i <= curvyness; i++ {
			t := float64(i) / float64(curvyness+1)
			off := (rng.Float64()*2 - 1) * maxOffset
			line = append(line, grid.Point{
				X: int(math.Round(float64(start.X) + t*dx + nx*off)),
				Y: int(math.Round(float64(start.Y) + t*dy + ny*off)),
			})
		}
	}
	return append(line, end)
}

// ExtrudeCenterline widens a centerline into a closed corridor polygon,
// offsetting each point by half the width along its local normal.
func ExtrudeCenterline(centerline []grid.Point, width float64) []grid.Point {
	halfW := width * 0.5
	left := make([]grid.Point, 0, len(centerline))
	right := make([]grid.Point, 0, len(centerline))
	for i, c := range centerline {
		var dx, dy float64
		switch {
		case i == 0:
			dx = float64(centerline[i+1].X - c.X)
			dy = float64(centerline[i+1].Y - c.Y)
		case i == len(centerline)-1:
			dx = float64(c.X - centerline[i-1].X)
			dy = float64(c.Y - centerline[i-1].Y)
		default:
			dx = float64(centerline[i+1].X - centerline[i-1].X)
			dy = float64(centerline[i+1].Y - centerline[i-1].Y)
		}
		length := math.Hypot(dx, dy)
		if length <= 0 {
			length = 1
		}
		nx, ny := -dy/length, dx/length
		left = append(left, grid.Point{
			X: int(math.Round(float64(c.X) + nx*halfW)),
			Y: int(math.Round(float64(c.Y) + ny*halfW)),
		})
		right = append(right, grid.Point{
			X: int(math.Round(float64(c.X) - nx*halfW)),
			Y: int(math.Round(float64(c.Y) - ny*halfW)),
		})
	}
	polygon := make([]grid.Point, 0, len(left)+len(right))
	polygon = append(polygon, left...)
	for i := len(right) - 1; i >= 0; i-- {
		polygon = append(polygon, right[i])
	}
	return polygon
}

// EdgePoint walks from center toward a target and returns the last point
// still inside the area, stepping one unit at a time.
func EdgePoint(center, toward grid.Point, area *geom.Area) grid.Point {
	if area == nil {
		return center
	}
	dx := float64(toward.X - center.X)
	dy := float64(toward.Y - center.Y)
	length := math.Hypot(dx, dy)
	if length <= 0 {
		return center
	}
	dirX, dirY := dx/length, dy/length
	const maxSteps = 2000
	edge := center
	for i := 1; i <= maxSteps; i++ {
		p := grid.Point{
			X: int(math.Round(float64(center.X) + dirX*float64(i))),
			Y: int(math.Round(float64(center.Y) + dirY*float64(i))),
		}
		if !area.ContainsPoint(p) {
			break
		}
		edge = p
	}
	return edge
}

// BuildTrailRoom connects two anchor points with a corridor room built from
// the template's shaping fields.
func BuildTrailRoom(tpl TrailTemplate, from, to grid.Point, settings MapGridSettings, rng *rand.Rand) (*Room, error) {
	if from == to {
		return nil, fmt.Errorf("build trail %q: zero-length connection", tpl.Name)
	}
	centerline := BuildCenterline(from, to, tpl.Curvyness, rng)
	polygon := ExtrudeCenterline(centerline, float64(tpl.Width))
	area := geom.NewAreaFromPoints(tpl.Name, polygon, settings.Resolution)
	area.SetType("trail")
	return New(tpl.Name, "trail", area, settings, tpl.Data), nil
}
