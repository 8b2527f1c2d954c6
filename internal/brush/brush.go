// Package brush implements the sculpt tool: a radial falloff kernel
// applied to the heightmap with four op variants, returning the dirty
// rectangle the stroke touched.
package brush

import (
	"math"

	"terrainops/internal/envelope"
	"terrainops/internal/heightmap"
)

// Op selects the update rule applied within a stroke's radius.
type Op int

const (
	Raise Op = iota
	Lower
	Flatten
	Smooth
)

// Stroke describes one brush application in grid coordinates.
type Stroke struct {
	X, Y     float32
	Radius   float32
	Strength float32
	Op       Op
}

// Apply mutates g in place and returns the inclusive dirty rectangle.
// An empty rectangle (zero value) means the stroke touched nothing.
func Apply(g *heightmap.Grid, s Stroke) envelope.Rect {
	r := s.Radius
	x0 := int(math.Floor(float64(s.X - r)))
	x1 := int(math.Ceil(float64(s.X + r)))
	y0 := int(math.Floor(float64(s.Y - r)))
	y1 := int(math.Ceil(float64(s.Y + r)))

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > g.Width()-1 {
		x1 = g.Width() - 1
	}
	if y1 > g.Height()-1 {
		y1 = g.Height() - 1
	}
	if x0 > x1 || y0 > y1 {
		return envelope.Rect{}
	}

	var target float32
	var snapshot *heightmap.Grid
	switch s.Op {
	case Flatten:
		target = g.At(clampCoord(int(math.Round(float64(s.X))), g.Width()), clampCoord(int(math.Round(float64(s.Y))), g.Height()))
	case Smooth:
		snapshot = g.Clone()
	}

	r2 := r * r
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float32(x) - s.X
			dy := float32(y) - s.Y
			d2 := dx*dx + dy*dy
			if d2 > r2 {
				continue
			}
			w := float32(math.Exp(float64(-3 * d2 / r2)))
			influence := s.Strength * w
			h := g.At(x, y)

			var hp float32
			switch s.Op {
			case Raise:
				hp = h + 0.02*influence
			case Lower:
				hp = h - 0.02*influence
			case Flatten:
				hp = h + (target-h)*influence
			case Smooth:
				hp = h + (avg5(snapshot, x, y)-h)*influence
			}

			g.Set(x, y, heightmap.Clamp01(hp))
		}
	}

	return envelope.Rect{X: x0, Y: y0, W: x1 - x0 + 1, H: y1 - y0 + 1}
}

func clampCoord(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max-1 {
		return max - 1
	}
	return v
}

// avg5 averages a cell and its up-to-four 4-neighbors; edges use fewer
// samples rather than wrapping or padding.
func avg5(g *heightmap.Grid, x, y int) float32 {
	sum := g.At(x, y)
	count := float32(1)
	if x > 0 {
		sum += g.At(x-1, y)
		count++
	}
	if x < g.Width()-1 {
		sum += g.At(x+1, y)
		count++
	}
	if y > 0 {
		sum += g.At(x, y-1)
		count++
	}
	if y < g.Height()-1 {
		sum += g.At(x, y+1)
		count++
	}
	return sum / count
}
