// Package heightmap holds the authoritative terrain grid: a fixed-size,
// row-major buffer of normalized elevations.
package heightmap

// Grid is a row-major 2D array of float32 elevations in [0,1]. Dimensions
// are fixed for the lifetime of a Grid; there is no resize.
type Grid struct {
	data          []float32
	width, height int
}

// New allocates a width x height grid, zero-filled.
func New(width, height int) *Grid {
	return &Grid{
		data:   make([]float32, width*height),
		width:  width,
		height: height,
	}
}

// NewFromData wraps an existing row-major buffer. len(data) must equal
// width*height; callers own that invariant (it is checked at the
// boundaries that accept external data, e.g. SetHeightmap).
func NewFromData(data []float32, width, height int) *Grid {
	return &Grid{data: data, width: width, height: height}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) index(x, y int) int { return y*g.width + x }

// At returns the value at (x,y). Callers compute indices from clamped
// coordinates; there is no bounds-checking beyond what Go itself does.
func (g *Grid) At(x, y int) float32 { return g.data[g.index(x, y)] }

// Set writes the value at (x,y).
func (g *Grid) Set(x, y int, v float32) { g.data[g.index(x, y)] = v }

// Data exposes the whole row-major buffer for bulk access (codec encode,
// bulk replace via SetHeightmap, etc).
func (g *Grid) Data() []float32 { return g.data }

// Clone returns a deep, independent copy. O(W*H); used by subsystems that
// need a read-only snapshot decoupled from concurrent writes to the live
// buffer (smooth brush, thermal erosion).
func (g *Grid) Clone() *Grid {
	cp := make([]float32, len(g.data))
	copy(cp, g.data)
	return &Grid{data: cp, width: g.width, height: g.height}
}

// Fill overwrites every cell using f(x, y).
func (g *Grid) Fill(f func(x, y int) float32) {
	for y := 0; y < g.height; y++ {
		row := y * g.width
		for x := 0; x < g.width; x++ {
			g.data[row+x] = f(x, y)
		}
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps v into [0,1]. Brush strokes and noise generation pass
// their writes through it; erosion and depth blending write unclamped.
func Clamp01(v float32) float32 { return clampf(v, 0, 1) }
