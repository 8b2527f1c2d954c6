// Package hydraulic implements droplet-based particle erosion: each
// droplet follows a gradient-descent trajectory, eroding or depositing
// sediment as it moves.
package hydraulic

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"terrainops/internal/heightmap"
)

// Params configures one hydraulic erosion run.
type Params struct {
	NumDroplets     int
	MaxLifetime     int
	ErosionRate     float32
	DepositionRate  float32
	EvaporationRate float32
	Inertia         float32
	MinSlope        float32
	CapacityFactor  float32
	ErosionRadius   float32
	Gravity         float32
}

type brushSample struct {
	dx, dy int
	weight float32
}

// buildBrush precomputes offsets within radius, weighted by linear
// falloff and normalized to sum to 1.
func buildBrush(radius float32) []brushSample {
	r := int(math.Ceil(float64(radius)))
	var brush []brushSample
	var total float32
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if dist > radius {
				continue
			}
			weight := 1 - dist/(radius+1)
			if weight <= 0 {
				continue
			}
			brush = append(brush, brushSample{dx: dx, dy: dy, weight: weight})
			total += weight
		}
	}
	if total > 0 {
		for i := range brush {
			brush[i].weight /= total
		}
	}
	return brush
}

func sampleBilinear(g *heightmap.Grid, pos mgl32.Vec2) (h, gx, gy float32) {
	x0 := int(math.Floor(float64(pos.X())))
	y0 := int(math.Floor(float64(pos.Y())))
	fx := pos.X() - float32(x0)
	fy := pos.Y() - float32(y0)

	x1 := x0 + 1
	y1 := y0 + 1
	x0 = clamp(x0, 0, g.Width()-1)
	x1 = clamp(x1, 0, g.Width()-1)
	y0 = clamp(y0, 0, g.Height()-1)
	y1 = clamp(y1, 0, g.Height()-1)

	tl := g.At(x0, y0)
	tr := g.At(x1, y0)
	bl := g.At(x0, y1)
	br := g.At(x1, y1)

	h = tl*(1-fx)*(1-fy) + tr*fx*(1-fy) + bl*(1-fx)*fy + br*fx*fy
	gx = (tr-tl)*(1-fy) + (br-bl)*fy
	gy = (bl-tl)*(1-fx) + (br-tr)*fx
	return
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func inInterior(pos mgl32.Vec2, w, h int) bool {
	return pos.X() >= 0.5 && pos.X() <= float32(w)-1.5 && pos.Y() >= 0.5 && pos.Y() <= float32(h)-1.5
}

func depositBilinear(g *heightmap.Grid, pos mgl32.Vec2, amount float32) {
	x0 := int(math.Floor(float64(pos.X())))
	y0 := int(math.Floor(float64(pos.Y())))
	fx := pos.X() - float32(x0)
	fy := pos.Y() - float32(y0)
	x1 := x0 + 1
	y1 := y0 + 1

	add := func(x, y int, w float32) {
		if x < 0 || x >= g.Width() || y < 0 || y >= g.Height() {
			return
		}
		g.Set(x, y, g.At(x, y)+amount*w)
	}
	add(x0, y0, (1-fx)*(1-fy))
	add(x1, y0, fx*(1-fy))
	add(x0, y1, (1-fx)*fy)
	add(x1, y1, fx*fy)
}

func erodeBrush(g *heightmap.Grid, center mgl32.Vec2, brush []brushSample, amount float32) {
	cx := int(math.Round(float64(center.X())))
	cy := int(math.Round(float64(center.Y())))
	for _, b := range brush {
		x, y := cx+b.dx, cy+b.dy
		if x < 0 || x >= g.Width() || y < 0 || y >= g.Height() {
			continue
		}
		g.Set(x, y, g.At(x, y)-amount*b.weight)
	}
}

// Run simulates Params.NumDroplets particles against g in place. abort
// is polled and progress is reported every 1000 droplets; both may be
// nil. Run does not clamp grid values — erosion is allowed to push
// cells transiently out of [0,1].
func Run(g *heightmap.Grid, p Params, rng *rand.Rand, abort func() bool, progress chan<- float64) {
	brush := buildBrush(p.ErosionRadius)
	w, h := g.Width(), g.Height()

	for i := 0; i < p.NumDroplets; i++ {
		if i%1000 == 0 {
			if abort != nil && abort() {
				return
			}
			if progress != nil {
				select {
				case progress <- float64(i) / float64(p.NumDroplets):
				default:
				}
			}
		}

		pos := mgl32.Vec2{
			0.5 + rng.Float32()*(float32(w)-2),
			0.5 + rng.Float32()*(float32(h)-2),
		}
		dir := mgl32.Vec2{0, 0}
		speed := float32(1)
		water := float32(1)
		sediment := float32(0)

		for step := 0; step < p.MaxLifetime; step++ {
			hOld, gx, gy := sampleBilinear(g, pos)

			dir = dir.Mul(p.Inertia).Sub(mgl32.Vec2{gx, gy}.Mul(1 - p.Inertia))
			if l := dir.Len(); l < 1e-6 {
				angle := rng.Float64() * 2 * math.Pi
				dir = mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
			} else {
				dir = dir.Mul(1 / l)
			}

			newPos := pos.Add(dir)
			if !inInterior(newPos, w, h) {
				break
			}

			hNew, _, _ := sampleBilinear(g, newPos)
			hdiff := hNew - hOld

			capacity := maxf(-hdiff, p.MinSlope) * speed * water * p.CapacityFactor

			if hdiff > 0 || sediment > capacity {
				var amount float32
				if hdiff > 0 {
					amount = minf(sediment, hdiff)
				} else {
					amount = (sediment - capacity) * p.DepositionRate
				}
				depositBilinear(g, pos, amount)
				sediment -= amount
			} else {
				amount := minf((capacity-sediment)*p.ErosionRate, -hdiff)
				erodeBrush(g, pos, brush, amount)
				sediment += amount
			}

			speed = float32(math.Sqrt(math.Max(0, float64(speed*speed+hdiff*p.Gravity))))
			water *= 1 - p.EvaporationRate
			pos = newPos
		}
	}

	if progress != nil {
		select {
		case progress <- 1.0:
		default:
		}
	}
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
