// Package noise implements fractal terrain synthesis: octaved value
// noise (fBm) over a Perlin or Simplex kernel, written into a heightmap
// grid.
package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"

	"terrainops/internal/errs"
	"terrainops/internal/heightmap"
)

// Kernel selects the coherent-noise source backing an fBm sum.
type Kernel int

const (
	Perlin Kernel = iota
	Simplex
)

// Params configures fractal terrain generation.
type Params struct {
	Kernel      Kernel
	Seed        uint32
	Octaves     int
	Frequency   float64
	Lacunarity  float64
	Persistence float64
	Amplitude   float64
	Offset      float64
}

// source2D is the minimal surface both kernels provide.
type source2D interface {
	Noise2D(x, y float64) float64
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) Noise2D(x, y float64) float64 { return s.n.Eval2(x, y) }

func newSource(p Params) source2D {
	switch p.Kernel {
	case Simplex:
		return simplexSource{n: opensimplex.New(int64(p.Seed))}
	default:
		return newPerlinNoise(int64(p.Seed))
	}
}

// Generate overwrites g in place with the fractal value of the chosen
// kernel: fBm is normalized by the sum of per-octave amplitudes, then
// mapped by v*amplitude+offset and clamped to [0,1]. Equal Params
// deterministically reproduce byte-identical grids.
func Generate(g *heightmap.Grid, p Params) error {
	if p.Octaves <= 0 {
		return errs.Validationf("noise octaves must be positive, got %d", p.Octaves)
	}
	src := newSource(p)
	w, h := g.Width(), g.Height()

	amplitudes := make([]float64, p.Octaves)
	amp := 1.0
	for i := range amplitudes {
		amplitudes[i] = amp
		amp *= p.Persistence
	}
	maxAmp := floats.Sum(amplitudes)

	g.Fill(func(x, y int) float32 {
		nx := float64(x) / float64(w)
		ny := float64(y) / float64(h)
		v := fbm(src, nx, ny, p, amplitudes)
		if maxAmp > 0 {
			v /= maxAmp
		}
		mapped := v*p.Amplitude + p.Offset
		return heightmap.Clamp01(float32(mapped))
	})
	return nil
}

func fbm(src source2D, x, y float64, p Params, amplitudes []float64) float64 {
	freq := p.Frequency
	value := 0.0
	for _, amp := range amplitudes {
		value += src.Noise2D(x*freq, y*freq) * amp
		freq *= p.Lacunarity
	}
	return value
}
