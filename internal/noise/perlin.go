package noise

import (
	"math"
	"math/rand"
)

// perlinNoise is a classic gradient-noise generator with a shuffled
// permutation table.
type perlinNoise struct {
	perm [512]int
}

func newPerlinNoise(seed int64) *perlinNoise {
	p := &perlinNoise{}
	rng := rand.New(rand.NewSource(seed))

	var perm [256]int
	for i := range perm {
		perm[i] = i
	}
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}
	return p
}

// Noise2D returns a value in approximately [-1, 1].
func (p *perlinNoise) Noise2D(x, y float64) float64 {
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255

	x -= math.Floor(x)
	y -= math.Floor(y)

	u := fade(x)
	v := fade(y)

	A := p.perm[X] + Y
	AA := p.perm[A]
	AB := p.perm[A+1]
	B := p.perm[X+1] + Y
	BA := p.perm[B]
	BB := p.perm[B+1]

	return lerp(v,
		lerp(u, grad2D(p.perm[AA], x, y), grad2D(p.perm[BA], x-1, y)),
		lerp(u, grad2D(p.perm[AB], x, y-1), grad2D(p.perm[BB], x-1, y-1)),
	)
}

func fade(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func grad2D(hash int, x, y float64) float64 {
	h := hash & 3
	switch h {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}
