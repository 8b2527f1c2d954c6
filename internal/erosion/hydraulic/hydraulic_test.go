package hydraulic

import (
	"math/rand"
	"testing"

	"terrainops/internal/heightmap"
)

func defaultParams() Params {
	return Params{
		NumDroplets:     200,
		MaxLifetime:     30,
		ErosionRate:     0.3,
		DepositionRate:  0.3,
		EvaporationRate: 0.02,
		Inertia:         0.05,
		MinSlope:        0.01,
		CapacityFactor:  4,
		ErosionRadius:   3,
		Gravity:         4,
	}
}

func TestRunDeterministicWithSeededRNG(t *testing.T) {
	p := defaultParams()
	base := heightmap.New(32, 32)
	base.Fill(func(x, y int) float32 { return float32(x+y) / 64 })

	a := base.Clone()
	b := base.Clone()
	Run(a, p, rand.New(rand.NewSource(1)), nil, nil)
	Run(b, p, rand.New(rand.NewSource(1)), nil, nil)

	for i, v := range a.Data() {
		if b.Data()[i] != v {
			t.Fatalf("cell %d diverged under identical seed: %v vs %v", i, v, b.Data()[i])
		}
	}
}

func TestRunRespectsAbort(t *testing.T) {
	p := defaultParams()
	p.NumDroplets = 1_000_000
	g := heightmap.New(64, 64)
	g.Fill(func(x, y int) float32 { return float32(x+y) / 128 })

	calls := 0
	abort := func() bool {
		calls++
		return calls > 1
	}

	progress := make(chan float64, 8)
	Run(g, p, rand.New(rand.NewSource(2)), abort, progress)

	if calls < 2 {
		t.Fatalf("expected abort to be polled at least twice, got %d", calls)
	}
}

func TestRunEmitsProgress(t *testing.T) {
	p := defaultParams()
	p.NumDroplets = 2500
	g := heightmap.New(16, 16)
	g.Fill(func(x, y int) float32 { return 0.5 })

	progress := make(chan float64, 16)
	Run(g, p, rand.New(rand.NewSource(3)), nil, progress)

	if len(progress) == 0 {
		t.Fatal("expected at least one progress sample")
	}
}

func TestBuildBrushWeightsSumToOne(t *testing.T) {
	brush := buildBrush(4)
	var total float32
	for _, b := range brush {
		total += b.weight
	}
	if diff := total - 1; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("brush weights sum to %v, want ~1", total)
	}
}
