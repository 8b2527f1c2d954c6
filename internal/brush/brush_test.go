package brush

import (
	"testing"

	"terrainops/internal/heightmap"
)

func fillConst(g *heightmap.Grid, v float32) {
	g.Fill(func(x, y int) float32 { return v })
}

func TestFlattenConvergenceFixedPoint(t *testing.T) {
	g := heightmap.New(8, 8)
	fillConst(g, 0.2)

	rect := Apply(g, Stroke{X: 4, Y: 4, Radius: 3, Strength: 1, Op: Flatten})

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if v := g.At(x, y); v != 0.2 {
				t.Fatalf("cell (%d,%d) = %v, want 0.2", x, y, v)
			}
		}
	}
	want := struct{ X, Y, W, H int }{1, 1, 7, 7}
	if rect.X != want.X || rect.Y != want.Y || rect.W != want.W || rect.H != want.H {
		t.Fatalf("rect = %+v, want %+v", rect, want)
	}
}

func TestRaiseClamp(t *testing.T) {
	g := heightmap.New(16, 16)
	fillConst(g, 0.99)

	rect := Apply(g, Stroke{X: 8, Y: 8, Radius: 5, Strength: 10, Op: Raise})
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			if v := g.At(x, y); v > 1.0 {
				t.Fatalf("cell (%d,%d) = %v exceeds 1.0", x, y, v)
			}
		}
	}
}

func TestRaiseNeverDecreases(t *testing.T) {
	g := heightmap.New(16, 16)
	fillConst(g, 0.3)
	before := append([]float32(nil), g.Data()...)

	Apply(g, Stroke{X: 8, Y: 8, Radius: 4, Strength: 0.5, Op: Raise})
	for i, v := range g.Data() {
		if v < before[i] {
			t.Fatalf("cell %d decreased: %v -> %v", i, before[i], v)
		}
	}
}

func TestLowerNeverIncreases(t *testing.T) {
	g := heightmap.New(16, 16)
	fillConst(g, 0.7)
	before := append([]float32(nil), g.Data()...)

	Apply(g, Stroke{X: 8, Y: 8, Radius: 4, Strength: 0.5, Op: Lower})
	for i, v := range g.Data() {
		if v > before[i] {
			t.Fatalf("cell %d increased: %v -> %v", i, before[i], v)
		}
	}
}

func TestDirtyRectContainment(t *testing.T) {
	g := heightmap.New(16, 16)
	g.Fill(func(x, y int) float32 { return float32(x+y) / 32 })
	before := append([]float32(nil), g.Data()...)

	rect := Apply(g, Stroke{X: 8, Y: 8, Radius: 3, Strength: 0.8, Op: Raise})

	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			inside := x >= rect.X && x < rect.X+rect.W && y >= rect.Y && y < rect.Y+rect.H
			if !inside && g.At(x, y) != before[y*g.Width()+x] {
				t.Fatalf("cell (%d,%d) outside dirty rect changed", x, y)
			}
		}
	}
}

func TestEmptyStrokeOutsideGrid(t *testing.T) {
	g := heightmap.New(8, 8)
	rect := Apply(g, Stroke{X: -50, Y: -50, Radius: 2, Strength: 1, Op: Raise})
	if !rect.Empty() {
		t.Fatalf("expected empty rect, got %+v", rect)
	}
}

func TestSmoothUsesPreStrokeSnapshot(t *testing.T) {
	g := heightmap.New(5, 5)
	g.Fill(func(x, y int) float32 {
		if x == 2 && y == 2 {
			return 1.0
		}
		return 0.0
	})

	Apply(g, Stroke{X: 2, Y: 2, Radius: 2, Strength: 1, Op: Smooth})

	if v := g.At(2, 2); v >= 1.0 {
		t.Fatalf("center should have smoothed down, got %v", v)
	}
}
