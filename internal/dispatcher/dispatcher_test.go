package dispatcher

import (
	"testing"
	"time"

	"terrainops/internal/brush"
	"terrainops/internal/envelope"
	"terrainops/internal/erosion/hydraulic"
	"terrainops/internal/noise"
)

func TestGetHeightmapReturnsFullEnvelope(t *testing.T) {
	d := New(4, 4)
	buf := d.GetHeightmap()

	full, err := envelope.DecodeFull(buf)
	if err != nil {
		t.Fatalf("DecodeFull: %v", err)
	}
	if full.Width != 4 || full.Height != 4 {
		t.Fatalf("dims = %dx%d, want 4x4", full.Width, full.Height)
	}
}

func TestApplyBrushStrokeReturnsRegionEnvelope(t *testing.T) {
	d := New(16, 16)
	buf := d.ApplyBrushStroke(brush.Stroke{X: 8, Y: 8, Radius: 3, Strength: 0.5, Op: brush.Raise})

	region, err := envelope.DecodeRegion(buf)
	if err != nil {
		t.Fatalf("DecodeRegion: %v", err)
	}
	if region.W <= 0 || region.H <= 0 {
		t.Fatal("expected non-empty dirty region")
	}
}

func TestApplyBrushStrokeOutsideGridReturnsFull(t *testing.T) {
	d := New(8, 8)
	buf := d.ApplyBrushStroke(brush.Stroke{X: -100, Y: -100, Radius: 2, Strength: 1, Op: brush.Raise})

	if _, err := envelope.DecodeFull(buf); err != nil {
		t.Fatalf("expected full envelope fallback for empty stroke, got decode error: %v", err)
	}
}

func TestGenerateTerrainDeterministic(t *testing.T) {
	d1 := New(8, 8)
	d2 := New(8, 8)
	p := noise.Params{Kernel: noise.Perlin, Seed: 5, Octaves: 3, Frequency: 2, Lacunarity: 2, Persistence: 0.5, Amplitude: 1}

	b1, err := d1.GenerateTerrain(p)
	if err != nil {
		t.Fatalf("GenerateTerrain: %v", err)
	}
	b2, err := d2.GenerateTerrain(p)
	if err != nil {
		t.Fatalf("GenerateTerrain: %v", err)
	}
	if len(b1) != len(b2) {
		t.Fatal("envelope length mismatch")
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatalf("byte %d diverged between identical runs", i)
		}
	}
}

func TestHydraulicSingleFlight(t *testing.T) {
	d := New(32, 32)
	p := hydraulic.Params{
		NumDroplets: 200000, MaxLifetime: 20, ErosionRate: 0.3, DepositionRate: 0.3,
		EvaporationRate: 0.02, Inertia: 0.05, MinSlope: 0.01, CapacityFactor: 4,
		ErosionRadius: 3, Gravity: 4,
	}

	if err := d.RunHydraulicErosion(p, 1, nil); err != nil {
		t.Fatalf("first RunHydraulicErosion: %v", err)
	}

	err := d.RunHydraulicErosion(p, 2, nil)
	if err == nil {
		t.Fatal("expected second concurrent start to fail")
	}

	d.AbortErosion()
	time.Sleep(100 * time.Millisecond)
}

func TestSetHeightmapRejectsWrongLength(t *testing.T) {
	d := New(4, 4)
	if err := d.SetHeightmap(make([]float32, 3)); err == nil {
		t.Fatal("expected error for mismatched length")
	}
}

func TestSetHeightmapReplacesData(t *testing.T) {
	d := New(2, 2)
	data := []float32{0.1, 0.2, 0.3, 0.4}
	if err := d.SetHeightmap(data); err != nil {
		t.Fatalf("SetHeightmap: %v", err)
	}
	snap := d.Snapshot()
	for i, v := range data {
		if snap.At(i%2, i/2) != v {
			t.Fatalf("cell %d = %v, want %v", i, snap.At(i%2, i/2), v)
		}
	}
}
