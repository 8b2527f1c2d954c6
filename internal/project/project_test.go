package project

import (
	"bytes"
	"testing"

	"terrainops/internal/heightmap"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	grid := heightmap.New(128, 128)
	grid.Fill(func(x, y int) float32 { return float32(x*128+y) / float32(128*128-1) })

	texture := bytes.Repeat([]byte{0xAB}, 16*16)
	original := &Project{
		Manifest: Manifest{FormatVersion: 1, AppVersion: "test", Width: 128, Height: 128, CreatedAt: 1000, HasTexture: true},
		Grid:     grid,
		Texture:  texture,
		Settings: `{"a":1}`,
	}

	var buf bytes.Buffer
	if err := Save(&buf, original); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Manifest.Width != 128 || loaded.Manifest.Height != 128 {
		t.Fatalf("manifest dims = %d x %d", loaded.Manifest.Width, loaded.Manifest.Height)
	}
	for i, v := range grid.Data() {
		if loaded.Grid.Data()[i] != v {
			t.Fatalf("grid cell %d diverged: %v vs %v", i, v, loaded.Grid.Data()[i])
		}
	}
	if !bytes.Equal(loaded.Texture, texture) {
		t.Fatal("texture bytes diverged")
	}
	if loaded.Settings != `{"a":1}` {
		t.Fatalf("settings = %q", loaded.Settings)
	}
}

func TestLoadRejectsFutureFormatVersion(t *testing.T) {
	grid := heightmap.New(2, 2)
	var buf bytes.Buffer
	Save(&buf, &Project{
		Manifest: Manifest{FormatVersion: 99, Width: 2, Height: 2},
		Grid:     grid,
		Settings: "{}",
	})

	if _, err := Load(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Fatal("expected rejection of unknown format version")
	}
}

func TestLoadDefaultsMissingSettings(t *testing.T) {
	grid := heightmap.New(2, 2)
	var buf bytes.Buffer
	p := &Project{Manifest: Manifest{FormatVersion: 1, Width: 2, Height: 2}, Grid: grid}
	if err := Save(&buf, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Settings != "{}" {
		t.Fatalf("settings = %q, want \"{}\"", loaded.Settings)
	}
}

func TestExportRawF32Length(t *testing.T) {
	g := heightmap.New(4, 4)
	out, err := Export(g, FormatRawF32)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(out) != 4*4*4 {
		t.Fatalf("raw_f32 length = %d, want %d", len(out), 4*4*4)
	}
}

func TestExportPNG16(t *testing.T) {
	g := heightmap.New(4, 4)
	g.Fill(func(x, y int) float32 { return 1.0 })
	out, err := Export(g, FormatPNG16)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty png bytes")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	g := heightmap.New(2, 2)
	if _, err := Export(g, ExportFormat("bogus")); err == nil {
		t.Fatal("expected error for unknown export format")
	}
}
