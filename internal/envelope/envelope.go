// Package envelope implements the binary wire format the dispatcher uses
// to hand heightmap snapshots and region patches back to the UI:
// little-endian throughout, a small fixed header followed by row-major
// f32 pixels.
package envelope

import (
	"encoding/binary"
	"math"

	"terrainops/internal/errs"
	"terrainops/internal/heightmap"
)

const Version uint32 = 1

const (
	TypeFull   uint8 = 0
	TypeRegion uint8 = 1

	fullHeaderSize   = 16 // version:4 + type:1 + pad:3 + w:4 + h:4
	regionHeaderSize = 24 // version:4 + type:1 + pad:3 + rx:4 + ry:4 + rw:4 + rh:4
)

// Rect is an inclusive pixel rectangle: (X, Y, W, H) with W/H the side
// lengths (not the inclusive-bound indices).
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func putFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
}

func getFloat32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// PackFull encodes the entire grid.
func PackFull(g *heightmap.Grid) []byte {
	w, h := g.Width(), g.Height()
	n := w * h
	buf := make([]byte, fullHeaderSize+n*4)

	binary.LittleEndian.PutUint32(buf[0:4], Version)
	buf[4] = TypeFull
	// buf[5:8] left zero as the alignment pad
	binary.LittleEndian.PutUint32(buf[8:12], uint32(w))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(h))

	data := g.Data()
	off := fullHeaderSize
	for i := 0; i < n; i++ {
		putFloat32(buf, off, data[i])
		off += 4
	}
	return buf
}

// PackRegion encodes the sub-rectangle [rx, rx+rw) x [ry, ry+rh) in
// row-major order of the sub-rectangle. Callers must ensure
// rx+rw <= W and ry+rh <= H.
func PackRegion(g *heightmap.Grid, rx, ry, rw, rh int) []byte {
	buf := make([]byte, regionHeaderSize+rw*rh*4)

	binary.LittleEndian.PutUint32(buf[0:4], Version)
	buf[4] = TypeRegion
	binary.LittleEndian.PutUint32(buf[8:12], uint32(rx))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(ry))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(rw))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(rh))

	off := regionHeaderSize
	for y := ry; y < ry+rh; y++ {
		for x := rx; x < rx+rw; x++ {
			putFloat32(buf, off, g.At(x, y))
			off += 4
		}
	}
	return buf
}

// Full is a decoded full-grid envelope.
type Full struct {
	Width, Height int
	Data          []float32
}

// Region is a decoded region envelope.
type Region struct {
	X, Y, W, H int
	Data       []float32
}

// DecodeFull parses a full envelope produced by PackFull.
func DecodeFull(buf []byte) (*Full, error) {
	if len(buf) < fullHeaderSize {
		return nil, errs.Decodef(nil, "envelope too short for full header: %d bytes", len(buf))
	}
	if buf[4] != TypeFull {
		return nil, errs.Decodef(nil, "expected full envelope type %d, got %d", TypeFull, buf[4])
	}
	w := int(binary.LittleEndian.Uint32(buf[8:12]))
	h := int(binary.LittleEndian.Uint32(buf[12:16]))
	n := w * h
	if len(buf) != fullHeaderSize+n*4 {
		return nil, errs.Decodef(nil, "full envelope size mismatch: got %d bytes, want %d", len(buf), fullHeaderSize+n*4)
	}
	data := make([]float32, n)
	off := fullHeaderSize
	for i := 0; i < n; i++ {
		data[i] = getFloat32(buf, off)
		off += 4
	}
	return &Full{Width: w, Height: h, Data: data}, nil
}

// DecodeRegion parses a region envelope produced by PackRegion.
func DecodeRegion(buf []byte) (*Region, error) {
	if len(buf) < regionHeaderSize {
		return nil, errs.Decodef(nil, "envelope too short for region header: %d bytes", len(buf))
	}
	if buf[4] != TypeRegion {
		return nil, errs.Decodef(nil, "expected region envelope type %d, got %d", TypeRegion, buf[4])
	}
	rx := int(binary.LittleEndian.Uint32(buf[8:12]))
	ry := int(binary.LittleEndian.Uint32(buf[12:16]))
	rw := int(binary.LittleEndian.Uint32(buf[16:20]))
	rh := int(binary.LittleEndian.Uint32(buf[20:24]))
	n := rw * rh
	if len(buf) != regionHeaderSize+n*4 {
		return nil, errs.Decodef(nil, "region envelope size mismatch: got %d bytes, want %d", len(buf), regionHeaderSize+n*4)
	}
	data := make([]float32, n)
	off := regionHeaderSize
	for i := 0; i < n; i++ {
		data[i] = getFloat32(buf, off)
		off += 4
	}
	return &Region{X: rx, Y: ry, W: rw, H: rh, Data: data}, nil
}

// ApplyRegion patches g in place with the pixels of a decoded Region.
func ApplyRegion(g *heightmap.Grid, r *Region) error {
	if r.X+r.W > g.Width() || r.Y+r.H > g.Height() {
		return errs.Validationf("region (%d,%d,%d,%d) exceeds grid %dx%d", r.X, r.Y, r.W, r.H, g.Width(), g.Height())
	}
	i := 0
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			g.Set(x, y, r.Data[i])
			i++
		}
	}
	return nil
}
