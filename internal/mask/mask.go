// Package mask decodes externally supplied grayscale images into the
// per-pixel weight fields the AI-blend subsystem consumes,
// and softens mask edges via separable box blur.
package mask

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"terrainops/internal/errs"
)

// Decode parses a grayscale image (PNG) and resizes it to width x
// height, returning a row-major weight buffer in [0,1] (255 -> 1.0).
func Decode(data []byte, width, height int) ([]float32, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Decodef(err, "decode mask image")
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			out[row+x] = float32(dst.GrayAt(x, y).Y) / 255
		}
	}
	return out, nil
}

// EncodePNG re-encodes a grayscale float buffer back to PNG bytes,
// clamping each weight to [0,1] and rounding to 8 bits.
func EncodePNG(weights []float32, width, height int) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			v := weights[row+x]
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v*255 + 0.5)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errs.IOErrorf(err, "encode mask png")
	}
	return buf.Bytes(), nil
}

// Feather applies a two-pass separable box blur of the given radius,
// normalizing by the number of in-bounds taps so edges are not
// darkened.
func Feather(weights []float32, width, height int, radius int) []float32 {
	horiz := boxBlurHoriz(weights, width, height, radius)
	return boxBlurVert(horiz, width, height, radius)
}

func boxBlurHoriz(src []float32, width, height, radius int) []float32 {
	out := make([]float32, len(src))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var sum float32
			var count int
			for dx := -radius; dx <= radius; dx++ {
				sx := x + dx
				if sx < 0 || sx >= width {
					continue
				}
				sum += src[row+sx]
				count++
			}
			out[row+x] = sum / float32(count)
		}
	}
	return out
}

func boxBlurVert(src []float32, width, height, radius int) []float32 {
	out := make([]float32, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float32
			var count int
			for dy := -radius; dy <= radius; dy++ {
				sy := y + dy
				if sy < 0 || sy >= height {
					continue
				}
				sum += src[sy*width+x]
				count++
			}
			out[y*width+x] = sum / float32(count)
		}
	}
	return out
}
