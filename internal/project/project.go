// Package project implements the ZIP-based project archive format and
// the two heightmap export formats.
package project

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"terrainops/internal/errs"
	"terrainops/internal/heightmap"
)

const formatVersion = 1

// Manifest mirrors manifest.json in a saved project archive.
type Manifest struct {
	FormatVersion int    `json:"formatVersion"`
	AppVersion    string `json:"appVersion"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	CreatedAt     int64  `json:"createdAt"`
	HasTexture    bool   `json:"hasTexture"`
}

// Project is the in-memory form of a loaded or to-be-saved archive.
type Project struct {
	Manifest Manifest
	Grid     *heightmap.Grid
	Texture  []byte // optional PNG bytes
	Settings string // opaque UTF-8 blob, "{}" default
}

// Save writes a Project to w as a ZIP archive.
func Save(w io.Writer, p *Project) error {
	zw := zip.NewWriter(w)

	manifestBytes, err := json.Marshal(p.Manifest)
	if err != nil {
		return errs.IOErrorf(err, "marshal manifest")
	}
	if err := writeDeflated(zw, "manifest.json", manifestBytes); err != nil {
		return err
	}

	heightmapBytes := encodeHeightmapBin(p.Grid)
	if err := writeDeflated(zw, "heightmap.bin", heightmapBytes); err != nil {
		return err
	}

	if p.Texture != nil {
		if err := writeStored(zw, "texture.png", p.Texture); err != nil {
			return err
		}
	}

	settings := p.Settings
	if settings == "" {
		settings = "{}"
	}
	if err := writeDeflated(zw, "settings.json", []byte(settings)); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return errs.IOErrorf(err, "close project archive")
	}
	return nil
}

func writeDeflated(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return errs.IOErrorf(err, "create archive entry %s", name)
	}
	if _, err := fw.Write(data); err != nil {
		return errs.IOErrorf(err, "write archive entry %s", name)
	}
	return nil
}

func writeStored(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return errs.IOErrorf(err, "create archive entry %s", name)
	}
	if _, err := fw.Write(data); err != nil {
		return errs.IOErrorf(err, "write archive entry %s", name)
	}
	return nil
}

func encodeHeightmapBin(g *heightmap.Grid) []byte {
	data := g.Data()
	buf := make([]byte, len(data)*4)
	off := 0
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	return buf
}

func decodeHeightmapBin(buf []byte, width, height int) (*heightmap.Grid, error) {
	n := width * height
	if len(buf) != n*4 {
		return nil, errs.Decodef(nil, "heightmap.bin size %d does not match %dx%d", len(buf), width, height)
	}
	data := make([]float32, n)
	off := 0
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	return heightmap.NewFromData(data, width, height), nil
}

// Load reads a Project from a ZIP archive of size bytes at r.
func Load(r io.ReaderAt, size int64) (*Project, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errs.Decodef(err, "open project archive")
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	manifestFile, ok := files["manifest.json"]
	if !ok {
		return nil, errs.IOErrorf(nil, "archive missing manifest.json")
	}
	manifestBytes, err := readZipFile(manifestFile)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, errs.Decodef(err, "parse manifest.json")
	}
	if manifest.FormatVersion > formatVersion {
		return nil, errs.Decodef(nil, "unsupported project format version %d", manifest.FormatVersion)
	}

	heightmapFile, ok := files["heightmap.bin"]
	if !ok {
		return nil, errs.IOErrorf(nil, "archive missing heightmap.bin")
	}
	heightmapBytes, err := readZipFile(heightmapFile)
	if err != nil {
		return nil, err
	}
	grid, err := decodeHeightmapBin(heightmapBytes, manifest.Width, manifest.Height)
	if err != nil {
		return nil, err
	}

	var texture []byte
	if manifest.HasTexture {
		textureFile, ok := files["texture.png"]
		if !ok {
			return nil, errs.IOErrorf(nil, "manifest declares texture but archive missing texture.png")
		}
		texture, err = readZipFile(textureFile)
		if err != nil {
			return nil, err
		}
	}

	settings := "{}"
	if settingsFile, ok := files["settings.json"]; ok {
		settingsBytes, err := readZipFile(settingsFile)
		if err != nil {
			return nil, err
		}
		settings = string(settingsBytes)
	}

	return &Project{Manifest: manifest, Grid: grid, Texture: texture, Settings: settings}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errs.IOErrorf(err, "open archive entry %s", f.Name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errs.IOErrorf(err, "read archive entry %s", f.Name)
	}
	return data, nil
}

// ExportFormat selects a heightmap export encoding.
type ExportFormat string

const (
	FormatPNG16  ExportFormat = "png16"
	FormatRawF32 ExportFormat = "raw_f32"
)

// Export encodes g in the requested format.
func Export(g *heightmap.Grid, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatPNG16:
		return exportPNG16(g)
	case FormatRawF32:
		return encodeHeightmapBin(g), nil
	default:
		return nil, errs.Validationf("unknown export format %q", format)
	}
}

func exportPNG16(g *heightmap.Grid) ([]byte, error) {
	img := image.NewGray16(image.Rect(0, 0, g.Width(), g.Height()))
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			h := g.At(x, y)
			if h < 0 {
				h = 0
			}
			if h > 1 {
				h = 1
			}
			v := uint16(math.Round(float64(h) * 65535))
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errs.IOErrorf(err, "encode png16 export")
	}
	return buf.Bytes(), nil
}
