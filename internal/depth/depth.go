// Package depth is the Go-side half of the ML subprocess boundary:
// write input bytes to a temp file, invoke a configured external
// script, parse its {success, error} JSON status line, and read back
// the result.
package depth

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"terrainops/internal/errs"
)

// Config names the external scripts and interpreter invoked for each
// boundary operation.
type Config struct {
	PythonBin     string
	DepthScript   string
	InpaintScript string
	TempDir       string
}

type scriptStatus struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c Config) tempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return filepath.Join(os.TempDir(), "terrainops")
}

// EstimateDepth writes image to a temp PNG, invokes the configured
// depth script, and returns the resulting row-major f32 heightmap of
// length width*height.
func EstimateDepth(cfg Config, image []byte, width, height int) ([]float32, error) {
	dir := cfg.tempDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.IOErrorf(err, "create temp dir")
	}

	inputPath := filepath.Join(dir, "depth_input.png")
	outputPath := filepath.Join(dir, "depth_output.bin")
	defer os.Remove(inputPath)
	defer os.Remove(outputPath)

	if err := os.WriteFile(inputPath, image, 0o644); err != nil {
		return nil, errs.IOErrorf(err, "write depth input")
	}

	cmd := exec.Command(cfg.PythonBin, cfg.DepthScript,
		"--input", inputPath,
		"--output", outputPath,
		"--width", strconv.Itoa(width),
		"--height", strconv.Itoa(height),
	)
	stdout, err := cmd.Output()
	if err != nil {
		return nil, errs.IOErrorf(err, "spawn depth estimation subprocess")
	}

	if err := checkStatus(stdout); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errs.IOErrorf(err, "read depth output")
	}
	expected := width * height * 4
	if len(raw) != expected {
		return nil, errs.Decodef(nil, "depth output size %d does not match expected %d", len(raw), expected)
	}
	return decodeFloats(raw), nil
}

// Inpaint writes image and mask to temp PNGs, invokes the configured
// inpaint script with prompt/mode, and returns the resulting PNG bytes
// unchanged — no numeric work happens on this side of the boundary.
func Inpaint(cfg Config, image, mask []byte, prompt, mode string) ([]byte, error) {
	dir := cfg.tempDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.IOErrorf(err, "create temp dir")
	}

	imagePath := filepath.Join(dir, "inpaint_image.png")
	maskPath := filepath.Join(dir, "inpaint_mask.png")
	outputPath := filepath.Join(dir, "inpaint_output.png")
	defer os.Remove(imagePath)
	defer os.Remove(maskPath)
	defer os.Remove(outputPath)

	if err := os.WriteFile(imagePath, image, 0o644); err != nil {
		return nil, errs.IOErrorf(err, "write inpaint image")
	}
	if err := os.WriteFile(maskPath, mask, 0o644); err != nil {
		return nil, errs.IOErrorf(err, "write inpaint mask")
	}

	cmd := exec.Command(cfg.PythonBin, cfg.InpaintScript,
		"--image", imagePath,
		"--mask", maskPath,
		"--prompt", prompt,
		"--output", outputPath,
		"--mode", mode,
	)
	stdout, err := cmd.Output()
	if err != nil {
		return nil, errs.IOErrorf(err, "spawn inpainting subprocess")
	}

	if err := checkStatus(stdout); err != nil {
		return nil, err
	}

	result, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errs.IOErrorf(err, "read inpainting output")
	}
	return result, nil
}

// checkStatus parses the subprocess's trailing JSON status line and
// surfaces a reported failure as an External error verbatim.
func checkStatus(stdout []byte) error {
	line := strings.TrimSpace(string(stdout))
	if i := strings.LastIndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[i+1:])
	}
	var status scriptStatus
	if err := json.Unmarshal([]byte(line), &status); err != nil {
		return errs.Decodef(err, "parse subprocess status: %s", line)
	}
	if !status.Success {
		if status.Error == "" {
			status.Error = "unknown error"
		}
		return errs.Externalf(status.Error)
	}
	return nil
}

func decodeFloats(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	off := 0
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
		off += 4
	}
	return out
}
