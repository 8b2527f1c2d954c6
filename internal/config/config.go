// Package config loads service configuration from embedded defaults
// with an optional on-disk override.
package config

import (
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"

	"terrainops/internal/erosion/hydraulic"
	"terrainops/internal/erosion/thermal"
	"terrainops/internal/errs"
	"terrainops/internal/noise"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// GridConfig sizes the heightmap at startup; immutable thereafter.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ServerConfig configures the command transport.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// NoisePreset is the default set of NoiseParams used when a request
// omits them.
type NoisePreset struct {
	Kernel      string  `yaml:"kernel"`
	Octaves     int     `yaml:"octaves"`
	Frequency   float64 `yaml:"frequency"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Persistence float64 `yaml:"persistence"`
	Amplitude   float64 `yaml:"amplitude"`
	Offset      float64 `yaml:"offset"`
}

// ToParams converts the preset to noise.Params, resolving the string
// kernel name to noise.Kernel ("simplex" selects Simplex; anything else,
// including an unrecognized name, defaults to Perlin).
func (p NoisePreset) ToParams() noise.Params {
	kernel := noise.Perlin
	if p.Kernel == "simplex" {
		kernel = noise.Simplex
	}
	return noise.Params{
		Kernel:      kernel,
		Octaves:     p.Octaves,
		Frequency:   p.Frequency,
		Lacunarity:  p.Lacunarity,
		Persistence: p.Persistence,
		Amplitude:   p.Amplitude,
		Offset:      p.Offset,
	}
}

// ThermalPreset is the default ThermalParams.
type ThermalPreset struct {
	Iterations   int     `yaml:"iterations"`
	Talus        float64 `yaml:"talus"`
	TransferRate float64 `yaml:"transfer_rate"`
}

// ToParams converts the preset to thermal.Params.
func (p ThermalPreset) ToParams() thermal.Params {
	return thermal.Params{
		Iterations: p.Iterations,
		Talus:      float32(p.Talus),
		Transfer:   float32(p.TransferRate),
	}
}

// HydraulicPreset is the default HydraulicParams.
type HydraulicPreset struct {
	NumDroplets     int     `yaml:"num_droplets"`
	MaxLifetime     int     `yaml:"max_lifetime"`
	ErosionRate     float64 `yaml:"erosion_rate"`
	DepositionRate  float64 `yaml:"deposition_rate"`
	EvaporationRate float64 `yaml:"evaporation_rate"`
	Inertia         float64 `yaml:"inertia"`
	MinSlope        float64 `yaml:"min_slope"`
	CapacityFactor  float64 `yaml:"capacity_factor"`
	ErosionRadius   float64 `yaml:"erosion_radius"`
	Gravity         float64 `yaml:"gravity"`
}

// ToParams converts the preset to hydraulic.Params.
func (p HydraulicPreset) ToParams() hydraulic.Params {
	return hydraulic.Params{
		NumDroplets:     p.NumDroplets,
		MaxLifetime:     p.MaxLifetime,
		ErosionRate:     float32(p.ErosionRate),
		DepositionRate:  float32(p.DepositionRate),
		EvaporationRate: float32(p.EvaporationRate),
		Inertia:         float32(p.Inertia),
		MinSlope:        float32(p.MinSlope),
		CapacityFactor:  float32(p.CapacityFactor),
		ErosionRadius:   float32(p.ErosionRadius),
		Gravity:         float32(p.Gravity),
	}
}

// DepthConfig names the interpreter and scripts invoked across the
// ML subprocess boundary.
type DepthConfig struct {
	PythonBin     string `yaml:"python_bin"`
	DepthScript   string `yaml:"depth_script"`
	InpaintScript string `yaml:"inpaint_script"`
}

// Config is the full service configuration tree.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Server    ServerConfig    `yaml:"server"`
	Noise     NoisePreset     `yaml:"noise"`
	Thermal   ThermalPreset   `yaml:"thermal"`
	Hydraulic HydraulicPreset `yaml:"hydraulic"`
	Depth     DepthConfig     `yaml:"depth"`
}

// Load starts from the embedded defaults and, if path is non-empty,
// overlays an on-disk override — fields absent from the override file
// keep their embedded-default values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, errs.Decodef(err, "parse embedded config defaults")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.IOErrorf(err, "read config override %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Decodef(err, "parse config override %s", path)
		}
	}
	return cfg, nil
}
