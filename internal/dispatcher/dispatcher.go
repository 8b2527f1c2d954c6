// Package dispatcher routes external requests to the numeric
// subsystems and owns the grid's exclusive lock. Every command blocks
// on that lock except hydraulic erosion, which acquires it inside its
// own worker goroutine and returns to the caller immediately, and
// abort, which only sets the cancel flag.
package dispatcher

import (
	"io"
	"math/rand"
	"sync"

	"terrainops/internal/blend"
	"terrainops/internal/brush"
	"terrainops/internal/envelope"
	"terrainops/internal/erosion/hydraulic"
	"terrainops/internal/erosion/thermal"
	"terrainops/internal/errs"
	"terrainops/internal/heightmap"
	"terrainops/internal/noise"
	"terrainops/internal/project"
	"terrainops/internal/worker"
)

// Dispatcher owns the authoritative grid and serializes all mutation
// through a single exclusive lock. Hydraulic erosion is the one
// exception: it acquires the lock inside its own goroutine and the
// calling request returns immediately after spawning.
type Dispatcher struct {
	mu      sync.Mutex
	grid    *heightmap.Grid
	erosion worker.ErosionControl
}

// New creates a Dispatcher over a zero-filled width x height grid.
func New(width, height int) *Dispatcher {
	return &Dispatcher{grid: heightmap.New(width, height)}
}

// GetHeightmap returns a full envelope of the current grid.
func (d *Dispatcher) GetHeightmap() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return envelope.PackFull(d.grid)
}

// ApplyBrushStroke applies one stroke and returns an envelope: a
// region envelope over the dirty rectangle, or a full envelope if the
// stroke touched nothing.
func (d *Dispatcher) ApplyBrushStroke(s brush.Stroke) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	rect := brush.Apply(d.grid, s)
	if rect.Empty() {
		return envelope.PackFull(d.grid)
	}
	return envelope.PackRegion(d.grid, rect.X, rect.Y, rect.W, rect.H)
}

// GenerateTerrain overwrites the grid with fractal noise.
func (d *Dispatcher) GenerateTerrain(p noise.Params) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := noise.Generate(d.grid, p); err != nil {
		return nil, err
	}
	return envelope.PackFull(d.grid), nil
}

// RunThermalErosion runs thermal.Run synchronously and returns a full
// envelope; unlike hydraulic erosion this is fast enough to stay on
// the caller's dispatch thread.
func (d *Dispatcher) RunThermalErosion(p thermal.Params) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	thermal.Run(d.grid, p)
	return envelope.PackFull(d.grid)
}

// RunHydraulicErosion claims the single erosion slot and spawns a
// worker goroutine that takes the grid mutex for the job's full
// duration; it returns immediately after spawning, with progress
// delivered asynchronously. Progress, and a final value of 1.0 on normal
// completion, are sent to progress; sends are non-blocking and may be
// silently dropped. The
// channel is closed when the job ends on any path, including abort.
func (d *Dispatcher) RunHydraulicErosion(p hydraulic.Params, seed int64, progress chan<- float64) error {
	return d.erosion.Run(func(abort func() bool) {
		if progress != nil {
			defer close(progress)
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		hydraulic.Run(d.grid, p, rand.New(rand.NewSource(seed)), abort, progress)
	})
}

// AbortErosion sets the cooperative cancel flag without touching the
// grid; it may be called concurrently with an in-flight job.
func (d *Dispatcher) AbortErosion() {
	d.erosion.RequestAbort()
}

// ApplyDepthWithMask blends an externally produced depth field into
// the grid and returns a full envelope.
func (d *Dispatcher) ApplyDepthWithMask(depth []float32, weights []float32) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := blend.ApplyDepthWithMask(d.grid, depth, weights); err != nil {
		return nil, err
	}
	return envelope.PackFull(d.grid), nil
}

// SetHeightmap replaces the entire grid with an externally supplied
// row-major f32 buffer of the same dimensions.
func (d *Dispatcher) SetHeightmap(data []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(data) != d.grid.Width()*d.grid.Height() {
		return errs.Validationf("set_heightmap length %d does not match grid size %d", len(data), d.grid.Width()*d.grid.Height())
	}
	copy(d.grid.Data(), data)
	return nil
}

// Snapshot returns a read-only clone of the current grid, used by
// project save and export without holding the dispatcher lock for the
// duration of archive I/O.
func (d *Dispatcher) Snapshot() *heightmap.Grid {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid.Clone()
}

// LoadGrid atomically replaces the dispatcher's grid, used by project
// load. The new grid's dimensions need not match the previous grid's.
func (d *Dispatcher) LoadGrid(g *heightmap.Grid) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grid = g
}

// SaveProject writes the current grid, plus caller-supplied texture and
// settings, to w as a project archive. createdAt is a unix timestamp
// supplied by the caller; the dispatcher has no clock of its own.
func (d *Dispatcher) SaveProject(w io.Writer, appVersion string, texture []byte, settings string, createdAt int64) error {
	snap := d.Snapshot()
	p := &project.Project{
		Manifest: project.Manifest{
			FormatVersion: 1,
			AppVersion:    appVersion,
			Width:         snap.Width(),
			Height:        snap.Height(),
			CreatedAt:     createdAt,
			HasTexture:    texture != nil,
		},
		Grid:     snap,
		Texture:  texture,
		Settings: settings,
	}
	return project.Save(w, p)
}

// LoadProject reads a project archive from r and replaces the live grid
// with its heightmap, returning the loaded project's manifest, texture,
// and settings for the caller to relay back.
func (d *Dispatcher) LoadProject(r io.ReaderAt, size int64) (*project.Project, error) {
	p, err := project.Load(r, size)
	if err != nil {
		return nil, err
	}
	d.LoadGrid(p.Grid)
	return p, nil
}

// ExportHeightmap encodes a snapshot of the current grid in the
// requested export format.
func (d *Dispatcher) ExportHeightmap(format project.ExportFormat) ([]byte, error) {
	return project.Export(d.Snapshot(), format)
}
