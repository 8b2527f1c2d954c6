// Package blend mixes an externally produced depth field into the
// heightmap, range-matched to the masked region's existing elevation
// span and feathered at the mask edge.
package blend

import (
	"terrainops/internal/errs"
	"terrainops/internal/heightmap"
	"terrainops/internal/mask"
)

const featherRadius = 8

// ApplyDepthWithMask blends depth (row-major, same dimensions as g)
// into g. If weights is nil, the grid is overwritten by depth
// unchanged. len(depth) and len(weights) (when non-nil) must equal
// g.Width()*g.Height().
func ApplyDepthWithMask(g *heightmap.Grid, depth []float32, weights []float32) error {
	n := g.Width() * g.Height()
	if len(depth) != n {
		return errs.Validationf("depth length %d does not match grid size %d", len(depth), n)
	}
	if weights == nil {
		copy(g.Data(), depth)
		return nil
	}
	if len(weights) != n {
		return errs.Validationf("mask length %d does not match grid size %d", len(weights), n)
	}

	hmin, hmax, any := maskedRange(g.Data(), weights)
	if !any {
		hmin, hmax = 0, 1
	}
	rng := hmax - hmin
	if rng < 0.05 {
		rng = 0.05
	}
	targetMin := hmin - 0.3*rng
	if targetMin < 0 {
		targetMin = 0
	}
	targetMax := hmax + 0.3*rng
	if targetMax > 1 {
		targetMax = 1
	}

	dmin, dmax, _ := maskedRange(depth, weights)
	drange := dmax - dmin
	if drange < 1e-6 {
		drange = 1e-6
	}

	feathered := mask.Feather(weights, g.Width(), g.Height(), featherRadius)

	data := g.Data()
	for i := range data {
		w := feathered[i]
		if w <= 0.001 {
			continue
		}
		nval := (depth[i] - dmin) / drange
		r := targetMin + nval*(targetMax-targetMin)
		data[i] = data[i]*(1-w) + r*w
	}
	return nil
}

func maskedRange(data, weights []float32) (lo, hi float32, any bool) {
	for i, v := range data {
		if weights[i] <= 0.1 {
			continue
		}
		if !any {
			lo, hi = v, v
			any = true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return
}
