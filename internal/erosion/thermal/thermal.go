// Package thermal implements iterated talus-threshold redistribution:
// each sweep reads a frozen snapshot and writes the live grid, so
// material moved within a sweep is never double-counted.
package thermal

import "terrainops/internal/heightmap"

// Params configures one thermal erosion run.
type Params struct {
	Iterations int
	Talus      float32
	Transfer   float32
}

type neighborOffset struct{ dx, dy int }

var neighbors4 = [4]neighborOffset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Run applies Params.Iterations sweeps of thermal redistribution to g
// in place. It intentionally scales the transferred excess by the
// single largest over-talus diff, not the sum of all qualifying
// diffs.
func Run(g *heightmap.Grid, p Params) {
	w, h := g.Width(), g.Height()
	cellSize := float32(1) / float32(w)

	for iter := 0; iter < p.Iterations; iter++ {
		snapshot := g.Clone()

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				center := snapshot.At(x, y)

				var diffs [4]float32
				var nx, ny [4]int
				count := 0
				maxDiff := float32(0)
				sumDiff := float32(0)

				for _, off := range neighbors4 {
					ox, oy := x+off.dx, y+off.dy
					if ox < 0 || ox >= w || oy < 0 || oy >= h {
						continue
					}
					diff := center - snapshot.At(ox, oy)
					slope := diff / cellSize
					if slope <= p.Talus {
						continue
					}
					diffs[count] = diff
					nx[count] = ox
					ny[count] = oy
					count++
					sumDiff += diff
					if diff > maxDiff {
						maxDiff = diff
					}
				}

				if count == 0 {
					continue
				}

				excess := (maxDiff - p.Talus*cellSize) * p.Transfer
				if excess <= 0 {
					continue
				}

				var totalMoved float32
				for i := 0; i < count; i++ {
					share := excess * (diffs[i] / sumDiff)
					g.Set(nx[i], ny[i], g.At(nx[i], ny[i])+share)
					totalMoved += share
				}
				g.Set(x, y, g.At(x, y)-totalMoved)
			}
		}
	}
}
