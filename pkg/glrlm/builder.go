// Package glrlm builds gray-level run-length matrices from a discretized
// voxel grid. A run is a maximal streak of consecutive voxels that share
// the same gray level and all lie inside the region-of-interest mask;
// voxels outside the mask are transparent gaps that terminate runs but
// are never counted themselves.
package glrlm

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"glrlm3d/pkg/discretize"
	"glrlm3d/pkg/volume"
)

// ErrEmptyMask indicates a grid whose region of interest contains no
// voxels, for which no run-length matrix is defined.
var ErrEmptyMask = errors.New("mask contains no voxels")

// Builder scans a discretized grid along a fixed set of directions and
// tabulates runs. The zero value is not usable; set Directions (usually
// Directions3D or Directions2D).
type Builder struct {
	// Directions is the ordered set of scan directions. The order fixes
	// the per-direction layout of the result and the merge order of the
	// aggregate, so it must not change between builds that are compared.
	Directions []Direction

	// Workers caps the number of directions scanned concurrently.
	// Values below 2 select the serial scan. Parallel and serial scans
	// produce identical results: each direction accumulates into its own
	// matrix and the aggregate is merged in direction order.
	Workers int
}

// Result holds the per-direction matrices, their element-wise sum and
// the statistics the feature formulas need.
type Result struct {
	// Directions echoes the builder's direction order.
	Directions []Direction

	// PerDirection holds one matrix per direction, in order.
	PerDirection []*Matrix

	// Aggregate is the element-wise sum of all per-direction matrices.
	Aggregate *Matrix

	// RunsPerDirection holds the run count of each direction's matrix.
	RunsPerDirection []float64

	// TotalRuns is the run count summed over all directions.
	TotalRuns float64

	// NumVoxels is the number of voxels inside the mask.
	NumVoxels int

	// NumLevels is the number of gray-level rows in every matrix.
	NumLevels int
}

// Build tabulates runs for every direction and returns the combined
// result. Fails with ErrEmptyMask when the mask holds no voxels.
func (b *Builder) Build(grid *volume.Grid, disc *discretize.Result) (*Result, error) {
	numVoxels := grid.MaskedCount()
	if numVoxels == 0 {
		return nil, ErrEmptyMask
	}

	maxRun := grid.Width()
	if grid.Height() > maxRun {
		maxRun = grid.Height()
	}
	if grid.Depth() > maxRun {
		maxRun = grid.Depth()
	}

	res := &Result{
		Directions:       b.Directions,
		PerDirection:     make([]*Matrix, len(b.Directions)),
		Aggregate:        NewMatrix(disc.NumLevels, maxRun),
		RunsPerDirection: make([]float64, len(b.Directions)),
		NumVoxels:        numVoxels,
		NumLevels:        disc.NumLevels,
	}

	if b.Workers > 1 {
		var group errgroup.Group
		group.SetLimit(b.Workers)
		for i, dir := range b.Directions {
			i, dir := i, dir
			group.Go(func() error {
				res.PerDirection[i] = scanDirection(grid, disc, dir, maxRun)
				return nil
			})
		}
		// Scans cannot fail; the group only bounds concurrency.
		_ = group.Wait()
	} else {
		for i, dir := range b.Directions {
			res.PerDirection[i] = scanDirection(grid, disc, dir, maxRun)
		}
	}

	// Merge in direction order so the aggregate is reproducible.
	for i, m := range res.PerDirection {
		m.addInto(res.Aggregate)
		res.RunsPerDirection[i] = m.TotalRuns()
		res.TotalRuns += res.RunsPerDirection[i]
	}

	return res, nil
}

// scanDirection tabulates every run along one direction. A voxel starts
// a run when its predecessor along the direction is out of bounds,
// outside the mask, or carries a different gray level; the run then
// extends forward while voxels stay masked and keep the level.
func scanDirection(grid *volume.Grid, disc *discretize.Result, dir Direction, maxRun int) *Matrix {
	m := NewMatrix(disc.NumLevels, maxRun)

	for z := 0; z < grid.Depth(); z++ {
		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				if !grid.Masked(x, y, z) {
					continue
				}
				level := disc.Labels[grid.Index(x, y, z)]

				// Only run starts are expanded, so every maximal run is
				// counted exactly once.
				px, py, pz := x-dir.X, y-dir.Y, z-dir.Z
				if grid.In(px, py, pz) && grid.Masked(px, py, pz) &&
					disc.Labels[grid.Index(px, py, pz)] == level {
					continue
				}

				length := 1
				nx, ny, nz := x+dir.X, y+dir.Y, z+dir.Z
				for grid.In(nx, ny, nz) && grid.Masked(nx, ny, nz) &&
					disc.Labels[grid.Index(nx, ny, nz)] == level {
					length++
					nx, ny, nz = nx+dir.X, ny+dir.Y, nz+dir.Z
				}

				m.Add(level, length)
			}
		}
	}

	return m
}
