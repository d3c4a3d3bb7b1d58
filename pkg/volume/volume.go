// Package volume provides the voxel grid shared by the discretizer and the
// run-length engine: a 3D intensity volume paired with a binary
// region-of-interest mask of identical shape.
package volume

import (
	"fmt"
	"sync/atomic"
)

// generation is a process-wide counter assigned to every grid at
// construction. Consumers compare generations to detect grid changes
// without comparing voxel data.
var generation atomic.Uint64

// Spacing is the physical voxel size per axis in mm.
type Spacing struct {
	X, Y, Z float64
}

// Grid is an immutable 3D intensity volume with a matching binary
// region-of-interest mask. Voxel data is stored as a flat array in
// row-major order (x fastest, then y, then z), the same layout the
// rest of the engine uses for index math.
type Grid struct {
	// intensities holds one value per voxel.
	intensities []float64

	// mask marks which voxels belong to the region of interest.
	mask []bool

	// width, height and depth are the grid dimensions in voxels.
	width, height, depth int

	// spacing is the physical voxel size in mm.
	spacing Spacing

	// gen identifies this grid for cache-invalidation purposes.
	gen uint64
}

// New creates a grid from flat intensity and mask arrays in row-major
// order. Both arrays must have exactly width*height*depth elements and
// all dimensions must be positive. The input slices are copied, so the
// caller may reuse them.
func New(intensities []float64, mask []bool, width, height, depth int, spacing Spacing) (*Grid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%dx%d", width, height, depth)
	}
	n := width * height * depth
	if len(intensities) != n {
		return nil, fmt.Errorf("intensity array has %d values, grid needs %d", len(intensities), n)
	}
	if len(mask) != n {
		return nil, fmt.Errorf("mask array has %d values, grid needs %d", len(mask), n)
	}

	g := &Grid{
		intensities: make([]float64, n),
		mask:        make([]bool, n),
		width:       width,
		height:      height,
		depth:       depth,
		spacing:     spacing,
		gen:         generation.Add(1),
	}
	copy(g.intensities, intensities)
	copy(g.mask, mask)

	return g, nil
}

// Width returns the grid width in voxels.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in voxels.
func (g *Grid) Height() int { return g.height }

// Depth returns the grid depth in voxels.
func (g *Grid) Depth() int { return g.depth }

// Spacing returns the physical voxel size.
func (g *Grid) Spacing() Spacing { return g.spacing }

// Generation returns the grid's construction counter. Two grids built
// in the same process never share a generation, so a changed generation
// means derived data (discretization, run-length matrices) is stale.
func (g *Grid) Generation() uint64 { return g.gen }

// NumVoxels returns the total voxel count, masked or not.
func (g *Grid) NumVoxels() int { return len(g.intensities) }

// Index converts voxel coordinates to the flat array index.
func (g *Grid) Index(x, y, z int) int {
	return z*g.width*g.height + y*g.width + x
}

// In reports whether the coordinates lie inside the grid bounds.
func (g *Grid) In(x, y, z int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height && z >= 0 && z < g.depth
}

// Intensity returns the intensity at the given coordinates.
func (g *Grid) Intensity(x, y, z int) float64 {
	return g.intensities[g.Index(x, y, z)]
}

// Masked reports whether the voxel at the given coordinates belongs to
// the region of interest.
func (g *Grid) Masked(x, y, z int) bool {
	return g.mask[g.Index(x, y, z)]
}

// MaskedCount returns the number of voxels inside the region of interest.
func (g *Grid) MaskedCount() int {
	count := 0
	for _, m := range g.mask {
		if m {
			count++
		}
	}
	return count
}

// MaskedValues returns the intensities of all masked voxels in flat
// index order. The result is empty when the mask is empty.
func (g *Grid) MaskedValues() []float64 {
	values := make([]float64, 0, len(g.intensities))
	for i, m := range g.mask {
		if m {
			values = append(values, g.intensities[i])
		}
	}
	return values
}
