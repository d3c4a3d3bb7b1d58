// Package discretize maps continuous voxel intensities inside a region
// of interest to a finite set of integer gray levels. The run-length
// engine operates on these labels, never on raw intensities.
package discretize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"glrlm3d/pkg/volume"
)

// ErrInvalidBinSpec indicates a bin specification that cannot produce
// a valid discretization (non-positive bin width or bin count).
var ErrInvalidBinSpec = errors.New("invalid bin specification")

// Spec describes how masked intensities map to gray levels.
//
// Exactly one mode is active: when BinCount is positive the masked
// intensity range is split into that many equal bins; otherwise BinWidth
// is used and the number of levels follows from the data range.
type Spec struct {
	// BinWidth is the intensity width of one gray level. Used when
	// BinCount is zero. Must be positive in that case.
	BinWidth float64

	// BinCount fixes the number of gray levels regardless of the
	// intensity range. Overrides BinWidth when positive.
	BinCount int
}

// Validate checks that the spec selects a usable mode.
func (s Spec) Validate() error {
	if s.BinCount < 0 {
		return fmt.Errorf("%w: bin count %d is negative", ErrInvalidBinSpec, s.BinCount)
	}
	if s.BinCount == 0 && s.BinWidth <= 0 {
		return fmt.Errorf("%w: bin width %g is not positive", ErrInvalidBinSpec, s.BinWidth)
	}
	return nil
}

// Result holds the discretized grid. Labels is a flat array in the same
// row-major layout as the source grid: values in [1, NumLevels] for
// masked voxels, 0 outside the mask.
type Result struct {
	Labels    []int
	NumLevels int
}

// Apply discretizes the masked intensities of the grid.
//
// Fixed-width mode assigns level floor((v-min)/width)+1, so the lowest
// masked intensity lands in level 1 and the level count follows from the
// observed range. Fixed-count mode divides [min, max] into BinCount
// equal bins and clamps the top edge into the last bin. A region with a
// single intensity value always yields one level in either mode.
func Apply(grid *volume.Grid, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	labels := make([]int, grid.NumVoxels())
	masked := grid.MaskedValues()
	if len(masked) == 0 {
		// Nothing to label. The builder rejects empty masks with its
		// own error; here an all-zero label array is the honest answer.
		return &Result{Labels: labels, NumLevels: 0}, nil
	}

	min := floats.Min(masked)
	max := floats.Max(masked)

	numLevels := 0
	for z := 0; z < grid.Depth(); z++ {
		for y := 0; y < grid.Height(); y++ {
			for x := 0; x < grid.Width(); x++ {
				if !grid.Masked(x, y, z) {
					continue
				}
				v := grid.Intensity(x, y, z)

				var label int
				if spec.BinCount > 0 {
					label = fixedCountLabel(v, min, max, spec.BinCount)
				} else {
					label = int(math.Floor((v-min)/spec.BinWidth)) + 1
				}

				labels[grid.Index(x, y, z)] = label
				if label > numLevels {
					numLevels = label
				}
			}
		}
	}

	return &Result{Labels: labels, NumLevels: numLevels}, nil
}

// fixedCountLabel bins v into one of count equal-width bins spanning
// [min, max], clamping the upper edge into the top bin.
func fixedCountLabel(v, min, max float64, count int) int {
	if max <= min {
		return 1
	}
	width := (max - min) / float64(count)
	label := int(math.Floor((v-min)/width)) + 1
	if label > count {
		label = count
	}
	return label
}
