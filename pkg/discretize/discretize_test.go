package discretize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glrlm3d/pkg/volume"
)

// gridFromValues builds a fully masked w x h x 1 grid from flat values.
func gridFromValues(t *testing.T, w, h int, values []float64) *volume.Grid {
	t.Helper()

	mask := make([]bool, len(values))
	for i := range mask {
		mask[i] = true
	}
	grid, err := volume.New(values, mask, w, h, 1, volume.Spacing{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	return grid
}

func TestSpecValidate(t *testing.T) {
	assert.NoError(t, Spec{BinWidth: 25}.Validate())
	assert.NoError(t, Spec{BinCount: 16}.Validate())

	assert.ErrorIs(t, Spec{}.Validate(), ErrInvalidBinSpec)
	assert.ErrorIs(t, Spec{BinWidth: -1}.Validate(), ErrInvalidBinSpec)
	assert.ErrorIs(t, Spec{BinCount: -4}.Validate(), ErrInvalidBinSpec)
}

func TestApplyRejectsInvalidSpec(t *testing.T) {
	grid := gridFromValues(t, 2, 1, []float64{1, 2})
	_, err := Apply(grid, Spec{BinWidth: 0})
	assert.ErrorIs(t, err, ErrInvalidBinSpec)
}

func TestFixedBinWidth(t *testing.T) {
	grid := gridFromValues(t, 4, 1, []float64{0, 10, 25, 49})

	res, err := Apply(grid, Spec{BinWidth: 25})
	require.NoError(t, err)

	assert.Equal(t, 2, res.NumLevels)
	assert.Equal(t, []int{1, 1, 2, 2}, res.Labels)
}

func TestFixedBinWidthOffsetRange(t *testing.T) {
	// The lowest masked intensity anchors bin 1 regardless of its value.
	grid := gridFromValues(t, 3, 1, []float64{-50, -26, 0})

	res, err := Apply(grid, Spec{BinWidth: 25})
	require.NoError(t, err)

	assert.Equal(t, 3, res.NumLevels)
	assert.Equal(t, []int{1, 1, 3}, res.Labels)
}

func TestFixedBinCount(t *testing.T) {
	grid := gridFromValues(t, 4, 1, []float64{0, 33, 66, 99})

	res, err := Apply(grid, Spec{BinCount: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, res.NumLevels)
	// The maximum lands exactly on the top edge and is clamped into the
	// last bin.
	assert.Equal(t, []int{1, 2, 3, 4}, res.Labels)
}

func TestSingleIntensityValue(t *testing.T) {
	for _, spec := range []Spec{{BinWidth: 25}, {BinCount: 8}} {
		grid := gridFromValues(t, 3, 1, []float64{7, 7, 7})

		res, err := Apply(grid, spec)
		require.NoError(t, err)

		assert.Equal(t, 1, res.NumLevels)
		assert.Equal(t, []int{1, 1, 1}, res.Labels)
	}
}

func TestUnmaskedVoxelsStayZero(t *testing.T) {
	values := []float64{5, 100, 5, 100}
	mask := []bool{true, false, true, false}
	grid, err := volume.New(values, mask, 2, 2, 1, volume.Spacing{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	res, err := Apply(grid, Spec{BinWidth: 25})
	require.NoError(t, err)

	// Unmasked values do not stretch the range either: every masked
	// voxel holds 5, so a single level remains.
	assert.Equal(t, 1, res.NumLevels)
	assert.Equal(t, []int{1, 0, 1, 0}, res.Labels)
}

func TestEmptyMaskYieldsNoLevels(t *testing.T) {
	values := []float64{1, 2}
	mask := []bool{false, false}
	grid, err := volume.New(values, mask, 2, 1, 1, volume.Spacing{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	res, err := Apply(grid, Spec{BinWidth: 25})
	require.NoError(t, err)

	assert.Equal(t, 0, res.NumLevels)
	assert.Equal(t, []int{0, 0}, res.Labels)
}
