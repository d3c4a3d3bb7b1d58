package render

import (
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glrlm3d/pkg/discretize"
	"glrlm3d/pkg/volume"
)

func TestWriteSlices(t *testing.T) {
	values := []float64{0, 25, 50, 75, 0, 25, 50, 75}
	mask := []bool{true, true, true, false, true, true, true, false}
	grid, err := volume.New(values, mask, 2, 2, 2, volume.Spacing{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	disc, err := discretize.Apply(grid, discretize.Spec{BinWidth: 25})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "preview")
	require.NoError(t, WriteSlices(dir, grid, disc))

	for _, name := range []string{"000.jpg", "001.jpg"} {
		path := filepath.Join(dir, name)
		file, err := os.Open(path)
		require.NoError(t, err, "missing preview %s", name)

		img, err := jpeg.Decode(file)
		file.Close()
		require.NoError(t, err, "preview %s is not a JPEG", name)
		assert.Equal(t, 2, img.Bounds().Dx())
		assert.Equal(t, 2, img.Bounds().Dy())
	}
}

func TestWriteSlicesEmptyMask(t *testing.T) {
	// All-black previews are still written; an empty mask is not a
	// rendering error.
	values := []float64{1, 2, 3, 4}
	mask := []bool{false, false, false, false}
	grid, err := volume.New(values, mask, 2, 2, 1, volume.Spacing{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	disc, err := discretize.Apply(grid, discretize.Spec{BinWidth: 25})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteSlices(dir, grid, disc))

	_, err = os.Stat(filepath.Join(dir, "000.jpg"))
	assert.NoError(t, err)
}
