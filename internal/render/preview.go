// Package render writes slices of a discretized grid as grayscale JPEG
// images, which makes discretization and masking mistakes visible at a
// glance.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"glrlm3d/pkg/discretize"
	"glrlm3d/pkg/volume"
)

// WriteSlices saves one JPEG per axial slice of the discretized grid
// into dir, named 000.jpg upward. Gray levels are stretched over the
// full 16-bit range; voxels outside the mask stay black.
func WriteSlices(dir string, grid *volume.Grid, disc *discretize.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}

	for z := 0; z < grid.Depth(); z++ {
		img := sliceToImage(grid, disc, z)

		filename := filepath.Join(dir, fmt.Sprintf("%03d.jpg", z))
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create preview file: %w", err)
		}

		if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 90}); err != nil {
			file.Close()
			return fmt.Errorf("failed to encode preview: %w", err)
		}
		file.Close()
	}

	return nil
}

// sliceToImage renders one axial slice of the label array.
func sliceToImage(grid *volume.Grid, disc *discretize.Result, z int) image.Image {
	img := image.NewGray16(image.Rect(0, 0, grid.Width(), grid.Height()))

	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			label := disc.Labels[grid.Index(x, y, z)]
			if label == 0 || disc.NumLevels == 0 {
				continue
			}
			value := uint16(uint32(label) * 65535 / uint32(disc.NumLevels))
			img.Set(x, y, color.Gray16{Y: value})
		}
	}

	return img
}
