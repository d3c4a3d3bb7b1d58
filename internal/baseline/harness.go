// Package baseline supplies recorded test data to regression tests: a
// YAML manifest names test cases, points each at its image and mask,
// and records the expected value of every feature. The engine itself
// never touches this package; it exists so harnesses can iterate test
// cases and compare computed features against baselines.
package baseline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"glrlm3d/internal/dicomio"
	"glrlm3d/pkg/volume"
)

// defaultTolerance is the relative tolerance used when the manifest
// does not set one.
const defaultTolerance = 1e-3

// Manifest is the on-disk layout of a baseline file.
type Manifest struct {
	// Tolerance is the relative comparison tolerance; zero selects the
	// default.
	Tolerance float64 `yaml:"tolerance"`

	// Cases lists the test cases in enumeration order.
	Cases []Case `yaml:"cases"`
}

// Case describes one test case: a volume source plus expected feature
// values. Exactly one of Inline or the DICOM directory pair is set.
type Case struct {
	Name string `yaml:"name"`

	// ImageDir and MaskDir name DICOM series directories, relative to
	// the manifest.
	ImageDir string `yaml:"imageDir,omitempty"`
	MaskDir  string `yaml:"maskDir,omitempty"`

	// Inline embeds the volume directly in the manifest, which keeps
	// small fixtures self-contained.
	Inline *InlineVolume `yaml:"inline,omitempty"`

	// Expected maps feature name to its recorded value.
	Expected map[string]float64 `yaml:"expected"`
}

// InlineVolume is a volume embedded in the manifest: dimensions, flat
// row-major values, and an optional 0/1 mask (empty means all voxels
// are in the region of interest).
type InlineVolume struct {
	Dims    [3]int     `yaml:"dims"`
	Spacing [3]float64 `yaml:"spacing,omitempty"`
	Values  []float64  `yaml:"values"`
	Mask    []int      `yaml:"mask,omitempty"`
}

// Harness loads a manifest and serves grids and baseline checks to a
// test loop. Grids are cached per case, so asking for the same case
// twice returns the identical grid and downstream caches stay warm.
type Harness struct {
	manifest Manifest
	baseDir  string
	cases    map[string]*Case
	grids    map[string]*volume.Grid
}

// Load reads a manifest file.
func Load(path string) (*Harness, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	if manifest.Tolerance == 0 {
		manifest.Tolerance = defaultTolerance
	}

	h := &Harness{
		manifest: manifest,
		baseDir:  filepath.Dir(path),
		cases:    make(map[string]*Case),
		grids:    make(map[string]*volume.Grid),
	}
	for i := range manifest.Cases {
		c := &manifest.Cases[i]
		if c.Name == "" {
			return nil, fmt.Errorf("case %d has no name", i)
		}
		if _, dup := h.cases[c.Name]; dup {
			return nil, fmt.Errorf("duplicate case name %q", c.Name)
		}
		h.cases[c.Name] = c
	}

	return h, nil
}

// TestCases returns the case names in manifest order.
func (h *Harness) TestCases() []string {
	names := make([]string, len(h.manifest.Cases))
	for i, c := range h.manifest.Cases {
		names[i] = c.Name
	}
	return names
}

// Grid returns the voxel grid of a test case, loading and caching it on
// first use.
func (h *Harness) Grid(name string) (*volume.Grid, error) {
	if grid, ok := h.grids[name]; ok {
		return grid, nil
	}

	c, ok := h.cases[name]
	if !ok {
		return nil, fmt.Errorf("unknown test case %q", name)
	}

	var grid *volume.Grid
	var err error
	switch {
	case c.Inline != nil:
		grid, err = c.Inline.grid()
	case c.ImageDir != "" && c.MaskDir != "":
		grid, err = h.loadDicom(c)
	default:
		err = fmt.Errorf("case %q has neither inline data nor DICOM directories", name)
	}
	if err != nil {
		return nil, err
	}

	h.grids[name] = grid
	return grid, nil
}

// CheckResult compares a computed feature value against the recorded
// baseline of a case, within the manifest's relative tolerance.
func (h *Harness) CheckResult(caseName, featureName string, got float64) error {
	c, ok := h.cases[caseName]
	if !ok {
		return fmt.Errorf("unknown test case %q", caseName)
	}
	want, ok := c.Expected[featureName]
	if !ok {
		return fmt.Errorf("case %q has no baseline for %q", caseName, featureName)
	}

	scale := math.Abs(want)
	if scale < 1 {
		scale = 1
	}
	if diff := math.Abs(got - want); diff > h.manifest.Tolerance*scale {
		return fmt.Errorf("case %q feature %q: got %g, baseline %g (diff %g exceeds tolerance %g)",
			caseName, featureName, got, want, diff, h.manifest.Tolerance*scale)
	}
	return nil
}

// grid materializes an inline volume.
func (v *InlineVolume) grid() (*volume.Grid, error) {
	n := v.Dims[0] * v.Dims[1] * v.Dims[2]
	if len(v.Values) != n {
		return nil, fmt.Errorf("inline volume has %d values, dims %v need %d", len(v.Values), v.Dims, n)
	}

	mask := make([]bool, n)
	if len(v.Mask) == 0 {
		for i := range mask {
			mask[i] = true
		}
	} else {
		if len(v.Mask) != n {
			return nil, fmt.Errorf("inline mask has %d values, dims %v need %d", len(v.Mask), v.Dims, n)
		}
		for i, m := range v.Mask {
			mask[i] = m != 0
		}
	}

	spacing := volume.Spacing{X: v.Spacing[0], Y: v.Spacing[1], Z: v.Spacing[2]}
	if spacing.X == 0 {
		spacing = volume.Spacing{X: 1, Y: 1, Z: 1}
	}

	return volume.New(v.Values, mask, v.Dims[0], v.Dims[1], v.Dims[2], spacing)
}

// loadDicom reads a case's image and mask series.
func (h *Harness) loadDicom(c *Case) (*volume.Grid, error) {
	image, err := dicomio.LoadSeries(filepath.Join(h.baseDir, c.ImageDir))
	if err != nil {
		return nil, fmt.Errorf("case %q image: %w", c.Name, err)
	}
	mask, err := dicomio.LoadSeries(filepath.Join(h.baseDir, c.MaskDir))
	if err != nil {
		return nil, fmt.Errorf("case %q mask: %w", c.Name, err)
	}
	return dicomio.BuildGrid(image, mask)
}
