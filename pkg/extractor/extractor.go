// Package extractor orchestrates the run-length feature pipeline: it
// owns one voxel grid at a time, lazily builds and caches the
// run-length matrices, tracks which features are enabled and serves
// computed values by name.
package extractor

import (
	"errors"
	"fmt"

	"glrlm3d/pkg/discretize"
	"glrlm3d/pkg/features"
	"glrlm3d/pkg/glrlm"
	"glrlm3d/pkg/volume"
)

// ErrNotComputed indicates a feature value requested before a
// successful CalculateFeatures call covered it.
var ErrNotComputed = errors.New("feature not computed")

// Params configures an extractor.
type Params struct {
	// Bins is the gray-level discretization to apply to each grid.
	Bins discretize.Spec

	// Directions is the scan direction set. Nil selects the full 3D set.
	Directions []glrlm.Direction

	// Aggregation selects how per-direction matrices combine into
	// feature values.
	Aggregation features.Aggregation

	// Workers caps concurrent direction scans. Values below 2 scan
	// serially.
	Workers int
}

// Extractor computes enabled run-length features for its current grid.
//
// The run-length matrices are built on the first CalculateFeatures call
// after a grid change and reused until the grid changes again. Results
// are all-or-nothing: a failed calculation stores no values.
type Extractor struct {
	params Params

	grid    *volume.Grid
	matrix  *glrlm.Result
	enabled map[string]struct{}
	values  map[string]float64

	// upToDate is true while values reflects the current grid and
	// enabled set, letting repeated CalculateFeatures calls return
	// without recomputing.
	upToDate bool
}

// New creates an extractor with no grid and no enabled features.
func New(params Params) *Extractor {
	if params.Directions == nil {
		params.Directions = glrlm.Directions3D
	}
	return &Extractor{
		params:  params,
		enabled: make(map[string]struct{}),
		values:  make(map[string]float64),
	}
}

// SetGrid replaces the owned grid and reports whether it actually
// changed. Grids are compared by generation, not content: a freshly
// constructed grid always counts as changed, even if its voxel data
// matches the previous one. On change the cached matrices and all
// previously computed values are dropped.
func (e *Extractor) SetGrid(grid *volume.Grid) bool {
	if e.grid != nil && grid != nil && e.grid.Generation() == grid.Generation() {
		return false
	}
	e.grid = grid
	e.matrix = nil
	e.values = make(map[string]float64)
	e.upToDate = false
	return true
}

// DisableAllFeatures empties the enabled set.
func (e *Extractor) DisableAllFeatures() {
	if len(e.enabled) == 0 {
		return
	}
	e.enabled = make(map[string]struct{})
	e.upToDate = false
}

// EnableFeatureByName adds one feature to the enabled set. Fails with
// features.ErrUnknownFeature for names not in the registry.
func (e *Extractor) EnableFeatureByName(name string) error {
	if _, ok := features.Lookup(name); !ok {
		return fmt.Errorf("%w: %q", features.ErrUnknownFeature, name)
	}
	if _, ok := e.enabled[name]; ok {
		return nil
	}
	e.enabled[name] = struct{}{}
	e.upToDate = false
	return nil
}

// EnableAllFeatures enables every registered feature.
func (e *Extractor) EnableAllFeatures() {
	for _, name := range features.Names() {
		e.enabled[name] = struct{}{}
	}
	e.upToDate = false
}

// EnabledFeatures returns the enabled names in canonical registry order.
func (e *Extractor) EnabledFeatures() []string {
	names := make([]string, 0, len(e.enabled))
	for _, name := range features.Names() {
		if _, ok := e.enabled[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// CalculateFeatures computes every enabled feature for the current
// grid, building the run-length matrices first if they are stale. When
// neither the grid nor the enabled set changed since the last call the
// stored values are already current and nothing is recomputed. On any
// failure the stored values are left untouched.
func (e *Extractor) CalculateFeatures() error {
	if e.grid == nil {
		return errors.New("no grid set")
	}
	if e.upToDate {
		return nil
	}

	if e.matrix == nil {
		disc, err := discretize.Apply(e.grid, e.params.Bins)
		if err != nil {
			return err
		}
		builder := glrlm.Builder{
			Directions: e.params.Directions,
			Workers:    e.params.Workers,
		}
		matrix, err := builder.Build(e.grid, disc)
		if err != nil {
			return err
		}
		e.matrix = matrix
	}

	values := make(map[string]float64, len(e.enabled))
	for name := range e.enabled {
		v, err := features.Compute(name, e.matrix, e.params.Aggregation)
		if err != nil {
			return err
		}
		values[name] = v
	}

	e.values = values
	e.upToDate = true
	return nil
}

// FeatureValue returns the last computed value of an enabled feature.
// Fails with features.ErrUnknownFeature for unregistered names and with
// ErrNotComputed for registered features that have no current value.
func (e *Extractor) FeatureValue(name string) (float64, error) {
	if _, ok := features.Lookup(name); !ok {
		return 0, fmt.Errorf("%w: %q", features.ErrUnknownFeature, name)
	}
	v, ok := e.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotComputed, name)
	}
	return v, nil
}

// FeatureValues returns a copy of all currently computed values keyed
// by feature name.
func (e *Extractor) FeatureValues() map[string]float64 {
	values := make(map[string]float64, len(e.values))
	for name, v := range e.values {
		values[name] = v
	}
	return values
}
