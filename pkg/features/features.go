// Package features defines the gray-level run-length texture features
// and the registry through which they are enumerated and evaluated.
//
// Every feature is a pure function of a run-length matrix and two grid
// statistics (masked voxel count and run count). Given the same matrix
// and statistics a feature always returns the same value, which is what
// recorded baselines rely on. A feature dividing by a zero statistic
// returns NaN rather than panicking; with a non-empty mask every
// direction produces at least one run, so NaN only appears for inputs
// the builder already rejects.
package features

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"glrlm3d/pkg/glrlm"
)

// ErrUnknownFeature indicates a feature name that is not in the registry.
var ErrUnknownFeature = errors.New("unknown feature")

// Stats carries the per-matrix grid statistics feature formulas use.
type Stats struct {
	// NumVoxels is the masked voxel count of the grid.
	NumVoxels float64

	// NumRuns is the number of runs tabulated in the matrix being
	// evaluated (one direction's count, or the total for an aggregate).
	NumRuns float64
}

// Func evaluates one feature over a single run-length matrix.
type Func func(m *glrlm.Matrix, s Stats) float64

// Aggregation selects how per-direction matrices combine into one
// feature value.
type Aggregation int

const (
	// AggregationAverage evaluates the feature on each direction's
	// matrix and averages the results. Recorded baselines use this
	// policy; it is the default.
	AggregationAverage Aggregation = iota

	// AggregationSum evaluates the feature once on the element-wise sum
	// of all per-direction matrices.
	AggregationSum
)

// ParseAggregation maps the configuration strings "average" and "sum"
// to their policies.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "average":
		return AggregationAverage, nil
	case "sum":
		return AggregationSum, nil
	}
	return 0, fmt.Errorf("unknown aggregation policy %q", s)
}

// registry fixes the canonical feature order. Enumeration order is what
// keeps test naming and result listings stable across runs.
var registry = []struct {
	name string
	fn   Func
}{
	{"ShortRunEmphasis", shortRunEmphasis},
	{"LongRunEmphasis", longRunEmphasis},
	{"GrayLevelNonUniformity", grayLevelNonUniformity},
	{"RunLengthNonUniformity", runLengthNonUniformity},
	{"RunPercentage", runPercentage},
	{"LowGrayLevelRunEmphasis", lowGrayLevelRunEmphasis},
	{"HighGrayLevelRunEmphasis", highGrayLevelRunEmphasis},
	{"ShortRunLowGrayLevelEmphasis", shortRunLowGrayLevelEmphasis},
	{"ShortRunHighGrayLevelEmphasis", shortRunHighGrayLevelEmphasis},
	{"LongRunLowGrayLevelEmphasis", longRunLowGrayLevelEmphasis},
	{"LongRunHighGrayLevelEmphasis", longRunHighGrayLevelEmphasis},
}

// Names returns the canonical ordered feature names.
func Names() []string {
	names := make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return names
}

// Lookup returns the feature function registered under name.
func Lookup(name string) (Func, bool) {
	for _, entry := range registry {
		if entry.name == name {
			return entry.fn, true
		}
	}
	return nil, false
}

// Compute evaluates the named feature over a build result under the
// given aggregation policy.
func Compute(name string, res *glrlm.Result, policy Aggregation) (float64, error) {
	fn, ok := Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}

	if policy == AggregationSum {
		return fn(res.Aggregate, Stats{
			NumVoxels: float64(res.NumVoxels),
			NumRuns:   res.TotalRuns,
		}), nil
	}

	values := make([]float64, len(res.PerDirection))
	for i, m := range res.PerDirection {
		values[i] = fn(m, Stats{
			NumVoxels: float64(res.NumVoxels),
			NumRuns:   res.RunsPerDirection[i],
		})
	}
	return stat.Mean(values, nil), nil
}

// weightedSum accumulates weight(i, j) * count over all matrix entries,
// with i the gray level and j the run length, both 1-based.
func weightedSum(m *glrlm.Matrix, weight func(i, j int) float64) float64 {
	total := 0.0
	for i := 1; i <= m.NumLevels(); i++ {
		for j := 1; j <= m.MaxRunLength(); j++ {
			if c := m.At(i, j); c != 0 {
				total += weight(i, j) * c
			}
		}
	}
	return total
}

func shortRunEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return 1 / float64(j*j)
	}) / s.NumRuns
}

func longRunEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return float64(j * j)
	}) / s.NumRuns
}

func grayLevelNonUniformity(m *glrlm.Matrix, s Stats) float64 {
	total := 0.0
	for _, rowSum := range m.GrayLevelMarginal() {
		total += rowSum * rowSum
	}
	return total / s.NumRuns
}

func runLengthNonUniformity(m *glrlm.Matrix, s Stats) float64 {
	total := 0.0
	for _, colSum := range m.RunLengthMarginal() {
		total += colSum * colSum
	}
	return total / s.NumRuns
}

func runPercentage(m *glrlm.Matrix, s Stats) float64 {
	return s.NumRuns / s.NumVoxels
}

func lowGrayLevelRunEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return 1 / float64(i*i)
	}) / s.NumRuns
}

func highGrayLevelRunEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return float64(i * i)
	}) / s.NumRuns
}

func shortRunLowGrayLevelEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return 1 / float64(i*i*j*j)
	}) / s.NumRuns
}

func shortRunHighGrayLevelEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return float64(i*i) / float64(j*j)
	}) / s.NumRuns
}

func longRunLowGrayLevelEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return float64(j*j) / float64(i*i)
	}) / s.NumRuns
}

func longRunHighGrayLevelEmphasis(m *glrlm.Matrix, s Stats) float64 {
	return weightedSum(m, func(i, j int) float64 {
		return float64(i * i * j * j)
	}) / s.NumRuns
}
