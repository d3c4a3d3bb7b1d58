package glrlm

import "gonum.org/v1/gonum/floats"

// Matrix tabulates run counts indexed by gray level and run length.
// Entry (i, j) counts the maximal runs of gray level i (1-based) with
// length j (1-based). Counts are float64 so matrices can be summed and
// fed to the feature formulas without conversion.
type Matrix struct {
	counts    [][]float64 // [level-1][runLength-1]
	numLevels int
	maxRun    int
}

// NewMatrix creates a zero matrix covering gray levels 1..numLevels and
// run lengths 1..maxRun.
func NewMatrix(numLevels, maxRun int) *Matrix {
	counts := make([][]float64, numLevels)
	for i := range counts {
		counts[i] = make([]float64, maxRun)
	}
	return &Matrix{counts: counts, numLevels: numLevels, maxRun: maxRun}
}

// NumLevels returns the number of gray-level rows.
func (m *Matrix) NumLevels() int { return m.numLevels }

// MaxRunLength returns the largest representable run length.
func (m *Matrix) MaxRunLength() int { return m.maxRun }

// Add records one run of the given gray level and length.
func (m *Matrix) Add(level, runLength int) {
	m.counts[level-1][runLength-1]++
}

// At returns the count for (level, runLength), both 1-based.
func (m *Matrix) At(level, runLength int) float64 {
	return m.counts[level-1][runLength-1]
}

// TotalRuns returns the sum of all entries, which equals the number of
// runs tabulated into the matrix.
func (m *Matrix) TotalRuns() float64 {
	total := 0.0
	for _, row := range m.counts {
		total += floats.Sum(row)
	}
	return total
}

// GrayLevelMarginal returns the per-level run counts: element i is the
// number of runs with gray level i+1, regardless of length.
func (m *Matrix) GrayLevelMarginal() []float64 {
	marginal := make([]float64, m.numLevels)
	for i, row := range m.counts {
		marginal[i] = floats.Sum(row)
	}
	return marginal
}

// RunLengthMarginal returns the per-length run counts: element j is the
// number of runs with length j+1, regardless of gray level.
func (m *Matrix) RunLengthMarginal() []float64 {
	marginal := make([]float64, m.maxRun)
	for _, row := range m.counts {
		floats.Add(marginal, row)
	}
	return marginal
}

// addInto accumulates m into dst. Both matrices must share dimensions.
func (m *Matrix) addInto(dst *Matrix) {
	for i, row := range m.counts {
		floats.Add(dst.counts[i], row)
	}
}
