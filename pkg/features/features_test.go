package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glrlm3d/pkg/glrlm"
)

// testMatrix tabulates four runs over two gray levels:
// level 1: two runs of length 1 and one of length 2; level 2: one run
// of length 3. Seven voxels in total.
func testMatrix() *glrlm.Matrix {
	m := glrlm.NewMatrix(2, 3)
	m.Add(1, 1)
	m.Add(1, 1)
	m.Add(1, 2)
	m.Add(2, 3)
	return m
}

func TestNamesOrder(t *testing.T) {
	want := []string{
		"ShortRunEmphasis",
		"LongRunEmphasis",
		"GrayLevelNonUniformity",
		"RunLengthNonUniformity",
		"RunPercentage",
		"LowGrayLevelRunEmphasis",
		"HighGrayLevelRunEmphasis",
		"ShortRunLowGrayLevelEmphasis",
		"ShortRunHighGrayLevelEmphasis",
		"LongRunLowGrayLevelEmphasis",
		"LongRunHighGrayLevelEmphasis",
	}
	assert.Equal(t, want, Names())
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		fn, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.NotNil(t, fn, name)
	}

	_, ok := Lookup("Entropy")
	assert.False(t, ok)
}

func TestParseAggregation(t *testing.T) {
	policy, err := ParseAggregation("average")
	require.NoError(t, err)
	assert.Equal(t, AggregationAverage, policy)

	policy, err = ParseAggregation("sum")
	require.NoError(t, err)
	assert.Equal(t, AggregationSum, policy)

	_, err = ParseAggregation("median")
	assert.Error(t, err)
}

func TestFeatureFormulas(t *testing.T) {
	m := testMatrix()
	s := Stats{NumVoxels: 7, NumRuns: 4}

	tests := []struct {
		name string
		want float64
	}{
		{"ShortRunEmphasis", (2 + 1.0/4 + 1.0/9) / 4},
		{"LongRunEmphasis", (2 + 4 + 9.0) / 4},
		{"GrayLevelNonUniformity", (9 + 1.0) / 4},
		{"RunLengthNonUniformity", (4 + 1 + 1.0) / 4},
		{"RunPercentage", 4.0 / 7},
		{"LowGrayLevelRunEmphasis", (3 + 1.0/4) / 4},
		{"HighGrayLevelRunEmphasis", (3 + 4.0) / 4},
		{"ShortRunLowGrayLevelEmphasis", (2 + 1.0/4 + 1.0/36) / 4},
		{"ShortRunHighGrayLevelEmphasis", (2 + 1.0/4 + 4.0/9) / 4},
		{"LongRunLowGrayLevelEmphasis", (2 + 4 + 9.0/4) / 4},
		{"LongRunHighGrayLevelEmphasis", (2 + 4 + 36.0) / 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := Lookup(tc.name)
			require.True(t, ok)
			assert.InDelta(t, tc.want, fn(m, s), 1e-12)
		})
	}
}

func TestComputeAggregationPolicies(t *testing.T) {
	// Two directions with different matrices: level 1 run of length 1
	// versus level 1 run of length 3.
	a := glrlm.NewMatrix(1, 3)
	a.Add(1, 1)
	b := glrlm.NewMatrix(1, 3)
	b.Add(1, 3)

	aggregate := glrlm.NewMatrix(1, 3)
	aggregate.Add(1, 1)
	aggregate.Add(1, 3)

	res := &glrlm.Result{
		Directions:       []glrlm.Direction{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
		PerDirection:     []*glrlm.Matrix{a, b},
		Aggregate:        aggregate,
		RunsPerDirection: []float64{1, 1},
		TotalRuns:        2,
		NumVoxels:        4,
		NumLevels:        1,
	}

	// Average: mean of 1/1 and (1/9)/1. Sum: (1 + 1/9) / 2.
	avg, err := Compute("ShortRunEmphasis", res, AggregationAverage)
	require.NoError(t, err)
	assert.InDelta(t, (1+1.0/9)/2, avg, 1e-12)

	sum, err := Compute("ShortRunEmphasis", res, AggregationSum)
	require.NoError(t, err)
	assert.InDelta(t, (1+1.0/9)/2, sum, 1e-12)

	// A feature where the policies genuinely diverge: the gray-level
	// marginal squares before versus after summing.
	avg, err = Compute("GrayLevelNonUniformity", res, AggregationAverage)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, avg, 1e-12)

	sum, err = Compute("GrayLevelNonUniformity", res, AggregationSum)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, sum, 1e-12)
}

func TestComputeUnknownFeature(t *testing.T) {
	res := &glrlm.Result{
		PerDirection:     []*glrlm.Matrix{testMatrix()},
		Aggregate:        testMatrix(),
		RunsPerDirection: []float64{4},
		TotalRuns:        4,
		NumVoxels:        7,
		NumLevels:        2,
	}

	_, err := Compute("Busyness", res, AggregationAverage)
	assert.ErrorIs(t, err, ErrUnknownFeature)
}
