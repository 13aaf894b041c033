package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIndices_AllWhenSmall(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, SampleIndices(3, 5, 42))
	assert.Equal(t, []int{0, 1, 2}, SampleIndices(3, 3, 42))
	assert.Equal(t, []int{0, 1, 2}, SampleIndices(3, 0, 42))
	assert.Empty(t, SampleIndices(0, 10, 42))
}

func TestSampleIndices_DistinctAndInRange(t *testing.T) {
	idx := SampleIndices(1000, 250, 42)
	require.Len(t, idx, 250)

	seen := make(map[int]bool, len(idx))
	for _, i := range idx {
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 1000)
		assert.False(t, seen[i])
		seen[i] = true
	}
}

func TestSampleIndices_Deterministic(t *testing.T) {
	assert.Equal(t, SampleIndices(1000, 100, 42), SampleIndices(1000, 100, 42))
	assert.NotEqual(t, SampleIndices(1000, 100, 42), SampleIndices(1000, 100, 43))
}

func TestSample(t *testing.T) {
	people := syntheticPopulation(10)
	got := Sample(people, 4, 9)
	require.Len(t, got, 4)

	idx := SampleIndices(10, 4, 9)
	for i, j := range idx {
		assert.Equal(t, people[j], got[i])
	}
}
