package access

import "math/rand/v2"

// SampleIndices returns the indices of a deterministic sample of size k
// drawn from n items. When k <= 0 or k >= n every index is returned in
// order. Otherwise a partial Fisher-Yates shuffle driven by a PCG generator
// seeded with seed selects k indices; the result order is the shuffle order.
func SampleIndices(n, k int, seed uint64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if k <= 0 || k >= n {
		return idx
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range k {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

// Sample returns the people selected by SampleIndices.
func Sample(people []Person, k int, seed uint64) []Person {
	idx := SampleIndices(len(people), k, seed)
	out := make([]Person, len(idx))
	for i, j := range idx {
		out[i] = people[j]
	}
	return out
}
