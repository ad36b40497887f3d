package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// TrainTestSplit shuffles the row indices 0..n-1 with a PCG stream seeded by
// seed and returns disjoint train and test partitions. The test partition
// holds ceil(n*testRatio) rows; both partitions are sorted ascending.
func TrainTestSplit(n int, testRatio float64, seed uint64) (train, test []int, err error) {
	if !(testRatio > 0 && testRatio < 1) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testRatio)
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if n < 2 || nTest >= n {
		return nil, nil, errors.NewValidationError("n_samples", "too few rows to split into non-empty train and test sets", n)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	test = append([]int(nil), indices[:nTest]...)
	train = append([]int(nil), indices[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}
