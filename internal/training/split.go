// Package training splits encoded data, fits the forest, scores it on the
// held-out rows and runs the end-to-end pipeline that produces artifacts.
package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Veraticus/gradebook/internal/common"
)

// SplitOptions control how rows are partitioned.
type SplitOptions struct {
	// Stratify, when set, holds one class code per row and makes every class
	// split by the same fraction.
	Stratify []int
	Seed     int64
}

// ValidateFraction checks that p lies strictly between 0 and 1.
func ValidateFraction(p float64) error {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return common.NewConfigError("validate train fraction",
			fmt.Errorf("%w: %v is not in (0,1)", common.ErrInvalidFraction, p))
	}
	return nil
}

// TrainSize is floor(p*n). A small epsilon absorbs float error such as
// 0.7*10 evaluating just below 7.
func TrainSize(n int, p float64) int {
	return int(math.Floor(p*float64(n) + 1e-9))
}

// Split returns disjoint train and test row indices covering [0, n).
// len(train) is floor(p*n). Either side being empty is a DataError.
func Split(n int, p float64, opts SplitOptions) (train, test []int, err error) {
	if err := ValidateFraction(p); err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		return nil, nil, common.NewDataError("split", common.ErrEmptyDataset)
	}
	k := TrainSize(n, p)
	if k == 0 || k == n {
		return nil, nil, common.NewDataError("split",
			fmt.Errorf("%d rows with train fraction %v leaves an empty side (train=%d, test=%d)", n, p, k, n-k))
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	if opts.Stratify == nil {
		perm := rng.Perm(n)
		return perm[:k], perm[k:], nil
	}

	if len(opts.Stratify) != n {
		return nil, nil, common.NewDataError("split",
			fmt.Errorf("%w: %d stratify labels for %d rows", common.ErrLengthMismatch, len(opts.Stratify), n))
	}
	return stratifiedSplit(opts.Stratify, k, rng)
}

// stratifiedSplit allocates k training rows across classes in proportion to
// class size using largest remainders, then samples within each class.
func stratifiedSplit(labels []int, k int, rng *rand.Rand) (train, test []int, err error) {
	byClass := make(map[int][]int)
	var classes []int
	for i, c := range labels {
		if _, ok := byClass[c]; !ok {
			classes = append(classes, c)
		}
		byClass[c] = append(byClass[c], i)
	}
	sort.Ints(classes)

	n := len(labels)
	quota := make(map[int]int, len(classes))
	type remainder struct {
		frac  float64
		class int
	}
	rems := make([]remainder, 0, len(classes))
	assigned := 0
	for _, c := range classes {
		exact := float64(k) * float64(len(byClass[c])) / float64(n)
		q := int(math.Floor(exact))
		quota[c] = q
		assigned += q
		rems = append(rems, remainder{frac: exact - float64(q), class: c})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < k; i = (i + 1) % len(rems) {
		c := rems[i].class
		if quota[c] < len(byClass[c]) {
			quota[c]++
			assigned++
		}
	}

	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		train = append(train, rows[:quota[c]]...)
		test = append(test, rows[quota[c]:]...)
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}
