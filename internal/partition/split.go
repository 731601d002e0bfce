// Package partition splits an applicant set into train and test subsets.
package partition

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/rng"
)

// DefaultTrainFraction is the share of applicants assigned to training.
const DefaultTrainFraction = 0.7

// Options configures a split.
type Options struct {
	TrainFraction float64 // in (0,1)
	Seed          uint64
	// Stratify keeps the default/non-default ratio equal across subsets.
	Stratify bool
}

// Partition is the result of a split. Both subsets keep the input's relative
// order and share record pointers with the input; nothing is copied or re-derived.
type Partition struct {
	Train []*domain.Applicant
	Test  []*domain.Applicant
}

// Split samples round(TrainFraction*N) applicants without replacement for
// training; the rest form the test set. Uses the split stream only.
func Split(applicants []*domain.Applicant, opts Options) (*Partition, error) {
	n := len(applicants)
	if n == 0 {
		return nil, fmt.Errorf("%w: no applicants to split", domain.ErrInvalidArgument)
	}
	if !(opts.TrainFraction > 0 && opts.TrainFraction < 1) {
		return nil, fmt.Errorf("%w: train fraction must be in (0,1), got %v", domain.ErrInvalidArgument, opts.TrainFraction)
	}

	trainSize := int(math.Round(opts.TrainFraction * float64(n)))
	r := rand.New(rng.New(opts.Seed, rng.StreamSplit))

	var trainIdx []int
	if opts.Stratify {
		trainIdx = stratifiedSample(r, applicants, trainSize)
	} else {
		trainIdx = r.Perm(n)[:trainSize]
	}

	inTrain := make([]bool, n)
	for _, idx := range trainIdx {
		inTrain[idx] = true
	}

	p := &Partition{
		Train: make([]*domain.Applicant, 0, trainSize),
		Test:  make([]*domain.Applicant, 0, n-trainSize),
	}
	for i, a := range applicants {
		if inTrain[i] {
			p.Train = append(p.Train, a)
		} else {
			p.Test = append(p.Test, a)
		}
	}
	return p, nil
}

// stratifiedSample picks trainSize indices, allocating to each label stratum
// proportionally with largest-remainder rounding so the total is exact.
func stratifiedSample(r *rand.Rand, applicants []*domain.Applicant, trainSize int) []int {
	var strata [2][]int
	for i, a := range applicants {
		if a.Default {
			strata[1] = append(strata[1], i)
		} else {
			strata[0] = append(strata[0], i)
		}
	}

	n := float64(len(applicants))
	type alloc struct {
		stratum   int
		take      int
		remainder float64
	}
	allocs := make([]alloc, 0, 2)
	assigned := 0
	for s, members := range strata {
		exact := float64(trainSize) * float64(len(members)) / n
		take := int(math.Floor(exact))
		allocs = append(allocs, alloc{stratum: s, take: take, remainder: exact - float64(take)})
		assigned += take
	}
	sort.SliceStable(allocs, func(i, j int) bool { return allocs[i].remainder > allocs[j].remainder })
	for i := 0; assigned < trainSize; i = (i + 1) % len(allocs) {
		if allocs[i].take < len(strata[allocs[i].stratum]) {
			allocs[i].take++
			assigned++
		}
	}

	var picked []int
	for _, a := range allocs {
		members := strata[a.stratum]
		for _, j := range r.Perm(len(members))[:a.take] {
			picked = append(picked, members[j])
		}
	}
	return picked
}
