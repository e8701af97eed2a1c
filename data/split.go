package data

import "math/rand"

// Split holds the three patient partitions of one trial.
type Split struct {
	Train *Dataset
	Val   *Dataset
	Test  *Dataset
}

// RandomSplit shuffles the store's patients with the given source and
// partitions them 60/20/20. The train and validation sizes truncate, so
// the test set absorbs the remainder.
func RandomSplit(store *Store, rng *rand.Rand) Split {
	n := len(store.Codes)
	perm := rng.Perm(n)

	nTrain := int(0.6 * float64(n))
	nVal := int(0.2 * float64(n))

	all := NewDataset(store, store.Codes)
	return Split{
		Train: all.Subset(perm[:nTrain]),
		Val:   all.Subset(perm[nTrain : nTrain+nVal]),
		Test:  all.Subset(perm[nTrain+nVal:]),
	}
}
