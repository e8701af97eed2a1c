package train

import (
	"fmt"
	"math/rand"

	"github.com/IMICSLab/pLGG-Predict-Status/data"
	"github.com/IMICSLab/pLGG-Predict-Status/nn"
)

// Batches partitions the positions [0, n) into consecutive index slices
// after an optional shuffle. The final batch may be short. batchSize
// must be at least one; validated configs uphold this.
func Batches(n, batchSize int, shuffle bool, rng *rand.Rand) [][]int {
	if batchSize < 1 {
		panic(fmt.Sprintf("train: batch size must be positive, got %d", batchSize))
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	var batches [][]int
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		batches = append(batches, order[start:end])
	}
	return batches
}

// Stack assembles the selected samples into one batch tensor with the
// sample count leading, plus the matching label vector. Every sample
// shares the store's volume shape.
func Stack(ds *data.Dataset, indices []int) (*nn.Tensor, *nn.Tensor) {
	first := ds.At(indices[0]).Input
	sample := first.Size()

	shape := append([]int{len(indices)}, first.Shape...)
	batch := nn.NewTensor(shape...)
	labels := nn.NewTensor(len(indices), 1)

	for i, idx := range indices {
		p := ds.At(idx)
		copy(batch.Data[i*sample:(i+1)*sample], p.Input.Data)
		labels.Data[i] = p.Label
	}
	return batch, labels
}
