package data

import "fmt"

// Dataset is an ordered view over a subset of a Store's patients.
type Dataset struct {
	store *Store
	codes []int
}

// NewDataset builds a view over the given patient codes. Every code must
// exist in the store; At panics on the first access otherwise.
func NewDataset(store *Store, codes []int) *Dataset {
	return &Dataset{store: store, codes: codes}
}

// Len returns the number of patients in the view.
func (d *Dataset) Len() int {
	return len(d.codes)
}

// At returns the i-th patient of the view.
func (d *Dataset) At(i int) *Patient {
	code := d.codes[i]
	p, ok := d.store.Patients[code]
	if !ok {
		panic(fmt.Sprintf("dataset: patient %d not loaded", code))
	}
	return p
}

// Codes returns the view's patient codes in order.
func (d *Dataset) Codes() []int {
	return d.codes
}

// Labels returns the labels of the view in order.
func (d *Dataset) Labels() []float32 {
	labels := make([]float32, len(d.codes))
	for i := range d.codes {
		labels[i] = d.At(i).Label
	}
	return labels
}

// Subset returns a new view over the codes at the given positions.
func (d *Dataset) Subset(indices []int) *Dataset {
	codes := make([]int, len(indices))
	for i, idx := range indices {
		codes[i] = d.codes[idx]
	}
	return NewDataset(d.store, codes)
}
