package nn

import (
	"math/rand"
)

// Tensor is a dense row-major float32 array. Volumes use the layout
// [batch][channels][depth][height][width]; layers index into Data directly.
type Tensor struct {
	Data  []float32
	Shape []int
}

// NewTensor creates a zero-filled tensor with the given shape.
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{Data: make([]float32, n), Shape: append([]int(nil), shape...)}
}

// NewTensorFromSlice wraps an existing slice. The slice is not copied; the
// caller must not reuse it. Panics if the shape does not match the data length.
func NewTensorFromSlice(data []float32, shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		panic("nn: tensor shape does not match data length")
	}
	return &Tensor{Data: data, Shape: append([]int(nil), shape...)}
}

// Size returns the total number of elements.
func (t *Tensor) Size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int {
	return t.Shape[i]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		Data:  make([]float32, len(t.Data)),
		Shape: append([]int(nil), t.Shape...),
	}
	copy(c.Data, t.Data)
	return c
}

// Reshape returns a view with a new shape sharing the same data.
// Returns nil if the element count does not match.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(t.Data) {
		return nil
	}
	return &Tensor{Data: t.Data, Shape: append([]int(nil), shape...)}
}

// Zero resets all elements to 0.
func (t *Tensor) Zero() {
	for i := range t.Data {
		t.Data[i] = 0
	}
}

// FillRandn fills the tensor with N(0, std^2) samples from rng.
func (t *Tensor) FillRandn(rng *rand.Rand, std float32) {
	for i := range t.Data {
		t.Data[i] = float32(rng.NormFloat64()) * std
	}
}

// AddInPlace adds other element-wise. Panics on length mismatch.
func (t *Tensor) AddInPlace(other *Tensor) {
	if len(t.Data) != len(other.Data) {
		panic("nn: tensor length mismatch in AddInPlace")
	}
	for i := range t.Data {
		t.Data[i] += other.Data[i]
	}
}
