package nn

// Param is a trainable parameter with its accumulated gradient.
// Names follow the layer path ("conv1.weight", "layer2.0.bn1.gamma") so
// checkpoints and optimizer state can be keyed by them.
type Param struct {
	Name  string
	Data  []float32
	Grad  []float32
	Shape []int
}

// NewParam allocates a zero-valued parameter with the given shape.
func NewParam(name string, shape ...int) *Param {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Param{
		Name:  name,
		Data:  make([]float32, n),
		Grad:  make([]float32, n),
		Shape: append([]int(nil), shape...),
	}
}

// Size returns the number of elements.
func (p *Param) Size() int {
	return len(p.Data)
}

// Layer is the contract shared by all trainable and stateless layers.
// Forward caches whatever the matching Backward call needs; Backward
// returns the gradient with respect to the layer input and accumulates
// parameter gradients into Params().
type Layer interface {
	Forward(x *Tensor) *Tensor
	Backward(grad *Tensor) *Tensor
	Params() []*Param
	SetTraining(training bool)
}

// ZeroGrad clears the accumulated gradients of all params.
func ZeroGrad(params []*Param) {
	for _, p := range params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}
