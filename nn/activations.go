package nn

import (
	"math"
)

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	// Cached for backward
	output *Tensor
}

func NewReLU() *ReLU {
	return &ReLU{}
}

func (r *ReLU) Forward(x *Tensor) *Tensor {
	out := NewTensor(x.Shape...)
	for i, v := range x.Data {
		if v > 0 {
			out.Data[i] = v
		}
	}
	r.output = out
	return out
}

func (r *ReLU) Backward(grad *Tensor) *Tensor {
	gradInput := NewTensor(grad.Shape...)
	for i, v := range r.output.Data {
		if v > 0 {
			gradInput.Data[i] = grad.Data[i]
		}
	}
	return gradInput
}

func (r *ReLU) Params() []*Param { return nil }

func (r *ReLU) SetTraining(training bool) {}

// Sigmoid applies 1 / (1 + e^-x) element-wise. The classification head ends
// with it, so outputs are always probabilities in (0, 1).
type Sigmoid struct {
	output *Tensor
}

func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

func (s *Sigmoid) Forward(x *Tensor) *Tensor {
	out := NewTensor(x.Shape...)
	for i, v := range x.Data {
		out.Data[i] = 1.0 / (1.0 + float32(math.Exp(float64(-v))))
	}
	s.output = out
	return out
}

func (s *Sigmoid) Backward(grad *Tensor) *Tensor {
	// d/dv sigmoid(v) = y * (1 - y)
	gradInput := NewTensor(grad.Shape...)
	for i, y := range s.output.Data {
		gradInput.Data[i] = grad.Data[i] * y * (1.0 - y)
	}
	return gradInput
}

func (s *Sigmoid) Params() []*Param { return nil }

func (s *Sigmoid) SetTraining(training bool) {}
