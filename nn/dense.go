package nn

import (
	"math/rand"
)

// Linear is a fully connected layer over [batch][features] inputs.
type Linear struct {
	InFeatures  int
	OutFeatures int

	Weight *Param // [out][in]
	Bias   *Param // [out]

	// Cached for backward
	input *Tensor
}

// NewLinear creates a linear layer with uniform fan-in initialization for
// both weight and bias.
func NewLinear(name string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	l := &Linear{
		InFeatures:  inFeatures,
		OutFeatures: outFeatures,
		Weight:      NewParam(name+".weight", outFeatures, inFeatures),
		Bias:        NewParam(name+".bias", outFeatures),
	}
	UniformFanIn(rng, l.Weight, inFeatures)
	UniformFanIn(rng, l.Bias, inFeatures)
	return l
}

// Forward computes output = input @ weight^T + bias.
// Input shape: [batch][in], output shape: [batch][out].
func (l *Linear) Forward(x *Tensor) *Tensor {
	if len(x.Shape) != 2 {
		panic("nn: Linear expects a 2D input")
	}
	if x.Shape[1] != l.InFeatures {
		panic("nn: Linear input feature mismatch")
	}
	l.input = x

	batch := x.Shape[0]
	out := NewTensor(batch, l.OutFeatures)
	for n := 0; n < batch; n++ {
		for o := 0; o < l.OutFeatures; o++ {
			sum := l.Bias.Data[o]
			for i := 0; i < l.InFeatures; i++ {
				sum += x.Data[n*l.InFeatures+i] * l.Weight.Data[o*l.InFeatures+i]
			}
			out.Data[n*l.OutFeatures+o] = sum
		}
	}
	return out
}

func (l *Linear) Backward(grad *Tensor) *Tensor {
	batch := grad.Shape[0]
	gradInput := NewTensor(batch, l.InFeatures)

	for n := 0; n < batch; n++ {
		for o := 0; o < l.OutFeatures; o++ {
			g := grad.Data[n*l.OutFeatures+o]
			l.Bias.Grad[o] += g
			for i := 0; i < l.InFeatures; i++ {
				l.Weight.Grad[o*l.InFeatures+i] += g * l.input.Data[n*l.InFeatures+i]
				gradInput.Data[n*l.InFeatures+i] += g * l.Weight.Data[o*l.InFeatures+i]
			}
		}
	}
	return gradInput
}

func (l *Linear) Params() []*Param {
	return []*Param{l.Weight, l.Bias}
}

func (l *Linear) SetTraining(training bool) {}
