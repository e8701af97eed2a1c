package nn

import (
	"math/rand"
)

// Dropout zeroes each element with probability Rate during training and
// scales the survivors by 1/(1-Rate). Evaluation mode is the identity.
type Dropout struct {
	Rate float32

	rng      *rand.Rand
	training bool

	// Cached for backward
	mask []float32
}

func NewDropout(rate float32, rng *rand.Rand) *Dropout {
	return &Dropout{Rate: rate, rng: rng, training: true}
}

func (d *Dropout) Forward(x *Tensor) *Tensor {
	if !d.training || d.Rate == 0 {
		d.mask = nil
		return x
	}

	out := NewTensor(x.Shape...)
	d.mask = make([]float32, len(x.Data))
	keep := 1.0 - d.Rate
	scale := 1.0 / keep

	for i, v := range x.Data {
		if d.rng.Float32() < keep {
			d.mask[i] = scale
			out.Data[i] = v * scale
		}
	}
	return out
}

func (d *Dropout) Backward(grad *Tensor) *Tensor {
	if d.mask == nil {
		return grad
	}
	gradInput := NewTensor(grad.Shape...)
	for i := range grad.Data {
		gradInput.Data[i] = grad.Data[i] * d.mask[i]
	}
	return gradInput
}

func (d *Dropout) Params() []*Param { return nil }

func (d *Dropout) SetTraining(training bool) {
	d.training = training
}
