package nn

import (
	"math/rand"
)

// AddGaussianNoise returns x + N(0, std^2) noise, leaving x untouched.
// The training loop applies it to every training batch; validation and
// test inputs are never perturbed.
func AddGaussianNoise(x *Tensor, std float32, rng *rand.Rand) *Tensor {
	out := NewTensor(x.Shape...)
	for i, v := range x.Data {
		out.Data[i] = v + float32(rng.NormFloat64())*std
	}
	return out
}
