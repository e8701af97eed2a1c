package nn

import (
	"math"
	"math/rand"
)

// KaimingNormalFanOut fills p with He-normal samples scaled by the fan-out:
// stddev = sqrt(2 / fanOut). This is the initialization applied to every
// convolution kernel at build time.
func KaimingNormalFanOut(rng *rand.Rand, p *Param, fanOut int) {
	stddev := float32(math.Sqrt(2.0 / float64(fanOut)))
	for i := range p.Data {
		p.Data[i] = float32(rng.NormFloat64()) * stddev
	}
}

// UniformFanIn fills p with U(-bound, bound) where bound = 1/sqrt(fanIn),
// the default for linear weights and biases.
func UniformFanIn(rng *rand.Rand, p *Param, fanIn int) {
	bound := float32(1.0 / math.Sqrt(float64(fanIn)))
	for i := range p.Data {
		p.Data[i] = (rng.Float32()*2 - 1) * bound
	}
}

// FillConst sets every element of p to v. Norm scales start at 1, shifts at 0.
func FillConst(p *Param, v float32) {
	for i := range p.Data {
		p.Data[i] = v
	}
}
