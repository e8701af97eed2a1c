package nn

import (
	"math"
)

// BatchNorm3D normalizes each channel over the batch and spatial axes.
// Training mode uses batch statistics and maintains running estimates;
// evaluation mode normalizes with the running estimates.
type BatchNorm3D struct {
	Name     string
	Channels int
	Eps      float32
	Momentum float32

	Gamma *Param // scale, init 1
	Beta  *Param // shift, init 0

	RunningMean []float32
	RunningVar  []float32

	training bool

	// Cached for backward
	input     *Tensor
	xhat      []float32
	batchMean []float32
	batchVar  []float32
}

// NewBatchNorm3D creates a batch norm layer with gamma=1, beta=0 and
// running statistics at (0, 1).
func NewBatchNorm3D(name string, channels int) *BatchNorm3D {
	bn := &BatchNorm3D{
		Name:        name,
		Channels:    channels,
		Eps:         1e-5,
		Momentum:    0.1,
		Gamma:       NewParam(name+".gamma", channels),
		Beta:        NewParam(name+".beta", channels),
		RunningMean: make([]float32, channels),
		RunningVar:  make([]float32, channels),
		training:    true,
	}
	FillConst(bn.Gamma, 1)
	for i := range bn.RunningVar {
		bn.RunningVar[i] = 1
	}
	return bn
}

// Forward normalizes x. Input shape: [batch][channels][T][H][W].
func (bn *BatchNorm3D) Forward(x *Tensor) *Tensor {
	if len(x.Shape) != 5 {
		panic("nn: BatchNorm3D expects a 5D input")
	}
	if x.Shape[1] != bn.Channels {
		panic("nn: BatchNorm3D channel mismatch")
	}
	bn.input = x

	batch := x.Shape[0]
	channels := bn.Channels
	spatial := x.Shape[2] * x.Shape[3] * x.Shape[4]
	m := batch * spatial // elements per channel

	out := NewTensor(x.Shape...)
	bn.xhat = make([]float32, len(x.Data))
	bn.batchMean = make([]float32, channels)
	bn.batchVar = make([]float32, channels)

	for c := 0; c < channels; c++ {
		var mean, variance float32

		if bn.training {
			// Batch statistics
			sum := float64(0)
			for n := 0; n < batch; n++ {
				base := (n*channels + c) * spatial
				for s := 0; s < spatial; s++ {
					sum += float64(x.Data[base+s])
				}
			}
			mean = float32(sum / float64(m))

			sqSum := float64(0)
			for n := 0; n < batch; n++ {
				base := (n*channels + c) * spatial
				for s := 0; s < spatial; s++ {
					d := float64(x.Data[base+s] - mean)
					sqSum += d * d
				}
			}
			variance = float32(sqSum / float64(m))

			bn.batchMean[c] = mean
			bn.batchVar[c] = variance

			// Update running statistics; running variance is unbiased
			unbiased := variance
			if m > 1 {
				unbiased = variance * float32(m) / float32(m-1)
			}
			bn.RunningMean[c] = (1-bn.Momentum)*bn.RunningMean[c] + bn.Momentum*mean
			bn.RunningVar[c] = (1-bn.Momentum)*bn.RunningVar[c] + bn.Momentum*unbiased
		} else {
			mean = bn.RunningMean[c]
			variance = bn.RunningVar[c]
		}

		invStd := float32(1.0 / math.Sqrt(float64(variance)+float64(bn.Eps)))
		gamma := bn.Gamma.Data[c]
		beta := bn.Beta.Data[c]

		for n := 0; n < batch; n++ {
			base := (n*channels + c) * spatial
			for s := 0; s < spatial; s++ {
				xh := (x.Data[base+s] - mean) * invStd
				bn.xhat[base+s] = xh
				out.Data[base+s] = gamma*xh + beta
			}
		}
	}

	return out
}

// Backward propagates through the batch statistics and accumulates
// gamma/beta gradients.
func (bn *BatchNorm3D) Backward(grad *Tensor) *Tensor {
	x := bn.input
	batch := x.Shape[0]
	channels := bn.Channels
	spatial := x.Shape[2] * x.Shape[3] * x.Shape[4]
	m := batch * spatial

	gradInput := NewTensor(x.Shape...)

	for c := 0; c < channels; c++ {
		invStd := float32(1.0 / math.Sqrt(float64(bn.batchVar[c])+float64(bn.Eps)))
		gamma := bn.Gamma.Data[c]

		// dGamma = sum(dy * xhat), dBeta = sum(dy)
		sumDy := float64(0)
		sumDyXhat := float64(0)
		for n := 0; n < batch; n++ {
			base := (n*channels + c) * spatial
			for s := 0; s < spatial; s++ {
				dy := float64(grad.Data[base+s])
				sumDy += dy
				sumDyXhat += dy * float64(bn.xhat[base+s])
			}
		}
		bn.Gamma.Grad[c] += float32(sumDyXhat)
		bn.Beta.Grad[c] += float32(sumDy)

		// dx = gamma * invStd / m * (m*dy - sum(dy) - xhat * sum(dy*xhat))
		scale := gamma * invStd / float32(m)
		for n := 0; n < batch; n++ {
			base := (n*channels + c) * spatial
			for s := 0; s < spatial; s++ {
				dy := grad.Data[base+s]
				gradInput.Data[base+s] = scale * (float32(m)*dy - float32(sumDy) - bn.xhat[base+s]*float32(sumDyXhat))
			}
		}
	}

	return gradInput
}

func (bn *BatchNorm3D) Params() []*Param {
	return []*Param{bn.Gamma, bn.Beta}
}

func (bn *BatchNorm3D) SetTraining(training bool) {
	bn.training = training
}
