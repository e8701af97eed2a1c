package resnet

import (
	"math/rand"

	"github.com/IMICSLab/pLGG-Predict-Status/nn"
)

// convShortcut is the type-B projection: a strided 1x1x1 convolution
// followed by batch norm. It learns the channel mapping.
type convShortcut struct {
	conv *nn.Conv3D
	bn   *nn.BatchNorm3D
}

func newConvShortcut(name string, inPlanes, outPlanes, stride int, rng *rand.Rand) *convShortcut {
	return &convShortcut{
		conv: nn.NewConv3D(name+".conv", inPlanes, outPlanes,
			[3]int{1, 1, 1}, [3]int{stride, stride, stride}, [3]int{0, 0, 0}, rng),
		bn: nn.NewBatchNorm3D(name+".bn", outPlanes),
	}
}

func (s *convShortcut) Forward(x *nn.Tensor) *nn.Tensor {
	return s.bn.Forward(s.conv.Forward(x))
}

func (s *convShortcut) Backward(grad *nn.Tensor) *nn.Tensor {
	return s.conv.Backward(s.bn.Backward(grad))
}

func (s *convShortcut) Params() []*nn.Param {
	return append(s.conv.Params(), s.bn.Params()...)
}

func (s *convShortcut) SetTraining(training bool) {
	s.bn.SetTraining(training)
}

// poolShortcut is the type-A projection: spatial subsampling by a
// kernel-1 average pool plus zero padding up to the target width. It
// carries no parameters.
type poolShortcut struct {
	pool      *nn.AvgPool3D
	outPlanes int
	inPlanes  int
}

func newPoolShortcut(inPlanes, outPlanes, stride int) *poolShortcut {
	return &poolShortcut{
		pool:      nn.NewAvgPool3D(1, stride),
		outPlanes: outPlanes,
		inPlanes:  inPlanes,
	}
}

func (s *poolShortcut) Forward(x *nn.Tensor) *nn.Tensor {
	return nn.PadChannels(s.pool.Forward(x), s.outPlanes)
}

func (s *poolShortcut) Backward(grad *nn.Tensor) *nn.Tensor {
	return s.pool.Backward(nn.UnpadChannels(grad, s.inPlanes))
}

func (s *poolShortcut) Params() []*nn.Param { return nil }

func (s *poolShortcut) SetTraining(training bool) {}

// newShortcut picks the projection for a stage entry, or nil when the
// identity already matches.
func newShortcut(kind ShortcutKind, name string, inPlanes, outPlanes, stride int, rng *rand.Rand) nn.Layer {
	if stride == 1 && inPlanes == outPlanes {
		return nil
	}
	if kind == ShortcutA {
		return newPoolShortcut(inPlanes, outPlanes, stride)
	}
	return newConvShortcut(name, inPlanes, outPlanes, stride, rng)
}
