package resnet

import (
	"math/rand"

	"github.com/IMICSLab/pLGG-Predict-Status/nn"
)

// conv3x3x3 is a cubic kernel-3 convolution with padding 1.
func conv3x3x3(name string, inPlanes, outPlanes, stride int, rng *rand.Rand) *nn.Conv3D {
	return nn.NewConv3D(name, inPlanes, outPlanes,
		[3]int{3, 3, 3}, [3]int{stride, stride, stride}, [3]int{1, 1, 1}, rng)
}

// conv1x1x1 is a pointwise convolution.
func conv1x1x1(name string, inPlanes, outPlanes, stride int, rng *rand.Rand) *nn.Conv3D {
	return nn.NewConv3D(name, inPlanes, outPlanes,
		[3]int{1, 1, 1}, [3]int{stride, stride, stride}, [3]int{0, 0, 0}, rng)
}

// BasicBlock is conv3-bn-relu-conv3-bn with a residual add and a final
// ReLU. The stage stride sits on the first convolution.
type BasicBlock struct {
	conv1 *nn.Conv3D
	bn1   *nn.BatchNorm3D
	relu1 *nn.ReLU
	conv2 *nn.Conv3D
	bn2   *nn.BatchNorm3D
	relu2 *nn.ReLU
	down  nn.Layer // nil for the identity shortcut
}

// NewBasicBlock builds a basic block. down is nil when the input already
// matches the block output shape.
func NewBasicBlock(name string, inPlanes, planes, stride int, down nn.Layer, rng *rand.Rand) *BasicBlock {
	return &BasicBlock{
		conv1: conv3x3x3(name+".conv1", inPlanes, planes, stride, rng),
		bn1:   nn.NewBatchNorm3D(name+".bn1", planes),
		relu1: nn.NewReLU(),
		conv2: conv3x3x3(name+".conv2", planes, planes, 1, rng),
		bn2:   nn.NewBatchNorm3D(name+".bn2", planes),
		relu2: nn.NewReLU(),
		down:  down,
	}
}

func (b *BasicBlock) Forward(x *nn.Tensor) *nn.Tensor {
	out := b.conv1.Forward(x)
	out = b.bn1.Forward(out)
	out = b.relu1.Forward(out)
	out = b.conv2.Forward(out)
	out = b.bn2.Forward(out)

	residual := x
	if b.down != nil {
		residual = b.down.Forward(x)
	}
	out.AddInPlace(residual)

	return b.relu2.Forward(out)
}

func (b *BasicBlock) Backward(grad *nn.Tensor) *nn.Tensor {
	g := b.relu2.Backward(grad)

	// Main path
	gMain := b.bn2.Backward(g)
	gMain = b.conv2.Backward(gMain)
	gMain = b.relu1.Backward(gMain)
	gMain = b.bn1.Backward(gMain)
	gMain = b.conv1.Backward(gMain)

	// Shortcut path
	gShort := g
	if b.down != nil {
		gShort = b.down.Backward(g)
	}

	gMain.AddInPlace(gShort)
	return gMain
}

func (b *BasicBlock) Params() []*nn.Param {
	params := append(b.conv1.Params(), b.bn1.Params()...)
	params = append(params, b.conv2.Params()...)
	params = append(params, b.bn2.Params()...)
	if b.down != nil {
		params = append(params, b.down.Params()...)
	}
	return params
}

func (b *BasicBlock) SetTraining(training bool) {
	b.bn1.SetTraining(training)
	b.bn2.SetTraining(training)
	if b.down != nil {
		b.down.SetTraining(training)
	}
}

// norms returns the block's batch norm layers for state collection.
func (b *BasicBlock) norms() []*nn.BatchNorm3D {
	ns := []*nn.BatchNorm3D{b.bn1, b.bn2}
	if cs, ok := b.down.(*convShortcut); ok {
		ns = append(ns, cs.bn)
	}
	return ns
}

// BottleneckBlock is the 1-3-1 block: pointwise reduce, cubic convolution
// carrying the stride, pointwise expand by 4x.
type BottleneckBlock struct {
	conv1 *nn.Conv3D
	bn1   *nn.BatchNorm3D
	relu1 *nn.ReLU
	conv2 *nn.Conv3D
	bn2   *nn.BatchNorm3D
	relu2 *nn.ReLU
	conv3 *nn.Conv3D
	bn3   *nn.BatchNorm3D
	relu3 *nn.ReLU
	down  nn.Layer
}

func NewBottleneckBlock(name string, inPlanes, planes, stride int, down nn.Layer, rng *rand.Rand) *BottleneckBlock {
	return &BottleneckBlock{
		conv1: conv1x1x1(name+".conv1", inPlanes, planes, 1, rng),
		bn1:   nn.NewBatchNorm3D(name+".bn1", planes),
		relu1: nn.NewReLU(),
		conv2: conv3x3x3(name+".conv2", planes, planes, stride, rng),
		bn2:   nn.NewBatchNorm3D(name+".bn2", planes),
		relu2: nn.NewReLU(),
		conv3: conv1x1x1(name+".conv3", planes, planes*BottleneckExpansion, 1, rng),
		bn3:   nn.NewBatchNorm3D(name+".bn3", planes*BottleneckExpansion),
		relu3: nn.NewReLU(),
		down:  down,
	}
}

func (b *BottleneckBlock) Forward(x *nn.Tensor) *nn.Tensor {
	out := b.conv1.Forward(x)
	out = b.bn1.Forward(out)
	out = b.relu1.Forward(out)
	out = b.conv2.Forward(out)
	out = b.bn2.Forward(out)
	out = b.relu2.Forward(out)
	out = b.conv3.Forward(out)
	out = b.bn3.Forward(out)

	residual := x
	if b.down != nil {
		residual = b.down.Forward(x)
	}
	out.AddInPlace(residual)

	return b.relu3.Forward(out)
}

func (b *BottleneckBlock) Backward(grad *nn.Tensor) *nn.Tensor {
	g := b.relu3.Backward(grad)

	gMain := b.bn3.Backward(g)
	gMain = b.conv3.Backward(gMain)
	gMain = b.relu2.Backward(gMain)
	gMain = b.bn2.Backward(gMain)
	gMain = b.conv2.Backward(gMain)
	gMain = b.relu1.Backward(gMain)
	gMain = b.bn1.Backward(gMain)
	gMain = b.conv1.Backward(gMain)

	gShort := g
	if b.down != nil {
		gShort = b.down.Backward(g)
	}

	gMain.AddInPlace(gShort)
	return gMain
}

func (b *BottleneckBlock) Params() []*nn.Param {
	params := append(b.conv1.Params(), b.bn1.Params()...)
	params = append(params, b.conv2.Params()...)
	params = append(params, b.bn2.Params()...)
	params = append(params, b.conv3.Params()...)
	params = append(params, b.bn3.Params()...)
	if b.down != nil {
		params = append(params, b.down.Params()...)
	}
	return params
}

func (b *BottleneckBlock) SetTraining(training bool) {
	b.bn1.SetTraining(training)
	b.bn2.SetTraining(training)
	b.bn3.SetTraining(training)
	if b.down != nil {
		b.down.SetTraining(training)
	}
}

func (b *BottleneckBlock) norms() []*nn.BatchNorm3D {
	ns := []*nn.BatchNorm3D{b.bn1, b.bn2, b.bn3}
	if cs, ok := b.down.(*convShortcut); ok {
		ns = append(ns, cs.bn)
	}
	return ns
}
