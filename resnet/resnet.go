package resnet

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/IMICSLab/pLGG-Predict-Status/nn"
)

// ResNet is the assembled network: stem, four residual stages, pooled
// linear head with a sigmoid output. Dropout is applied to the raw input
// and after every stage; the placement matches the network this model
// reproduces, including the unusual raw-input site.
type ResNet struct {
	cfg       Config
	blockKind BlockKind
	widths    [4]int

	dropIn  *nn.Dropout
	conv1   *nn.Conv3D
	bn1     *nn.BatchNorm3D
	relu    *nn.ReLU
	maxpool *nn.MaxPool3D // nil when the config disables it

	stages     [4][]nn.Layer
	stageDrops [4]*nn.Dropout

	avgpool *nn.GlobalAvgPool3D
	fc      *nn.Linear
	sigmoid *nn.Sigmoid

	rng *rand.Rand

	// Forward order, rebuilt whenever the stem or head is replaced.
	seq []nn.Layer
}

// Generate validates the config and builds the network. All convolutions
// get Kaiming fan-out weights, all batch norms start at (1, 0).
func Generate(cfg Config, rng *rand.Rand) (*ResNet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid network config")
	}

	counts := depthLayers[cfg.Depth]
	kind := blockKindForDepth(cfg.Depth)
	widths := cfg.StageWidths()

	net := &ResNet{
		cfg:       cfg,
		blockKind: kind,
		widths:    widths,
		rng:       rng,
	}

	net.dropIn = nn.NewDropout(float32(cfg.DropoutRate), rng)
	net.conv1 = nn.NewConv3D("conv1", cfg.InChannels, widths[0],
		[3]int{cfg.Conv1TSize, 7, 7},
		[3]int{cfg.Conv1TStride, 2, 2},
		[3]int{cfg.Conv1TSize / 2, 3, 3}, rng)
	net.bn1 = nn.NewBatchNorm3D("bn1", widths[0])
	net.relu = nn.NewReLU()
	if !cfg.NoMaxPool {
		net.maxpool = nn.NewMaxPool3D(3, 2, 1)
	}

	inPlanes := widths[0]
	for i := 0; i < 4; i++ {
		stride := 2
		if i == 0 {
			stride = 1
		}
		stage, outPlanes := makeStage(fmt.Sprintf("layer%d", i+1), kind, cfg.Shortcut,
			inPlanes, widths[i], counts[i], stride, rng)
		net.stages[i] = stage
		net.stageDrops[i] = nn.NewDropout(float32(cfg.DropoutRate), rng)
		inPlanes = outPlanes
	}

	net.avgpool = nn.NewGlobalAvgPool3D()
	net.fc = nn.NewLinear("fc", widths[3]*kind.Expansion(), cfg.NumClasses, rng)
	net.sigmoid = nn.NewSigmoid()

	net.rebuildSeq()
	return net, nil
}

// makeStage chains count blocks; the first carries the stage stride and
// the projection shortcut when the shape changes.
func makeStage(name string, kind BlockKind, shortcut ShortcutKind,
	inPlanes, planes, count, stride int, rng *rand.Rand) ([]nn.Layer, int) {

	outPlanes := planes * kind.Expansion()
	blocks := make([]nn.Layer, 0, count)

	down := newShortcut(shortcut, name+".0.downsample", inPlanes, outPlanes, stride, rng)
	blocks = append(blocks, newBlock(kind, fmt.Sprintf("%s.0", name), inPlanes, planes, stride, down, rng))

	for i := 1; i < count; i++ {
		blocks = append(blocks, newBlock(kind, fmt.Sprintf("%s.%d", name, i), outPlanes, planes, 1, nil, rng))
	}
	return blocks, outPlanes
}

func newBlock(kind BlockKind, name string, inPlanes, planes, stride int, down nn.Layer, rng *rand.Rand) nn.Layer {
	if kind == Bottleneck {
		return NewBottleneckBlock(name, inPlanes, planes, stride, down, rng)
	}
	return NewBasicBlock(name, inPlanes, planes, stride, down, rng)
}

func (r *ResNet) rebuildSeq() {
	seq := []nn.Layer{r.dropIn, r.conv1, r.bn1, r.relu}
	if r.maxpool != nil {
		seq = append(seq, r.maxpool)
	}
	for i := 0; i < 4; i++ {
		seq = append(seq, r.stages[i]...)
		seq = append(seq, r.stageDrops[i])
	}
	seq = append(seq, r.avgpool, r.fc, r.sigmoid)
	r.seq = seq
}

// Forward runs a volume batch through the network and returns per-sample
// probabilities in (0, 1). Input shape: [batch][channels][T][H][W].
func (r *ResNet) Forward(x *nn.Tensor) *nn.Tensor {
	for _, layer := range r.seq {
		x = layer.Forward(x)
	}
	return x
}

// Backward propagates the loss gradient and accumulates parameter
// gradients.
func (r *ResNet) Backward(grad *nn.Tensor) *nn.Tensor {
	for i := len(r.seq) - 1; i >= 0; i-- {
		grad = r.seq[i].Backward(grad)
	}
	return grad
}

// Params returns every trainable parameter in forward order.
func (r *ResNet) Params() []*nn.Param {
	var params []*nn.Param
	for _, layer := range r.seq {
		params = append(params, layer.Params()...)
	}
	return params
}

// SetTraining switches batch norm and dropout between modes.
func (r *ResNet) SetTraining(training bool) {
	for _, layer := range r.seq {
		layer.SetTraining(training)
	}
}

// Name identifies the architecture in artifact names and reports.
func (r *ResNet) Name() string {
	return fmt.Sprintf("ResNet_pLGG_Classifier_depth%d", r.cfg.Depth)
}

// Config returns the configuration the network was built from.
func (r *ResNet) Config() Config {
	return r.cfg
}

// BlockKind returns the derived block structure.
func (r *ResNet) BlockKind() BlockKind {
	return r.blockKind
}

// StageBlocks returns the block count of each stage.
func (r *ResNet) StageBlocks() [4]int {
	var counts [4]int
	for i, s := range r.stages {
		counts[i] = len(s)
	}
	return counts
}

// HeadInFeatures returns the width of the pooled feature vector feeding
// the linear head.
func (r *ResNet) HeadInFeatures() int {
	return r.fc.InFeatures
}

// ReplaceStem rebuilds the stem convolution for a different input channel
// count or temporal geometry, keeping the stem output width.
func (r *ResNet) ReplaceStem(inChannels, tKernel, tStride int) error {
	if inChannels < 1 {
		return errors.Errorf("input channels must be positive, got %d", inChannels)
	}
	if tKernel < 1 || tStride < 1 {
		return errors.Errorf("stem temporal kernel/stride must be positive, got %d/%d", tKernel, tStride)
	}
	r.conv1 = nn.NewConv3D("conv1", inChannels, r.widths[0],
		[3]int{tKernel, 7, 7},
		[3]int{tStride, 2, 2},
		[3]int{tKernel / 2, 3, 3}, r.rng)
	r.cfg.InChannels = inChannels
	r.cfg.Conv1TSize = tKernel
	r.cfg.Conv1TStride = tStride
	r.rebuildSeq()
	return nil
}

// ReplaceHead rebuilds the linear head for a different class count. The
// input width is fixed by the last stage and cannot change.
func (r *ResNet) ReplaceHead(numClasses int) error {
	if numClasses < 1 {
		return errors.Errorf("number of classes must be positive, got %d", numClasses)
	}
	r.fc = nn.NewLinear("fc", r.widths[3]*r.blockKind.Expansion(), numClasses, r.rng)
	r.cfg.NumClasses = numClasses
	r.rebuildSeq()
	return nil
}

// norms walks every batch norm layer in the network.
func (r *ResNet) norms() []*nn.BatchNorm3D {
	ns := []*nn.BatchNorm3D{r.bn1}
	for _, stage := range r.stages {
		for _, blk := range stage {
			switch b := blk.(type) {
			case *BasicBlock:
				ns = append(ns, b.norms()...)
			case *BottleneckBlock:
				ns = append(ns, b.norms()...)
			}
		}
	}
	return ns
}

// StateDict exposes all parameters plus batch norm running statistics,
// keyed by layer path.
func (r *ResNet) StateDict() map[string]*nn.Tensor {
	state := make(map[string]*nn.Tensor)
	for _, p := range r.Params() {
		state[p.Name] = nn.NewTensorFromSlice(p.Data, p.Shape...)
	}
	for _, bn := range r.norms() {
		state[bn.Name+".running_mean"] = nn.NewTensorFromSlice(bn.RunningMean, bn.Channels)
		state[bn.Name+".running_var"] = nn.NewTensorFromSlice(bn.RunningVar, bn.Channels)
	}
	return state
}

// LoadStateDict restores parameters and running statistics. Every tensor
// the network owns must be present with a matching size; anything else
// means the checkpoint was written by a different architecture.
func (r *ResNet) LoadStateDict(state map[string]*nn.Tensor) error {
	for _, p := range r.Params() {
		src, ok := state[p.Name]
		if !ok {
			return errors.Errorf("checkpoint is missing tensor %q", p.Name)
		}
		if len(src.Data) != len(p.Data) {
			return errors.Errorf("tensor %q has %d elements, expected %d", p.Name, len(src.Data), len(p.Data))
		}
		copy(p.Data, src.Data)
	}
	for _, bn := range r.norms() {
		for suffix, dst := range map[string][]float32{
			".running_mean": bn.RunningMean,
			".running_var":  bn.RunningVar,
		} {
			src, ok := state[bn.Name+suffix]
			if !ok {
				return errors.Errorf("checkpoint is missing tensor %q", bn.Name+suffix)
			}
			if len(src.Data) != len(dst) {
				return errors.Errorf("tensor %q has %d elements, expected %d", bn.Name+suffix, len(src.Data), len(dst))
			}
			copy(dst, src.Data)
		}
	}
	return nil
}
