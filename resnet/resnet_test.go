package resnet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/IMICSLab/pLGG-Predict-Status/nn"
)

// smallConfig keeps stage widths tiny so every depth builds quickly.
func smallConfig(depth int) Config {
	cfg := DefaultConfig()
	cfg.Depth = depth
	cfg.Inplanes = [4]int{4, 8, 16, 32}
	cfg.DropoutRate = 0
	return cfg
}

// TestDepthTable verifies block counts and kinds for every supported depth
func TestDepthTable(t *testing.T) {
	cases := []struct {
		depth  int
		counts [4]int
		kind   BlockKind
	}{
		{10, [4]int{1, 1, 1, 1}, Basic},
		{18, [4]int{2, 2, 2, 2}, Basic},
		{34, [4]int{3, 4, 6, 3}, Basic},
		{50, [4]int{3, 4, 6, 3}, Bottleneck},
		{101, [4]int{3, 4, 23, 3}, Bottleneck},
		{152, [4]int{3, 8, 36, 3}, Bottleneck},
		{200, [4]int{3, 24, 36, 3}, Bottleneck},
	}

	for _, tc := range cases {
		rng := rand.New(rand.NewSource(1))
		net, err := Generate(smallConfig(tc.depth), rng)
		if err != nil {
			t.Fatalf("depth %d: %v", tc.depth, err)
		}
		if net.StageBlocks() != tc.counts {
			t.Errorf("depth %d: expected stage counts %v, got %v", tc.depth, tc.counts, net.StageBlocks())
		}
		if net.BlockKind() != tc.kind {
			t.Errorf("depth %d: expected %s blocks, got %s", tc.depth, tc.kind, net.BlockKind())
		}
	}
}

// TestInvalidDepth verifies unsupported depths fail at construction
func TestInvalidDepth(t *testing.T) {
	for _, depth := range []int{0, 1, 12, 19, 1000} {
		rng := rand.New(rand.NewSource(1))
		if _, err := Generate(smallConfig(depth), rng); err == nil {
			t.Errorf("depth %d: expected a construction error", depth)
		}
	}
}

// TestConfigValidation verifies each fail-fast construction check
func TestConfigValidation(t *testing.T) {
	mutate := []func(*Config){
		func(c *Config) { c.InChannels = 0 },
		func(c *Config) { c.Conv1TSize = 0 },
		func(c *Config) { c.Shortcut = "C" },
		func(c *Config) { c.WidenFactor = 0 },
		func(c *Config) { c.NumClasses = 0 },
		func(c *Config) { c.DropoutRate = 1 },
		func(c *Config) { c.Inplanes[2] = 0 },
	}
	for i, m := range mutate {
		cfg := smallConfig(10)
		m(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("Case %d: expected a validation error", i)
		}
	}
}

// TestForwardShapeAndRange verifies the head geometry and sigmoid output
func TestForwardShapeAndRange(t *testing.T) {
	cfg := smallConfig(10)
	rng := rand.New(rand.NewSource(2))
	net, err := Generate(cfg, rng)
	if err != nil {
		t.Fatal(err)
	}

	x := nn.NewTensor(2, 1, 8, 16, 16)
	x.FillRandn(rng, 1)
	out := net.Forward(x)

	if len(out.Shape) != 2 || out.Shape[0] != 2 || out.Shape[1] != 1 {
		t.Fatalf("Expected output shape [2, 1], got %v", out.Shape)
	}
	for i, p := range out.Data {
		if p <= 0 || p >= 1 {
			t.Errorf("Output %d = %f outside (0, 1)", i, p)
		}
	}
}

// TestExpansionFactors verifies basic and bottleneck channel widths
func TestExpansionFactors(t *testing.T) {
	if BasicExpansion != 1 || Bottleneck.Expansion() != 4 {
		t.Fatalf("Expected expansions 1 and 4, got %d and %d", BasicExpansion, Bottleneck.Expansion())
	}

	rng := rand.New(rand.NewSource(3))
	basic, err := Generate(smallConfig(18), rng)
	if err != nil {
		t.Fatal(err)
	}
	// Head width = last stage width * expansion
	if basic.HeadInFeatures() != 32 {
		t.Errorf("Basic head width: expected 32, got %d", basic.HeadInFeatures())
	}

	bottle, err := Generate(smallConfig(50), rng)
	if err != nil {
		t.Fatal(err)
	}
	if bottle.HeadInFeatures() != 32*4 {
		t.Errorf("Bottleneck head width: expected 128, got %d", bottle.HeadInFeatures())
	}
}

// TestBottleneckForward verifies the deeper block variant end to end
func TestBottleneckForward(t *testing.T) {
	cfg := smallConfig(50)
	rng := rand.New(rand.NewSource(4))
	net, err := Generate(cfg, rng)
	if err != nil {
		t.Fatal(err)
	}

	x := nn.NewTensor(1, 1, 8, 8, 8)
	x.FillRandn(rng, 1)
	out := net.Forward(x)

	if out.Shape[0] != 1 || out.Shape[1] != 1 {
		t.Fatalf("Expected output shape [1, 1], got %v", out.Shape)
	}
	if out.Data[0] <= 0 || out.Data[0] >= 1 {
		t.Errorf("Output %f outside (0, 1)", out.Data[0])
	}
}

// TestShortcutKinds verifies type A carries no parameters and type B does
func TestShortcutKinds(t *testing.T) {
	cfgA := smallConfig(10)
	cfgA.Shortcut = ShortcutA
	cfgB := smallConfig(10)

	netA, err := Generate(cfgA, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	netB, err := Generate(cfgB, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}

	if len(netA.Params()) >= len(netB.Params()) {
		t.Errorf("Type A should have fewer parameter tensors: A=%d B=%d",
			len(netA.Params()), len(netB.Params()))
	}

	// Both must still produce a valid probability
	x := nn.NewTensor(1, 1, 8, 8, 8)
	x.FillRandn(rand.New(rand.NewSource(6)), 1)
	outA := netA.Forward(x.Clone())
	if outA.Data[0] <= 0 || outA.Data[0] >= 1 {
		t.Errorf("Type A output %f outside (0, 1)", outA.Data[0])
	}
}

// TestNoMaxPool verifies the pool toggle changes the spatial chain
func TestNoMaxPool(t *testing.T) {
	cfg := smallConfig(10)
	cfg.NoMaxPool = true
	net, err := Generate(cfg, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}

	x := nn.NewTensor(1, 1, 8, 16, 16)
	out := net.Forward(x)
	if out.Shape[0] != 1 || out.Shape[1] != 1 {
		t.Errorf("Expected output shape [1, 1], got %v", out.Shape)
	}
}

// TestDeterministicInit verifies identical seeds build identical networks
func TestDeterministicInit(t *testing.T) {
	cfg := smallConfig(10)
	net1, err := Generate(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	net2, err := Generate(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}

	net1.SetTraining(false)
	net2.SetTraining(false)

	x := nn.NewTensor(1, 1, 8, 8, 8)
	x.FillRandn(rand.New(rand.NewSource(8)), 1)

	out1 := net1.Forward(x.Clone())
	out2 := net2.Forward(x.Clone())
	if out1.Data[0] != out2.Data[0] {
		t.Errorf("Same seed produced different outputs: %f vs %f", out1.Data[0], out2.Data[0])
	}
}

// TestReplaceStemAndHead verifies the rebuild path used by the driver
func TestReplaceStemAndHead(t *testing.T) {
	cfg := smallConfig(18)
	cfg.InChannels = 3
	cfg.NumClasses = 16
	rng := rand.New(rand.NewSource(9))
	net, err := Generate(cfg, rng)
	if err != nil {
		t.Fatal(err)
	}

	if err := net.ReplaceStem(1, 7, 1); err != nil {
		t.Fatalf("ReplaceStem failed: %v", err)
	}
	if err := net.ReplaceHead(1); err != nil {
		t.Fatalf("ReplaceHead failed: %v", err)
	}

	// A single-channel volume now flows through to a single probability
	x := nn.NewTensor(1, 1, 8, 8, 8)
	x.FillRandn(rng, 1)
	out := net.Forward(x)
	if out.Shape[1] != 1 {
		t.Fatalf("Expected 1 output class, got %d", out.Shape[1])
	}
	if out.Data[0] <= 0 || out.Data[0] >= 1 {
		t.Errorf("Output %f outside (0, 1)", out.Data[0])
	}

	if err := net.ReplaceStem(0, 7, 1); err == nil {
		t.Error("Expected an error for zero input channels")
	}
	if err := net.ReplaceHead(0); err == nil {
		t.Error("Expected an error for zero classes")
	}
}

// TestStateDictRoundTrip verifies checkpoint restore reproduces outputs
func TestStateDictRoundTrip(t *testing.T) {
	cfg := smallConfig(10)
	src, err := Generate(cfg, rand.New(rand.NewSource(10)))
	if err != nil {
		t.Fatal(err)
	}
	dst, err := Generate(cfg, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	src.SetTraining(false)
	dst.SetTraining(false)

	x := nn.NewTensor(1, 1, 8, 8, 8)
	x.FillRandn(rand.New(rand.NewSource(12)), 1)

	outSrc := src.Forward(x.Clone())
	outDst := dst.Forward(x.Clone())
	if math.Abs(float64(outSrc.Data[0]-outDst.Data[0])) > 1e-6 {
		t.Errorf("Restored network diverges: %f vs %f", outSrc.Data[0], outDst.Data[0])
	}
}

// TestStateDictMismatch verifies foreign checkpoints are rejected
func TestStateDictMismatch(t *testing.T) {
	small, err := Generate(smallConfig(10), rand.New(rand.NewSource(13)))
	if err != nil {
		t.Fatal(err)
	}

	cfg := smallConfig(10)
	cfg.Inplanes = [4]int{8, 16, 32, 64}
	wide, err := Generate(cfg, rand.New(rand.NewSource(14)))
	if err != nil {
		t.Fatal(err)
	}

	if err := wide.LoadStateDict(small.StateDict()); err == nil {
		t.Error("Expected an error loading a narrower state dict")
	}
}

// TestTrainingGradients verifies a backward pass reaches every parameter
func TestTrainingGradients(t *testing.T) {
	cfg := smallConfig(10)
	rng := rand.New(rand.NewSource(15))
	net, err := Generate(cfg, rng)
	if err != nil {
		t.Fatal(err)
	}

	x := nn.NewTensor(2, 1, 4, 8, 8)
	x.FillRandn(rng, 1)
	out := net.Forward(x)

	loss := nn.NewBCELoss()
	loss.Forward(out, nn.NewTensorFromSlice([]float32{1, 0}, 2, 1))
	net.Backward(loss.Backward())

	touched := 0
	for _, p := range net.Params() {
		for _, g := range p.Grad {
			if g != 0 {
				touched++
				break
			}
		}
	}
	if touched < len(net.Params())*3/4 {
		t.Errorf("Only %d of %d parameter tensors received gradient", touched, len(net.Params()))
	}
}

// TestModelName verifies the architecture identifier
func TestModelName(t *testing.T) {
	net, err := Generate(smallConfig(18), rand.New(rand.NewSource(16)))
	if err != nil {
		t.Fatal(err)
	}
	if net.Name() != "ResNet_pLGG_Classifier_depth18" {
		t.Errorf("Expected ResNet_pLGG_Classifier_depth18, got %s", net.Name())
	}
}
