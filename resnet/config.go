// Package resnet builds 3D residual networks for volumetric binary
// classification. The architecture is parametric over depth, block kind,
// shortcut kind and stage widths; depth selects the block counts from a
// fixed table.
package resnet

import (
	"github.com/pkg/errors"
)

// BlockKind selects the residual block structure.
type BlockKind int

const (
	// Basic is the two-convolution block used up to depth 34.
	Basic BlockKind = iota
	// Bottleneck is the 1-3-1 block with 4x channel expansion used from
	// depth 50 upward.
	Bottleneck
)

// Expansion factors: a block's output width is planes * expansion.
const (
	BasicExpansion      = 1
	BottleneckExpansion = 4
)

func (k BlockKind) String() string {
	if k == Bottleneck {
		return "bottleneck"
	}
	return "basic"
}

// Expansion returns the channel expansion factor of the block kind.
func (k BlockKind) Expansion() int {
	if k == Bottleneck {
		return BottleneckExpansion
	}
	return BasicExpansion
}

// ShortcutKind selects how a block matches its residual to a changed
// main-path shape.
type ShortcutKind string

const (
	// ShortcutA subsamples spatially and zero-pads channels; it carries
	// no parameters.
	ShortcutA ShortcutKind = "A"
	// ShortcutB is a strided 1x1x1 convolution followed by batch norm.
	ShortcutB ShortcutKind = "B"
)

// depthLayers maps every supported depth to its per-stage block counts.
var depthLayers = map[int][4]int{
	10:  {1, 1, 1, 1},
	18:  {2, 2, 2, 2},
	34:  {3, 4, 6, 3},
	50:  {3, 4, 6, 3},
	101: {3, 4, 23, 3},
	152: {3, 8, 36, 3},
	200: {3, 24, 36, 3},
}

// blockKindForDepth returns Basic for depths up to 34, Bottleneck beyond.
func blockKindForDepth(depth int) BlockKind {
	if depth <= 34 {
		return Basic
	}
	return Bottleneck
}

// Config describes a network to build. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Depth        int          // one of 10, 18, 34, 50, 101, 152, 200
	InChannels   int          // input volume channels
	Conv1TSize   int          // stem kernel size on the depth axis
	Conv1TStride int          // stem stride on the depth axis
	NoMaxPool    bool         // drop the stem max pool
	Shortcut     ShortcutKind // residual projection kind
	WidenFactor  float64      // multiplies every stage width
	NumClasses   int          // linear head outputs
	DropoutRate  float64      // shared rate for all dropout sites
	Inplanes     [4]int       // base width per stage
}

// DefaultConfig returns the configuration the experiment driver starts from.
func DefaultConfig() Config {
	return Config{
		Depth:        18,
		InChannels:   1,
		Conv1TSize:   7,
		Conv1TStride: 1,
		Shortcut:     ShortcutB,
		WidenFactor:  1.0,
		NumClasses:   1,
		DropoutRate:  0.5,
		Inplanes:     [4]int{64, 128, 256, 512},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if _, ok := depthLayers[c.Depth]; !ok {
		return errors.Errorf("unsupported depth %d (want one of 10, 18, 34, 50, 101, 152, 200)", c.Depth)
	}
	if c.InChannels < 1 {
		return errors.Errorf("input channels must be positive, got %d", c.InChannels)
	}
	if c.Conv1TSize < 1 || c.Conv1TStride < 1 {
		return errors.Errorf("stem temporal kernel/stride must be positive, got %d/%d", c.Conv1TSize, c.Conv1TStride)
	}
	if c.Shortcut != ShortcutA && c.Shortcut != ShortcutB {
		return errors.Errorf("unknown shortcut kind %q", c.Shortcut)
	}
	if c.WidenFactor <= 0 {
		return errors.Errorf("widen factor must be positive, got %v", c.WidenFactor)
	}
	if c.NumClasses < 1 {
		return errors.Errorf("number of classes must be positive, got %d", c.NumClasses)
	}
	if c.DropoutRate < 0 || c.DropoutRate >= 1 {
		return errors.Errorf("dropout rate must be in [0, 1), got %v", c.DropoutRate)
	}
	for i, w := range c.Inplanes {
		if w < 1 {
			return errors.Errorf("stage %d width must be positive, got %d", i+1, w)
		}
	}
	return nil
}

// StageWidths returns the widened per-stage base widths.
func (c Config) StageWidths() [4]int {
	var widths [4]int
	for i, w := range c.Inplanes {
		widths[i] = int(float64(w) * c.WidenFactor)
	}
	return widths
}
