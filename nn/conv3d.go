package nn

import (
	"math/rand"
)

// Conv3D is a bias-free 3D convolution over [batch][channels][depth][height][width]
// volumes. Kernel, stride and padding are per-axis so the stem can use an
// asymmetric temporal kernel while the residual blocks stay cubic.
type Conv3D struct {
	InChannels  int
	OutChannels int

	KT, KH, KW int // kernel size per axis
	ST, SH, SW int // stride per axis
	PT, PH, PW int // zero padding per axis

	Weight *Param

	// Cached for backward
	input *Tensor
}

// NewConv3D creates a convolution with He fan-out initialized weights.
// kernel, stride and padding are given as [depth, height, width] triples.
func NewConv3D(name string, inChannels, outChannels int, kernel, stride, padding [3]int, rng *rand.Rand) *Conv3D {
	c := &Conv3D{
		InChannels:  inChannels,
		OutChannels: outChannels,
		KT:          kernel[0], KH: kernel[1], KW: kernel[2],
		ST: stride[0], SH: stride[1], SW: stride[2],
		PT: padding[0], PH: padding[1], PW: padding[2],
		Weight: NewParam(name+".weight", outChannels, inChannels, kernel[0], kernel[1], kernel[2]),
	}
	fanOut := outChannels * c.KT * c.KH * c.KW
	KaimingNormalFanOut(rng, c.Weight, fanOut)
	return c
}

// convOutSize returns the output size for one axis.
func convOutSize(in, kernel, stride, padding int) int {
	return (in+2*padding-kernel)/stride + 1
}

// Forward performs the convolution. Input shape: [batch][inC][T][H][W].
func (c *Conv3D) Forward(x *Tensor) *Tensor {
	if len(x.Shape) != 5 {
		panic("nn: Conv3D expects a 5D input")
	}
	if x.Shape[1] != c.InChannels {
		panic("nn: Conv3D input channel mismatch")
	}
	c.input = x

	batch := x.Shape[0]
	inC := c.InChannels
	inT, inH, inW := x.Shape[2], x.Shape[3], x.Shape[4]
	outC := c.OutChannels
	outT := convOutSize(inT, c.KT, c.ST, c.PT)
	outH := convOutSize(inH, c.KH, c.SH, c.PH)
	outW := convOutSize(inW, c.KW, c.SW, c.PW)

	out := NewTensor(batch, outC, outT, outH, outW)
	kernelVol := c.KT * c.KH * c.KW

	// For each batch sample and output filter
	for n := 0; n < batch; n++ {
		for f := 0; f < outC; f++ {
			// For each output position
			for ot := 0; ot < outT; ot++ {
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						sum := float32(0)

						// Convolve over input channels
						for ic := 0; ic < inC; ic++ {
							for kt := 0; kt < c.KT; kt++ {
								it := ot*c.ST + kt - c.PT
								if it < 0 || it >= inT {
									continue
								}
								for kh := 0; kh < c.KH; kh++ {
									ih := oh*c.SH + kh - c.PH
									if ih < 0 || ih >= inH {
										continue
									}
									for kw := 0; kw < c.KW; kw++ {
										iw := ow*c.SW + kw - c.PW
										if iw < 0 || iw >= inW {
											continue
										}
										inputIdx := ((n*inC+ic)*inT+it)*inH*inW + ih*inW + iw
										kernelIdx := (f*inC+ic)*kernelVol + kt*c.KH*c.KW + kh*c.KW + kw
										sum += x.Data[inputIdx] * c.Weight.Data[kernelIdx]
									}
								}
							}
						}

						outIdx := ((n*outC+f)*outT+ot)*outH*outW + oh*outW + ow
						out.Data[outIdx] = sum
					}
				}
			}
		}
	}

	return out
}

// Backward computes the input gradient and accumulates the kernel gradient.
func (c *Conv3D) Backward(grad *Tensor) *Tensor {
	x := c.input
	batch := x.Shape[0]
	inC := c.InChannels
	inT, inH, inW := x.Shape[2], x.Shape[3], x.Shape[4]
	outC := grad.Shape[1]
	outT, outH, outW := grad.Shape[2], grad.Shape[3], grad.Shape[4]

	gradInput := NewTensor(batch, inC, inT, inH, inW)
	kernelVol := c.KT * c.KH * c.KW

	for n := 0; n < batch; n++ {
		for f := 0; f < outC; f++ {
			for ot := 0; ot < outT; ot++ {
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						outIdx := ((n*outC+f)*outT+ot)*outH*outW + oh*outW + ow
						g := grad.Data[outIdx]
						if g == 0 {
							continue
						}

						// Scatter into input gradient and kernel gradient
						for ic := 0; ic < inC; ic++ {
							for kt := 0; kt < c.KT; kt++ {
								it := ot*c.ST + kt - c.PT
								if it < 0 || it >= inT {
									continue
								}
								for kh := 0; kh < c.KH; kh++ {
									ih := oh*c.SH + kh - c.PH
									if ih < 0 || ih >= inH {
										continue
									}
									for kw := 0; kw < c.KW; kw++ {
										iw := ow*c.SW + kw - c.PW
										if iw < 0 || iw >= inW {
											continue
										}
										inputIdx := ((n*inC+ic)*inT+it)*inH*inW + ih*inW + iw
										kernelIdx := (f*inC+ic)*kernelVol + kt*c.KH*c.KW + kh*c.KW + kw
										gradInput.Data[inputIdx] += g * c.Weight.Data[kernelIdx]
										c.Weight.Grad[kernelIdx] += g * x.Data[inputIdx]
									}
								}
							}
						}
					}
				}
			}
		}
	}

	return gradInput
}

func (c *Conv3D) Params() []*Param {
	return []*Param{c.Weight}
}

func (c *Conv3D) SetTraining(training bool) {}
