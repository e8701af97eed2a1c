package nn

// MaxPool3D takes the maximum over a cubic window. The stem uses
// kernel 3, stride 2, padding 1.
type MaxPool3D struct {
	Kernel  int
	Stride  int
	Padding int

	// Cached for backward
	inShape []int
	argmax  []int // flat input index of each output element's maximum
}

func NewMaxPool3D(kernel, stride, padding int) *MaxPool3D {
	return &MaxPool3D{Kernel: kernel, Stride: stride, Padding: padding}
}

func (p *MaxPool3D) Forward(x *Tensor) *Tensor {
	if len(x.Shape) != 5 {
		panic("nn: MaxPool3D expects a 5D input")
	}
	batch, channels := x.Shape[0], x.Shape[1]
	inT, inH, inW := x.Shape[2], x.Shape[3], x.Shape[4]
	outT := convOutSize(inT, p.Kernel, p.Stride, p.Padding)
	outH := convOutSize(inH, p.Kernel, p.Stride, p.Padding)
	outW := convOutSize(inW, p.Kernel, p.Stride, p.Padding)

	out := NewTensor(batch, channels, outT, outH, outW)
	p.inShape = x.Shape
	p.argmax = make([]int, len(out.Data))

	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			inBase := (n*channels + c) * inT * inH * inW
			for ot := 0; ot < outT; ot++ {
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						best := float32(0)
						bestIdx := -1

						for kt := 0; kt < p.Kernel; kt++ {
							it := ot*p.Stride + kt - p.Padding
							if it < 0 || it >= inT {
								continue
							}
							for kh := 0; kh < p.Kernel; kh++ {
								ih := oh*p.Stride + kh - p.Padding
								if ih < 0 || ih >= inH {
									continue
								}
								for kw := 0; kw < p.Kernel; kw++ {
									iw := ow*p.Stride + kw - p.Padding
									if iw < 0 || iw >= inW {
										continue
									}
									idx := inBase + (it*inH+ih)*inW + iw
									if bestIdx < 0 || x.Data[idx] > best {
										best = x.Data[idx]
										bestIdx = idx
									}
								}
							}
						}

						outIdx := ((n*channels+c)*outT+ot)*outH*outW + oh*outW + ow
						out.Data[outIdx] = best
						p.argmax[outIdx] = bestIdx
					}
				}
			}
		}
	}

	return out
}

func (p *MaxPool3D) Backward(grad *Tensor) *Tensor {
	gradInput := NewTensor(p.inShape...)
	for outIdx, inIdx := range p.argmax {
		if inIdx >= 0 {
			gradInput.Data[inIdx] += grad.Data[outIdx]
		}
	}
	return gradInput
}

func (p *MaxPool3D) Params() []*Param { return nil }

func (p *MaxPool3D) SetTraining(training bool) {}

// AvgPool3D averages over a cubic window without padding. The parameter-free
// shortcut uses kernel 1 with the block stride, which reduces the spatial
// axes by plain subsampling.
type AvgPool3D struct {
	Kernel int
	Stride int

	inShape []int
}

func NewAvgPool3D(kernel, stride int) *AvgPool3D {
	return &AvgPool3D{Kernel: kernel, Stride: stride}
}

func (p *AvgPool3D) Forward(x *Tensor) *Tensor {
	if len(x.Shape) != 5 {
		panic("nn: AvgPool3D expects a 5D input")
	}
	batch, channels := x.Shape[0], x.Shape[1]
	inT, inH, inW := x.Shape[2], x.Shape[3], x.Shape[4]
	outT := convOutSize(inT, p.Kernel, p.Stride, 0)
	outH := convOutSize(inH, p.Kernel, p.Stride, 0)
	outW := convOutSize(inW, p.Kernel, p.Stride, 0)

	out := NewTensor(batch, channels, outT, outH, outW)
	p.inShape = x.Shape
	norm := float32(1.0) / float32(p.Kernel*p.Kernel*p.Kernel)

	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			inBase := (n*channels + c) * inT * inH * inW
			for ot := 0; ot < outT; ot++ {
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						sum := float32(0)
						for kt := 0; kt < p.Kernel; kt++ {
							it := ot*p.Stride + kt
							for kh := 0; kh < p.Kernel; kh++ {
								ih := oh*p.Stride + kh
								for kw := 0; kw < p.Kernel; kw++ {
									iw := ow*p.Stride + kw
									sum += x.Data[inBase+(it*inH+ih)*inW+iw]
								}
							}
						}
						outIdx := ((n*channels+c)*outT+ot)*outH*outW + oh*outW + ow
						out.Data[outIdx] = sum * norm
					}
				}
			}
		}
	}

	return out
}

func (p *AvgPool3D) Backward(grad *Tensor) *Tensor {
	batch, channels := p.inShape[0], p.inShape[1]
	inT, inH, inW := p.inShape[2], p.inShape[3], p.inShape[4]
	outT, outH, outW := grad.Shape[2], grad.Shape[3], grad.Shape[4]

	gradInput := NewTensor(p.inShape...)
	norm := float32(1.0) / float32(p.Kernel*p.Kernel*p.Kernel)

	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			inBase := (n*channels + c) * inT * inH * inW
			for ot := 0; ot < outT; ot++ {
				for oh := 0; oh < outH; oh++ {
					for ow := 0; ow < outW; ow++ {
						outIdx := ((n*channels+c)*outT+ot)*outH*outW + oh*outW + ow
						g := grad.Data[outIdx] * norm
						for kt := 0; kt < p.Kernel; kt++ {
							it := ot*p.Stride + kt
							for kh := 0; kh < p.Kernel; kh++ {
								ih := oh*p.Stride + kh
								for kw := 0; kw < p.Kernel; kw++ {
									iw := ow*p.Stride + kw
									gradInput.Data[inBase+(it*inH+ih)*inW+iw] += g
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

func (p *AvgPool3D) Params() []*Param { return nil }

func (p *AvgPool3D) SetTraining(training bool) {}

// GlobalAvgPool3D reduces each channel to a single value; the head flattens
// its output into [batch][channels] for the linear layer.
type GlobalAvgPool3D struct {
	inShape []int
}

func NewGlobalAvgPool3D() *GlobalAvgPool3D {
	return &GlobalAvgPool3D{}
}

func (p *GlobalAvgPool3D) Forward(x *Tensor) *Tensor {
	if len(x.Shape) != 5 {
		panic("nn: GlobalAvgPool3D expects a 5D input")
	}
	batch, channels := x.Shape[0], x.Shape[1]
	spatial := x.Shape[2] * x.Shape[3] * x.Shape[4]
	p.inShape = x.Shape

	out := NewTensor(batch, channels)
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			base := (n*channels + c) * spatial
			sum := float64(0)
			for s := 0; s < spatial; s++ {
				sum += float64(x.Data[base+s])
			}
			out.Data[n*channels+c] = float32(sum / float64(spatial))
		}
	}
	return out
}

func (p *GlobalAvgPool3D) Backward(grad *Tensor) *Tensor {
	batch, channels := p.inShape[0], p.inShape[1]
	spatial := p.inShape[2] * p.inShape[3] * p.inShape[4]

	gradInput := NewTensor(p.inShape...)
	norm := float32(1.0) / float32(spatial)
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			base := (n*channels + c) * spatial
			g := grad.Data[n*channels+c] * norm
			for s := 0; s < spatial; s++ {
				gradInput.Data[base+s] = g
			}
		}
	}
	return gradInput
}

func (p *GlobalAvgPool3D) Params() []*Param { return nil }

func (p *GlobalAvgPool3D) SetTraining(training bool) {}
