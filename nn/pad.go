package nn

// PadChannels appends zero-valued channels until x has outChannels.
// The parameter-free shortcut uses it to match the widened main path.
func PadChannels(x *Tensor, outChannels int) *Tensor {
	batch, channels := x.Shape[0], x.Shape[1]
	if outChannels < channels {
		panic("nn: PadChannels cannot shrink the channel axis")
	}
	spatial := x.Shape[2] * x.Shape[3] * x.Shape[4]

	out := NewTensor(batch, outChannels, x.Shape[2], x.Shape[3], x.Shape[4])
	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			src := (n*channels + c) * spatial
			dst := (n*outChannels + c) * spatial
			copy(out.Data[dst:dst+spatial], x.Data[src:src+spatial])
		}
	}
	return out
}

// UnpadChannels drops the trailing padded channels from a gradient,
// returning the slice that corresponds to the original input.
func UnpadChannels(grad *Tensor, inChannels int) *Tensor {
	batch, channels := grad.Shape[0], grad.Shape[1]
	spatial := grad.Shape[2] * grad.Shape[3] * grad.Shape[4]

	out := NewTensor(batch, inChannels, grad.Shape[2], grad.Shape[3], grad.Shape[4])
	for n := 0; n < batch; n++ {
		for c := 0; c < inChannels; c++ {
			src := (n*channels + c) * spatial
			dst := (n*inChannels + c) * spatial
			copy(out.Data[dst:dst+spatial], grad.Data[src:src+spatial])
		}
	}
	return out
}
