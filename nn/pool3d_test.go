package nn

import (
	"math"
	"testing"
)

// ramp fills a tensor with 0, 1, 2, ...
func ramp(shape ...int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = float32(i)
	}
	return t
}

// TestMaxPool3D verifies window maxima and the stem geometry
func TestMaxPool3D(t *testing.T) {
	pool := NewMaxPool3D(3, 2, 1)
	x := ramp(1, 1, 4, 4, 4)
	out := pool.Forward(x)

	want := []int{1, 1, 2, 2, 2}
	for i, w := range want {
		if out.Shape[i] != w {
			t.Fatalf("Expected shape %v, got %v", want, out.Shape)
		}
	}

	// First window covers indices up to (1,1,1) = 21 on the ramp
	if out.Data[0] != 21 {
		t.Errorf("Expected first max 21, got %f", out.Data[0])
	}
	// Last window reaches the corner element 63
	if out.Data[7] != 63 {
		t.Errorf("Expected last max 63, got %f", out.Data[7])
	}
}

// TestMaxPool3DBackward verifies gradient routing to the argmax
func TestMaxPool3DBackward(t *testing.T) {
	pool := NewMaxPool3D(3, 2, 1)
	x := ramp(1, 1, 4, 4, 4)
	pool.Forward(x)

	grad := NewTensor(1, 1, 2, 2, 2)
	grad.Data[7] = 1
	gradInput := pool.Backward(grad)

	for i, g := range gradInput.Data {
		if i == 63 {
			if g != 1 {
				t.Errorf("Expected gradient 1 at argmax, got %f", g)
			}
		} else if g != 0 {
			t.Errorf("Unexpected gradient %f at index %d", g, i)
		}
	}
}

// TestMaxPool3DNegativeInput verifies maxima below zero are found
func TestMaxPool3DNegativeInput(t *testing.T) {
	pool := NewMaxPool3D(3, 2, 1)
	x := NewTensor(1, 1, 2, 2, 2)
	for i := range x.Data {
		x.Data[i] = -10 + float32(i)
	}
	out := pool.Forward(x)

	if out.Data[0] != -3 {
		t.Errorf("Expected max -3, got %f", out.Data[0])
	}
}

// TestAvgPool3DSubsample verifies kernel-1 pooling is strided selection
func TestAvgPool3DSubsample(t *testing.T) {
	pool := NewAvgPool3D(1, 2)
	x := ramp(1, 1, 4, 4, 4)
	out := pool.Forward(x)

	if out.Shape[2] != 2 || out.Shape[3] != 2 || out.Shape[4] != 2 {
		t.Fatalf("Expected 2x2x2 output, got %v", out.Shape)
	}

	// out[t,h,w] = x[2t, 2h, 2w]
	if out.Data[0] != 0 {
		t.Errorf("Expected 0, got %f", out.Data[0])
	}
	if out.Data[7] != 42 {
		t.Errorf("Expected x[2,2,2] = 42, got %f", out.Data[7])
	}

	grad := NewTensor(1, 1, 2, 2, 2)
	grad.Data[7] = 1
	gradInput := pool.Backward(grad)
	if gradInput.Data[42] != 1 {
		t.Errorf("Expected gradient at source position 42, got %f", gradInput.Data[42])
	}
}

// TestGlobalAvgPool3D verifies per-channel reduction and backward spreading
func TestGlobalAvgPool3D(t *testing.T) {
	pool := NewGlobalAvgPool3D()

	x := NewTensorFromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8}, 1, 2, 1, 2, 2)
	out := pool.Forward(x)

	if len(out.Shape) != 2 || out.Shape[0] != 1 || out.Shape[1] != 2 {
		t.Fatalf("Expected shape [1, 2], got %v", out.Shape)
	}
	if math.Abs(float64(out.Data[0]-2.5)) > 1e-6 {
		t.Errorf("Channel 0: expected 2.5, got %f", out.Data[0])
	}
	if math.Abs(float64(out.Data[1]-6.5)) > 1e-6 {
		t.Errorf("Channel 1: expected 6.5, got %f", out.Data[1])
	}

	grad := NewTensorFromSlice([]float32{4, 8}, 1, 2)
	gradInput := pool.Backward(grad)

	// Each of the 4 positions per channel gets grad / 4
	for i := 0; i < 4; i++ {
		if gradInput.Data[i] != 1 {
			t.Errorf("Channel 0 grad[%d]: expected 1, got %f", i, gradInput.Data[i])
		}
	}
	for i := 4; i < 8; i++ {
		if gradInput.Data[i] != 2 {
			t.Errorf("Channel 1 grad[%d]: expected 2, got %f", i, gradInput.Data[i])
		}
	}
}
