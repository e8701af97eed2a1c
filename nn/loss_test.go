package nn

import (
	"math"
	"testing"
)

// TestBCELoss verifies the loss on known probabilities
func TestBCELoss(t *testing.T) {
	loss := NewBCELoss()

	// -ln(0.5) for a coin-flip prediction
	l := loss.Forward(
		NewTensorFromSlice([]float32{0.5}, 1),
		NewTensorFromSlice([]float32{1}, 1),
	)
	if math.Abs(float64(l)-math.Log(2)) > 1e-5 {
		t.Errorf("Expected ln(2), got %f", l)
	}

	// Confident correct prediction has small loss
	l = loss.Forward(
		NewTensorFromSlice([]float32{0.99}, 1),
		NewTensorFromSlice([]float32{1}, 1),
	)
	if l > 0.011 {
		t.Errorf("Expected small loss, got %f", l)
	}

	// Mean over the batch
	l = loss.Forward(
		NewTensorFromSlice([]float32{0.5, 0.5}, 2),
		NewTensorFromSlice([]float32{1, 0}, 2),
	)
	if math.Abs(float64(l)-math.Log(2)) > 1e-5 {
		t.Errorf("Expected batch mean ln(2), got %f", l)
	}
}

// TestBCELossClamping verifies saturated probabilities stay finite
func TestBCELossClamping(t *testing.T) {
	loss := NewBCELoss()

	l := loss.Forward(
		NewTensorFromSlice([]float32{0, 1}, 2),
		NewTensorFromSlice([]float32{1, 0}, 2),
	)
	if math.IsInf(float64(l), 0) || math.IsNaN(float64(l)) {
		t.Fatalf("Expected finite loss for saturated predictions, got %f", l)
	}

	grad := loss.Backward()
	for i, g := range grad.Data {
		if math.IsInf(float64(g), 0) || math.IsNaN(float64(g)) {
			t.Errorf("Gradient %d not finite: %f", i, g)
		}
	}
}

// TestBCELossGradient verifies the gradient direction and magnitude
func TestBCELossGradient(t *testing.T) {
	loss := NewBCELoss()
	loss.Forward(
		NewTensorFromSlice([]float32{0.5}, 1),
		NewTensorFromSlice([]float32{1}, 1),
	)
	grad := loss.Backward()

	// d/dp of -ln(p) at 0.5 is -2
	if math.Abs(float64(grad.Data[0]+2)) > 1e-4 {
		t.Errorf("Expected gradient -2, got %f", grad.Data[0])
	}

	// Overshooting prediction gets a positive gradient
	loss.Forward(
		NewTensorFromSlice([]float32{0.8}, 1),
		NewTensorFromSlice([]float32{0}, 1),
	)
	grad = loss.Backward()
	if grad.Data[0] <= 0 {
		t.Errorf("Expected positive gradient for overshoot, got %f", grad.Data[0])
	}
}
