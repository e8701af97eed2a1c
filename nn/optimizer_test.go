package nn

import (
	"math"
	"testing"
)

// TestSGDStep verifies the plain gradient descent update
func TestSGDStep(t *testing.T) {
	p := NewParam("w", 1)
	p.Data[0] = 1
	p.Grad[0] = 0.5

	opt := NewSGDOptimizer()
	opt.Step([]*Param{p}, 0.1)

	if math.Abs(float64(p.Data[0]-0.95)) > 1e-6 {
		t.Errorf("Expected 0.95, got %f", p.Data[0])
	}
}

// TestSGDMomentum verifies velocity accumulation across steps
func TestSGDMomentum(t *testing.T) {
	p := NewParam("w", 1)
	p.Data[0] = 1
	p.Grad[0] = 0.5

	opt := NewSGDOptimizerWithMomentum(0.9)
	opt.Step([]*Param{p}, 0.1)
	// v = 0.5, w = 1 - 0.05 = 0.95
	if math.Abs(float64(p.Data[0]-0.95)) > 1e-6 {
		t.Fatalf("After step 1: expected 0.95, got %f", p.Data[0])
	}

	opt.Step([]*Param{p}, 0.1)
	// v = 0.9*0.5 + 0.5 = 0.95, w = 0.95 - 0.095 = 0.855
	if math.Abs(float64(p.Data[0]-0.855)) > 1e-6 {
		t.Errorf("After step 2: expected 0.855, got %f", p.Data[0])
	}
}

// TestAdamStep verifies the first update is approximately the learning rate
func TestAdamStep(t *testing.T) {
	p := NewParam("w", 1)
	p.Data[0] = 1
	p.Grad[0] = 1

	opt := NewAdamOptimizerDefault()
	opt.Step([]*Param{p}, 0.1)

	// With constant unit gradient, the bias-corrected step is lr
	if math.Abs(float64(p.Data[0]-0.9)) > 1e-4 {
		t.Errorf("After step 1: expected ~0.9, got %f", p.Data[0])
	}

	opt.Step([]*Param{p}, 0.1)
	if math.Abs(float64(p.Data[0]-0.8)) > 1e-4 {
		t.Errorf("After step 2: expected ~0.8, got %f", p.Data[0])
	}
}

// TestAdamReset verifies moments and step counter are cleared
func TestAdamReset(t *testing.T) {
	p := NewParam("w", 1)
	p.Data[0] = 1
	p.Grad[0] = 1

	opt := NewAdamOptimizerDefault()
	opt.Step([]*Param{p}, 0.1)
	opt.Reset()

	p.Data[0] = 1
	opt.Step([]*Param{p}, 0.1)
	if math.Abs(float64(p.Data[0]-0.9)) > 1e-4 {
		t.Errorf("After reset: expected fresh first step ~0.9, got %f", p.Data[0])
	}
}

// TestNewOptimizer verifies the config-name factory
func TestNewOptimizer(t *testing.T) {
	opt, err := NewOptimizer("adam")
	if err != nil {
		t.Fatalf("adam: unexpected error %v", err)
	}
	if opt.Name() != "Adam" {
		t.Errorf("Expected Adam, got %s", opt.Name())
	}

	opt, err = NewOptimizer("sgd")
	if err != nil {
		t.Fatalf("sgd: unexpected error %v", err)
	}
	if opt.Name() != "SGD" {
		t.Errorf("Expected SGD, got %s", opt.Name())
	}

	if _, err := NewOptimizer("adagrad"); err == nil {
		t.Error("Expected error for unknown optimizer")
	}
}

// TestStepDecayScheduler verifies the decay boundaries
func TestStepDecayScheduler(t *testing.T) {
	s := NewStepDecayScheduler(0.01, 0.1, 75)

	if math.Abs(float64(s.GetLR(0)-0.01)) > 1e-8 {
		t.Errorf("Step 0: expected 0.01, got %f", s.GetLR(0))
	}
	if math.Abs(float64(s.GetLR(74)-0.01)) > 1e-8 {
		t.Errorf("Step 74: expected 0.01, got %f", s.GetLR(74))
	}
	if math.Abs(float64(s.GetLR(75)-0.001)) > 1e-8 {
		t.Errorf("Step 75: expected 0.001, got %f", s.GetLR(75))
	}
	if math.Abs(float64(s.GetLR(150)-0.0001)) > 1e-8 {
		t.Errorf("Step 150: expected 0.0001, got %f", s.GetLR(150))
	}
}

// TestConstantScheduler verifies the learning rate never changes
func TestConstantScheduler(t *testing.T) {
	s := NewConstantScheduler(0.01)
	for _, step := range []int{0, 100, 100000} {
		if s.GetLR(step) != 0.01 {
			t.Errorf("Step %d: expected 0.01, got %f", step, s.GetLR(step))
		}
	}
}
