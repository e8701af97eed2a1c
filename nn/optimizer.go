package nn

import (
	"math"

	"github.com/pkg/errors"
)

// Optimizer interface defines the contract for all optimizers
type Optimizer interface {
	// Step applies accumulated gradients to the parameters
	Step(params []*Param, learningRate float32)

	// Reset clears optimizer state (moments, step counter)
	Reset()

	// Name returns the optimizer name
	Name() string
}

// NewOptimizer builds an optimizer from its config name.
func NewOptimizer(name string) (Optimizer, error) {
	switch name {
	case "adam", "":
		return NewAdamOptimizerDefault(), nil
	case "sgd":
		return NewSGDOptimizer(), nil
	case "sgd_momentum":
		return NewSGDOptimizerWithMomentum(0.9), nil
	default:
		return nil, errors.Errorf("unknown optimizer: %q", name)
	}
}

// ============================================================================
// Adam Optimizer
// ============================================================================

type AdamOptimizer struct {
	beta1   float32
	beta2   float32
	epsilon float32
	step    int

	// First moment estimates (momentum)
	m map[string][]float32

	// Second moment estimates (variance)
	v map[string][]float32
}

func NewAdamOptimizer(beta1, beta2, epsilon float32) *AdamOptimizer {
	return &AdamOptimizer{
		beta1:   beta1,
		beta2:   beta2,
		epsilon: epsilon,
		step:    0,
		m:       make(map[string][]float32),
		v:       make(map[string][]float32),
	}
}

func NewAdamOptimizerDefault() *AdamOptimizer {
	return NewAdamOptimizer(0.9, 0.999, 1e-8)
}

func (opt *AdamOptimizer) Step(params []*Param, learningRate float32) {
	opt.step++

	// Bias correction factors
	biasCorrection1 := 1.0 - float32(math.Pow(float64(opt.beta1), float64(opt.step)))
	biasCorrection2 := 1.0 - float32(math.Pow(float64(opt.beta2), float64(opt.step)))

	for _, p := range params {
		// Initialize moments on first use
		if opt.m[p.Name] == nil {
			opt.m[p.Name] = make([]float32, len(p.Data))
			opt.v[p.Name] = make([]float32, len(p.Data))
		}
		m := opt.m[p.Name]
		v := opt.v[p.Name]

		for j := range p.Data {
			grad := p.Grad[j]

			// Update biased first moment estimate
			m[j] = opt.beta1*m[j] + (1-opt.beta1)*grad

			// Update biased second moment estimate
			v[j] = opt.beta2*v[j] + (1-opt.beta2)*grad*grad

			// Compute bias-corrected moments
			mHat := m[j] / biasCorrection1
			vHat := v[j] / biasCorrection2

			p.Data[j] -= learningRate * mHat / (float32(math.Sqrt(float64(vHat))) + opt.epsilon)
		}
	}
}

func (opt *AdamOptimizer) Reset() {
	opt.step = 0
	opt.m = make(map[string][]float32)
	opt.v = make(map[string][]float32)
}

func (opt *AdamOptimizer) Name() string {
	return "Adam"
}

// ============================================================================
// SGD Optimizer (Stochastic Gradient Descent with optional momentum)
// ============================================================================

type SGDOptimizer struct {
	momentum   float32
	velocities map[string][]float32
}

func NewSGDOptimizer() *SGDOptimizer {
	return &SGDOptimizer{
		momentum:   0.0,
		velocities: make(map[string][]float32),
	}
}

func NewSGDOptimizerWithMomentum(momentum float32) *SGDOptimizer {
	return &SGDOptimizer{
		momentum:   momentum,
		velocities: make(map[string][]float32),
	}
}

func (opt *SGDOptimizer) Step(params []*Param, learningRate float32) {
	if opt.momentum == 0.0 {
		// Simple SGD: w = w - lr * grad
		for _, p := range params {
			for j := range p.Data {
				p.Data[j] -= learningRate * p.Grad[j]
			}
		}
		return
	}

	// SGD with momentum: v = momentum * v + grad; w = w - lr * v
	for _, p := range params {
		if opt.velocities[p.Name] == nil {
			opt.velocities[p.Name] = make([]float32, len(p.Data))
		}
		vel := opt.velocities[p.Name]
		for j := range p.Data {
			vel[j] = opt.momentum*vel[j] + p.Grad[j]
			p.Data[j] -= learningRate * vel[j]
		}
	}
}

func (opt *SGDOptimizer) Reset() {
	opt.velocities = make(map[string][]float32)
}

func (opt *SGDOptimizer) Name() string {
	if opt.momentum > 0 {
		return "SGD (momentum)"
	}
	return "SGD"
}
