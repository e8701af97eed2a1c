package nn

import (
	"math"
)

// LRScheduler interface defines learning rate scheduling strategies
type LRScheduler interface {
	// GetLR returns the learning rate for the given optimizer step
	GetLR(step int) float32

	// Name returns the scheduler name
	Name() string
}

// ============================================================================
// Constant Scheduler - Fixed learning rate
// ============================================================================

type ConstantScheduler struct {
	baseLR float32
}

func NewConstantScheduler(baseLR float32) *ConstantScheduler {
	return &ConstantScheduler{baseLR: baseLR}
}

func (s *ConstantScheduler) GetLR(step int) float32 {
	return s.baseLR
}

func (s *ConstantScheduler) Name() string {
	return "Constant"
}

// ============================================================================
// Step Decay Scheduler - Decay by a fixed factor every stepSize steps
// ============================================================================

type StepDecayScheduler struct {
	initialLR   float32
	decayFactor float32
	stepSize    int
}

func NewStepDecayScheduler(initialLR, decayFactor float32, stepSize int) *StepDecayScheduler {
	return &StepDecayScheduler{
		initialLR:   initialLR,
		decayFactor: decayFactor,
		stepSize:    stepSize,
	}
}

func (s *StepDecayScheduler) GetLR(step int) float32 {
	// Step decay: lr = initialLR * decayFactor^(step / stepSize)
	numDecays := step / s.stepSize
	return s.initialLR * float32(math.Pow(float64(s.decayFactor), float64(numDecays)))
}

func (s *StepDecayScheduler) Name() string {
	return "StepDecay"
}
