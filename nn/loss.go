package nn

import (
	"math"
)

const bceEps = 1e-7

// BCELoss is mean binary cross-entropy between sigmoid outputs and
// float labels. Probabilities are clamped to [eps, 1-eps] before the log.
type BCELoss struct {
	// Cached for backward
	pred   *Tensor
	target *Tensor
}

func NewBCELoss() *BCELoss {
	return &BCELoss{}
}

// Forward returns the batch-mean loss.
func (l *BCELoss) Forward(pred, target *Tensor) float32 {
	if len(pred.Data) != len(target.Data) {
		panic("nn: BCELoss prediction/target length mismatch")
	}
	l.pred = pred
	l.target = target

	sum := float64(0)
	for i, p := range pred.Data {
		pc := clampProb(p)
		t := float64(target.Data[i])
		sum += -(t*math.Log(float64(pc)) + (1-t)*math.Log(float64(1-pc)))
	}
	return float32(sum / float64(len(pred.Data)))
}

// Backward returns d(loss)/d(prediction) for the cached pair.
func (l *BCELoss) Backward() *Tensor {
	grad := NewTensor(l.pred.Shape...)
	n := float32(len(l.pred.Data))
	for i, p := range l.pred.Data {
		pc := clampProb(p)
		t := l.target.Data[i]
		grad.Data[i] = (pc - t) / (pc * (1 - pc)) / n
	}
	return grad
}

func clampProb(p float32) float32 {
	if p < bceEps {
		return bceEps
	}
	if p > 1-bceEps {
		return 1 - bceEps
	}
	return p
}
